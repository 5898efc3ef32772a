package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nmstate/testbox/core"
)

func sampleSession() *core.Session {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &core.Session{
		ID:            "a1b2c3d4e5f6",
		Image:         "quay.io/nmstate/c9s-nmstate-dev:latest",
		ContainerID:   "0123456789abcdef",
		ContainerName: "testbox-a1b2c3d4e5f6",
		Networks: []core.NetworkHandle{
			{Name: "net0", ID: "n0", Interface: "eth1"},
			{Name: "net1", ID: "n1", Interface: "eth2", Reused: true},
		},
		ExitStatus: 1,
		Err:        errors.New(`step "test": non-zero exit code: 1`),
		Steps: []core.StepResult{
			{Name: "start-dbus", Kind: core.StepExec, Policy: core.PolicyFatal, Duration: time.Second},
			{
				Name: "test", Kind: core.StepExec, Policy: core.PolicyFatal, ExitCode: 1,
				Duration: 90 * time.Second, Err: core.NonZeroExitError{ExitCode: 1}, Output: "1 failed\n",
			},
		},
		CleanupErrors: []error{errors.New(`remove network "net1": in use`)},
		StartedAt:     start,
		FinishedAt:    start.Add(2 * time.Minute),
	}
}

func TestNewSessionReport(t *testing.T) {
	t.Parallel()

	r := NewSessionReport(sampleSession(), "built-in")

	assert.Equal(t, "a1b2c3d4e5f6", r.Session)
	assert.Equal(t, "built-in", r.Config)
	assert.Equal(t, "testbox-a1b2c3d4e5f6", r.Container)
	assert.Equal(t, 1, r.ExitStatus)
	assert.Equal(t, `step "test": non-zero exit code: 1`, r.Error)
	assert.Equal(t, "2m0s", r.Duration)
	require.Len(t, r.Networks, 2)
	assert.True(t, r.Networks[1].Reused)
	require.Len(t, r.Steps, 2)
	assert.Empty(t, r.Steps[0].Error)
	assert.Equal(t, "1m30s", r.Steps[1].Duration)
	assert.Equal(t, "non-zero exit code: 1", r.Steps[1].Error)
	assert.Equal(t, []string{`remove network "net1": in use`}, r.CleanupErrors)
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteReport(path, NewSessionReport(sampleSession(), "built-in")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Equal(t, "a1b2c3d4e5f6", raw["session"])
	assert.Equal(t, 1, raw["exit_status"])
	assert.Contains(t, string(data), "output: |\n")
	assert.Contains(t, string(data), "reused: true")
}

func TestWriteReport_BadPath(t *testing.T) {
	t.Parallel()

	err := WriteReport(filepath.Join(t.TempDir(), "missing", "report.yaml"), NewSessionReport(sampleSession(), "x"))
	assert.Error(t, err)
}
