package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nmstate/testbox/core"
	"github.com/nmstate/testbox/core/adapters/mock"
	"github.com/nmstate/testbox/core/domain"
	"github.com/nmstate/testbox/core/ports"
	"github.com/nmstate/testbox/test"
)

const runProfile = `
[global]
pull = missing
tty = never

[container]
image = fedora

[network "net0"]
interface = eth1

[step "setup"]
run = systemctl start dbus.socket

[step "test"]
run = pytest tests/integration
append-args = true
`

type runFixture struct {
	cmd    *RunCommand
	client *mock.DockerClient
	logger *test.Logger
	stdout *bytes.Buffer
	dir    string
}

func newRunFixture(t *testing.T, profile string) *runFixture {
	t.Helper()

	dir := t.TempDir()
	f := &runFixture{
		client: mock.NewDockerClient(),
		logger: test.NewTestLogger(),
		stdout: &bytes.Buffer{},
		dir:    dir,
	}
	f.cmd = &RunCommand{
		ConfigFile: writeProfile(t, dir, profile),
		Logger:     f.logger,
		newClient: func(core.Logger) (ports.DockerClient, error) {
			return f.client, nil
		},
		controllerOpts: []core.ControllerOption{
			core.WithOutput(f.stdout, f.stdout),
			core.WithTerminalCheck(func() bool { return false }),
		},
	}
	return f
}

func TestRunCommand_Success(t *testing.T) {
	f := newRunFixture(t, runProfile)
	f.client.ExecMock().SetOutput("ok\n")
	f.cmd.Report = filepath.Join(f.dir, "report.yaml")
	f.cmd.MetricsFile = filepath.Join(f.dir, "testbox.prom")

	require.NoError(t, f.cmd.Execute(nil))

	runs := f.client.ExecMock().GetRunCalls()
	require.Len(t, runs, 2)
	assert.Equal(t, []string{"/bin/bash", "-c", "pytest tests/integration"}, runs[1].Config.Cmd)
	assert.Equal(t, "ok\nok\n", f.stdout.String())
	assert.Len(t, f.client.NetworkMock().ConnectCalls, 1)
	assert.Len(t, f.client.NetworkMock().GetRemoveCalls(), 1)
	assert.True(t, f.logger.HasMessage("passed in"))

	data, err := os.ReadFile(f.cmd.Report)
	require.NoError(t, err)
	var report SessionReport
	require.NoError(t, yaml.Unmarshal(data, &report))
	assert.Equal(t, 0, report.ExitStatus)
	assert.Equal(t, f.cmd.ConfigFile, report.Config)
	assert.Equal(t, "docker.io/library/fedora:latest", report.Image)
	require.Len(t, report.Steps, 2)
	assert.Equal(t, "test", report.Steps[1].Name)
	assert.Equal(t, "ok\n", report.Steps[1].Output)
	require.Len(t, report.Networks, 1)
	assert.Equal(t, "eth1", report.Networks[0].Interface)

	prom, err := os.ReadFile(f.cmd.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "testbox_session_exit_status 0\n")
	assert.Contains(t, string(prom), "testbox_steps_total 2\n")
}

func TestRunCommand_FailingStepSetsExitStatus(t *testing.T) {
	f := newRunFixture(t, runProfile)
	f.client.ExecMock().OnRun = func(_ context.Context, _ string, config *domain.ExecConfig, _, _ io.Writer) (int, error) {
		if config.Cmd[len(config.Cmd)-1] == "pytest tests/integration" {
			return 3, nil
		}
		return 0, nil
	}
	f.cmd.Report = filepath.Join(f.dir, "report.yaml")

	err := f.cmd.Execute(nil)
	require.Error(t, err)
	assert.Equal(t, 3, ExitCode(err))
	assert.True(t, core.IsNonZeroExitError(err))

	// teardown still ran and the report still got written
	assert.Len(t, f.client.ContainerMock().RemoveCalls, 1)
	assert.Len(t, f.client.NetworkMock().GetRemoveCalls(), 1)
	data, err := os.ReadFile(f.cmd.Report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exit_status: 3")
}

func TestRunCommand_ExtraArgs(t *testing.T) {
	f := newRunFixture(t, runProfile)

	require.NoError(t, f.cmd.Execute([]string{"-k", "bond and not vlan"}))

	runs := f.client.ExecMock().GetRunCalls()
	require.Len(t, runs, 2)
	assert.Equal(t, []string{"/bin/bash", "-c", `pytest tests/integration "$@"`, "test", "-k", "bond and not vlan"}, runs[1].Config.Cmd)
	assert.Equal(t, []string{"/bin/bash", "-c", "systemctl start dbus.socket"}, runs[0].Config.Cmd)
}

func TestRunCommand_Overrides(t *testing.T) {
	f := newRunFixture(t, runProfile)
	f.cmd.Image = "fedora:40"
	f.cmd.TTY = "always"

	require.NoError(t, f.cmd.Execute(nil))

	creates := f.client.ContainerMock().CreateCalls
	require.Len(t, creates, 1)
	assert.Equal(t, "docker.io/library/fedora:40", creates[0].Config.Image)
	assert.True(t, f.client.ExecMock().GetRunCalls()[0].Config.Tty)
}

func TestRunCommand_PullNeverWithoutImage(t *testing.T) {
	f := newRunFixture(t, runProfile)
	f.cmd.Pull = "never"
	f.client.ImageMock().SetExistsResult(false)

	err := f.cmd.Execute(nil)
	require.Error(t, err)
	assert.Equal(t, core.ExitEngine, ExitCode(err))
	assert.ErrorIs(t, err, core.ErrImageNotAvailable)
	assert.Empty(t, f.client.ContainerMock().CreateCalls)
}

func TestRunCommand_ConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *runFixture)
	}{
		{"missing file", func(f *runFixture) { f.cmd.ConfigFile = filepath.Join(f.dir, "missing.ini") }},
		{"invalid log level", func(f *runFixture) { f.cmd.LogLevel = "loud" }},
		{"invalid profile", func(f *runFixture) { f.cmd.ConfigFile = writeProfile(t, f.dir, "[step \"test\"]\nrun = pytest\n") }},
		{"missing project dir", func(f *runFixture) {
			f.cmd.ConfigFile = writeProfile(t, f.dir, "[global]\nproject-dir = nope\n"+minimalProfile)
		}},
		{"not a project", func(f *runFixture) {
			f.cmd.ConfigFile = writeProfile(t, f.dir, "[global]\nproject-marker = setup.py\n"+minimalProfile)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunFixture(t, runProfile)
			tt.setup(f)

			err := f.cmd.Execute(nil)
			require.Error(t, err)
			assert.Equal(t, core.ExitFailure, ExitCode(err))
			assert.Equal(t, 1, f.logger.ErrorCount())
			assert.Empty(t, f.client.ContainerMock().CreateCalls)
		})
	}
}

func TestRunCommand_ClientError(t *testing.T) {
	f := newRunFixture(t, runProfile)
	f.cmd.newClient = func(core.Logger) (ports.DockerClient, error) {
		return nil, &core.EngineError{Op: "connect to docker", Err: errors.New("no such socket")}
	}

	err := f.cmd.Execute(nil)
	require.Error(t, err)
	assert.Equal(t, core.ExitEngine, ExitCode(err))
	assert.True(t, f.logger.HasError("no such socket"))
}

func TestRunCommand_ClosesClient(t *testing.T) {
	f := newRunFixture(t, runProfile)

	require.NoError(t, f.cmd.Execute(nil))
	assert.True(t, f.client.IsClosed())
}
