package docker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	networktypes "github.com/docker/docker/api/types/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmstate/testbox/core/domain"
)

func TestConvertError(t *testing.T) {
	tests := []struct {
		name  string
		input error
		want  error
	}{
		{"not found", fmt.Errorf("no such network: net0: %w", cerrdefs.ErrNotFound), domain.ErrNotFound},
		{"conflict", fmt.Errorf("network with name net0 already exists: %w", cerrdefs.ErrConflict), domain.ErrConflict},
		{"unauthorized", fmt.Errorf("pull denied: %w", cerrdefs.ErrUnauthenticated), domain.ErrUnauthorized},
		{"forbidden", fmt.Errorf("access denied: %w", cerrdefs.ErrPermissionDenied), domain.ErrForbidden},
		{"deadline", context.DeadlineExceeded, domain.ErrTimeout},
		{"canceled", context.Canceled, domain.ErrCancelled},
		{"unavailable", fmt.Errorf("daemon down: %w", cerrdefs.ErrUnavailable), domain.ErrConnectionFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := convertError(tc.input)
			require.Error(t, result)
			assert.ErrorIs(t, result, tc.want)
			assert.Contains(t, result.Error(), tc.input.Error())
		})
	}
}

func TestConvertError_Passthrough(t *testing.T) {
	assert.NoError(t, convertError(nil))

	generic := errors.New("generic error")
	assert.Same(t, generic, convertError(generic))
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("").IsZero())
	assert.True(t, parseTime("not-a-time").IsZero())
	assert.Equal(t,
		time.Date(2024, 1, 15, 10, 30, 45, 123456789, time.UTC),
		parseTime("2024-01-15T10:30:45.123456789Z").UTC())
}

func TestParsePlatform(t *testing.T) {
	assert.Nil(t, parsePlatform(""))

	p := parsePlatform("linux/arm64/v8")
	require.NotNil(t, p)
	assert.Equal(t, "linux", p.OS)
	assert.Equal(t, "arm64", p.Architecture)
	assert.Equal(t, "v8", p.Variant)

	p = parsePlatform("linux/amd64")
	require.NotNil(t, p)
	assert.Equal(t, "amd64", p.Architecture)
	assert.Empty(t, p.Variant)
}

func TestConvertToHostConfig(t *testing.T) {
	assert.Nil(t, convertToHostConfig(nil))

	hc := convertToHostConfig(&domain.HostConfig{
		Privileged:   true,
		CgroupnsMode: "host",
		Mounts: []domain.Mount{
			{Type: domain.MountTypeBind, Source: "/sys/fs/cgroup", Target: "/sys/fs/cgroup", ReadOnly: true},
			{Type: domain.MountTypeBind, Source: "/src/nmstate", Target: "/workspace/nmstate",
				BindOptions: &domain.BindOptions{Propagation: "rprivate"}},
		},
	})
	require.NotNil(t, hc)
	assert.True(t, hc.Privileged)
	assert.Equal(t, containertypes.CgroupnsMode("host"), hc.CgroupnsMode)
	require.Len(t, hc.Mounts, 2)
	assert.Equal(t, mount.TypeBind, hc.Mounts[0].Type)
	assert.True(t, hc.Mounts[0].ReadOnly)
	assert.Nil(t, hc.Mounts[0].BindOptions)
	require.NotNil(t, hc.Mounts[1].BindOptions)
	assert.Equal(t, mount.PropagationRPrivate, hc.Mounts[1].BindOptions.Propagation)
}

func TestConvertFromContainerJSON(t *testing.T) {
	assert.Nil(t, convertFromContainerJSON(nil))

	resp := &containertypes.InspectResponse{
		ContainerJSONBase: &containertypes.ContainerJSONBase{
			ID:      "abc123",
			Name:    "/testbox-1",
			Image:   "sha256:deadbeef",
			Created: "2024-01-15T10:30:45Z",
			State: &containertypes.State{
				Status:  containertypes.StateRunning,
				Running: true,
				Pid:     42,
			},
		},
		Config: &containertypes.Config{
			Image:  "quay.io/nmstate/c9s-nmstate-dev",
			Labels: map[string]string{"managed-by": "testbox"},
		},
		Mounts: []containertypes.MountPoint{
			{Type: mount.TypeBind, Source: "/src", Destination: "/workspace", RW: true},
		},
	}

	c := convertFromContainerJSON(resp)
	require.NotNil(t, c)
	assert.Equal(t, "abc123", c.ID)
	assert.Equal(t, "testbox-1", c.Name)
	assert.True(t, c.State.Running)
	assert.Equal(t, "running", c.State.Status)
	assert.Equal(t, "testbox", c.Labels["managed-by"])
	require.Len(t, c.Mounts, 1)
	assert.False(t, c.Mounts[0].ReadOnly)
}

func TestConvertFromAPIContainer(t *testing.T) {
	c := convertFromAPIContainer(&containertypes.Summary{
		ID:     "abc",
		Names:  []string{"/testbox-abc"},
		State:  containertypes.StateExited,
		Labels: map[string]string{"managed-by": "testbox"},
	})
	assert.Equal(t, "testbox-abc", c.Name)
	assert.False(t, c.State.Running)
	assert.Equal(t, "exited", c.State.Status)
}

func TestConvertFromNetwork(t *testing.T) {
	n := convertFromNetwork(&networktypes.Inspect{
		Name:   "net0",
		ID:     "n0",
		Driver: "bridge",
		IPAM: networktypes.IPAM{
			Driver: "default",
			Config: []networktypes.IPAMConfig{{Subnet: "172.30.0.0/16"}},
		},
		Containers: map[string]networktypes.EndpointResource{
			"abc": {Name: "testbox-abc", IPv4Address: "172.30.0.2/16"},
		},
	})
	assert.Equal(t, "net0", n.Name)
	assert.Equal(t, "bridge", n.Driver)
	require.Len(t, n.IPAM.Config, 1)
	assert.Equal(t, "172.30.0.0/16", n.IPAM.Config[0].Subnet)
	assert.Equal(t, "testbox-abc", n.Containers["abc"].Name)
}
