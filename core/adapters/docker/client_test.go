package docker_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dockeradapter "github.com/nmstate/testbox/core/adapters/docker"
	"github.com/nmstate/testbox/core/ports"
)

// TestClientImplementsInterface verifies the Docker client implements the interface.
func TestClientImplementsInterface(t *testing.T) {
	var _ ports.DockerClient = (*dockeradapter.Client)(nil)
	var _ ports.AuthProvider = (*dockeradapter.ConfigAuthProvider)(nil)
}

func TestDefaultConfig(t *testing.T) {
	config := dockeradapter.DefaultConfig()
	require.NotNil(t, config)
	assert.Equal(t, 30*time.Second, config.DialTimeout)
	assert.Equal(t, 120*time.Second, config.ResponseHeaderTimeout)
}

// Creating a client does not contact the daemon, so this runs without Docker.
func TestNewClientWithConfig(t *testing.T) {
	config := dockeradapter.DefaultConfig()
	config.Host = "unix:///nonexistent/docker.sock"

	c, err := dockeradapter.NewClientWithConfig(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.NotNil(t, c.Containers())
	assert.NotNil(t, c.Exec())
	assert.NotNil(t, c.Images())
	assert.NotNil(t, c.Networks())
	assert.NotNil(t, c.System())
}
