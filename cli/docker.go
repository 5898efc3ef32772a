package cli

import (
	"github.com/nmstate/testbox/core"
	dockeradapter "github.com/nmstate/testbox/core/adapters/docker"
	"github.com/nmstate/testbox/core/ports"
)

// ClientFactory creates the engine client a command talks to.
type ClientFactory func(logger core.Logger) (ports.DockerClient, error)

// NewDockerClient connects to the daemon named by DOCKER_HOST, or the
// platform default, with registry credentials from the docker config.
func NewDockerClient(logger core.Logger) (ports.DockerClient, error) {
	config := dockeradapter.DefaultConfig()
	config.Auth = dockeradapter.NewConfigAuthProvider(logger)

	client, err := dockeradapter.NewClientWithConfig(config)
	if err != nil {
		return nil, &core.EngineError{Op: "connect to docker", Err: err}
	}
	return client, nil
}

func (f ClientFactory) orDefault() ClientFactory {
	if f == nil {
		return NewDockerClient
	}
	return f
}
