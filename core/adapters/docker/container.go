package docker

import (
	"context"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/nmstate/testbox/core/domain"
)

// ContainerServiceAdapter implements ports.ContainerService using Docker SDK.
type ContainerServiceAdapter struct {
	client *client.Client
}

// Create creates a new container.
func (s *ContainerServiceAdapter) Create(ctx context.Context, config *domain.ContainerConfig) (string, error) {
	containerConfig := convertToContainerConfig(config)
	hostConfig := convertToHostConfig(config.HostConfig)
	networkConfig := convertToNetworkingConfig(config.NetworkConfig)

	resp, err := s.client.ContainerCreate(ctx, containerConfig, hostConfig, networkConfig, parsePlatform(config.Platform), config.Name)
	if err != nil {
		return "", convertError(err)
	}

	return resp.ID, nil
}

// Start starts a container.
func (s *ContainerServiceAdapter) Start(ctx context.Context, containerID string) error {
	err := s.client.ContainerStart(ctx, containerID, container.StartOptions{})
	return convertError(err)
}

// Stop stops a container.
func (s *ContainerServiceAdapter) Stop(ctx context.Context, containerID string, timeout *time.Duration) error {
	opts := container.StopOptions{}
	if timeout != nil {
		seconds := int(timeout.Seconds())
		opts.Timeout = &seconds
	}
	err := s.client.ContainerStop(ctx, containerID, opts)
	return convertError(err)
}

// Remove removes a container.
func (s *ContainerServiceAdapter) Remove(ctx context.Context, containerID string, opts domain.RemoveOptions) error {
	err := s.client.ContainerRemove(ctx, containerID, container.RemoveOptions{
		RemoveVolumes: opts.RemoveVolumes,
		Force:         opts.Force,
	})
	if err != nil {
		if err = convertError(err); domain.IsNotFound(err) {
			return &domain.ContainerNotFoundError{ID: containerID}
		}
	}
	return err
}

// Inspect returns container information.
func (s *ContainerServiceAdapter) Inspect(ctx context.Context, containerID string) (*domain.Container, error) {
	resp, err := s.client.ContainerInspect(ctx, containerID)
	if err != nil {
		if err = convertError(err); domain.IsNotFound(err) {
			return nil, &domain.ContainerNotFoundError{ID: containerID}
		}
		return nil, err
	}

	return convertFromContainerJSON(&resp), nil
}

// List lists containers.
func (s *ContainerServiceAdapter) List(ctx context.Context, opts domain.ListOptions) ([]domain.Container, error) {
	listOpts := container.ListOptions{All: opts.All}

	if len(opts.Filters) > 0 {
		listOpts.Filters = convertToFilters(opts.Filters)
	}

	containers, err := s.client.ContainerList(ctx, listOpts)
	if err != nil {
		return nil, convertError(err)
	}

	result := make([]domain.Container, len(containers))
	for i, c := range containers {
		result[i] = convertFromAPIContainer(&c)
	}
	return result, nil
}

// Helper conversion functions

func convertToFilters(in map[string][]string) filters.Args {
	args := filters.NewArgs()
	for key, values := range in {
		for _, v := range values {
			args.Add(key, v)
		}
	}
	return args
}

// parsePlatform turns "os[/arch[/variant]]" into an OCI platform, nil lets Docker choose.
func parsePlatform(s string) *ocispec.Platform {
	if s == "" {
		return nil
	}
	parts := strings.SplitN(s, "/", 3)
	p := &ocispec.Platform{OS: parts[0]}
	if len(parts) > 1 {
		p.Architecture = parts[1]
	}
	if len(parts) > 2 {
		p.Variant = parts[2]
	}
	return p
}

func convertToContainerConfig(config *domain.ContainerConfig) *container.Config {
	if config == nil {
		return nil
	}

	return &container.Config{
		Hostname:   config.Hostname,
		User:       config.User,
		Tty:        config.Tty,
		Env:        config.Env,
		Cmd:        config.Cmd,
		Image:      config.Image,
		WorkingDir: config.WorkingDir,
		Entrypoint: config.Entrypoint,
		Labels:     config.Labels,
	}
}

func convertToHostConfig(config *domain.HostConfig) *container.HostConfig {
	if config == nil {
		return nil
	}

	hostConfig := &container.HostConfig{
		Binds:        config.Binds,
		NetworkMode:  container.NetworkMode(config.NetworkMode),
		AutoRemove:   config.AutoRemove,
		Privileged:   config.Privileged,
		DNS:          config.DNS,
		ExtraHosts:   config.ExtraHosts,
		CapAdd:       config.CapAdd,
		CapDrop:      config.CapDrop,
		SecurityOpt:  config.SecurityOpt,
		CgroupnsMode: container.CgroupnsMode(config.CgroupnsMode),
		ShmSize:      config.ShmSize,
		Tmpfs:        config.Tmpfs,
	}

	for _, m := range config.Mounts {
		hostConfig.Mounts = append(hostConfig.Mounts, convertToMount(&m))
	}

	return hostConfig
}

func convertToNetworkingConfig(config *domain.NetworkConfig) *network.NetworkingConfig {
	if config == nil {
		return nil
	}

	networkConfig := &network.NetworkingConfig{
		EndpointsConfig: make(map[string]*network.EndpointSettings),
	}

	for name, endpoint := range config.EndpointsConfig {
		networkConfig.EndpointsConfig[name] = convertToEndpointSettings(endpoint)
	}

	return networkConfig
}

func convertToEndpointSettings(settings *domain.EndpointSettings) *network.EndpointSettings {
	if settings == nil {
		return nil
	}

	return &network.EndpointSettings{
		Aliases:     settings.Aliases,
		NetworkID:   settings.NetworkID,
		EndpointID:  settings.EndpointID,
		Gateway:     settings.Gateway,
		IPAddress:   settings.IPAddress,
		IPPrefixLen: settings.IPPrefixLen,
		MacAddress:  settings.MacAddress,
		DriverOpts:  settings.DriverOpts,
	}
}

func convertToMount(m *domain.Mount) mount.Mount {
	mnt := mount.Mount{
		Type:     mount.Type(m.Type),
		Source:   m.Source,
		Target:   m.Target,
		ReadOnly: m.ReadOnly,
	}

	if m.BindOptions != nil {
		mnt.BindOptions = &mount.BindOptions{
			Propagation: mount.Propagation(m.BindOptions.Propagation),
		}
	}

	return mnt
}
