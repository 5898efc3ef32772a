// Package mock provides mock implementations of the ports interfaces for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/nmstate/testbox/core/domain"
	"github.com/nmstate/testbox/core/ports"
)

// DockerClient is a mock implementation of ports.DockerClient.
type DockerClient struct {
	mu sync.RWMutex

	containers *ContainerService
	exec       *ExecService
	images     *ImageService
	networks   *NetworkService
	system     *SystemService

	closed   bool
	closeErr error
}

// NewDockerClient creates a new mock DockerClient.
func NewDockerClient() *DockerClient {
	return &DockerClient{
		containers: NewContainerService(),
		exec:       NewExecService(),
		images:     NewImageService(),
		networks:   NewNetworkService(),
		system:     NewSystemService(),
	}
}

// Containers returns the container service.
func (c *DockerClient) Containers() ports.ContainerService {
	return c.containers
}

// Exec returns the exec service.
func (c *DockerClient) Exec() ports.ExecService {
	return c.exec
}

// Images returns the image service.
func (c *DockerClient) Images() ports.ImageService {
	return c.images
}

// Networks returns the network service.
func (c *DockerClient) Networks() ports.NetworkService {
	return c.networks
}

// System returns the system service.
func (c *DockerClient) System() ports.SystemService {
	return c.system
}

// Close closes the client.
func (c *DockerClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.closeErr
}

// SetCloseError sets the error returned by Close().
func (c *DockerClient) SetCloseError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErr = err
}

// IsClosed returns true if the client has been closed.
func (c *DockerClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ContainerMock returns the concrete mock for configuring callbacks.
func (c *DockerClient) ContainerMock() *ContainerService { return c.containers }

// ExecMock returns the concrete mock for configuring callbacks.
func (c *DockerClient) ExecMock() *ExecService { return c.exec }

// ImageMock returns the concrete mock for configuring callbacks.
func (c *DockerClient) ImageMock() *ImageService { return c.images }

// NetworkMock returns the concrete mock for configuring callbacks.
func (c *DockerClient) NetworkMock() *NetworkService { return c.networks }

// SystemMock returns the concrete mock for configuring callbacks.
func (c *DockerClient) SystemMock() *SystemService { return c.system }

// ContainerService is a mock implementation of ports.ContainerService.
type ContainerService struct {
	mu sync.RWMutex

	// Callbacks for customizing behavior
	OnCreate  func(ctx context.Context, config *domain.ContainerConfig) (string, error)
	OnStart   func(ctx context.Context, containerID string) error
	OnStop    func(ctx context.Context, containerID string, timeout *time.Duration) error
	OnRemove  func(ctx context.Context, containerID string, opts domain.RemoveOptions) error
	OnInspect func(ctx context.Context, containerID string) (*domain.Container, error)
	OnList    func(ctx context.Context, opts domain.ListOptions) ([]domain.Container, error)

	// Call tracking
	CreateCalls  []CreateContainerCall
	StartCalls   []string
	StopCalls    []StopContainerCall
	RemoveCalls  []RemoveContainerCall
	InspectCalls []string
	ListCalls    []domain.ListOptions
}

// CreateContainerCall represents a call to Create().
type CreateContainerCall struct {
	Config *domain.ContainerConfig
}

// StopContainerCall represents a call to Stop().
type StopContainerCall struct {
	ContainerID string
	Timeout     *time.Duration
}

// RemoveContainerCall represents a call to Remove().
type RemoveContainerCall struct {
	ContainerID string
	Options     domain.RemoveOptions
}

// NewContainerService creates a new mock ContainerService.
func NewContainerService() *ContainerService {
	return &ContainerService{}
}

// Create creates a container.
func (s *ContainerService) Create(ctx context.Context, config *domain.ContainerConfig) (string, error) {
	s.mu.Lock()
	s.CreateCalls = append(s.CreateCalls, CreateContainerCall{Config: config})
	s.mu.Unlock()

	if s.OnCreate != nil {
		return s.OnCreate(ctx, config)
	}
	return "mock-container-id", nil
}

// Start starts a container.
func (s *ContainerService) Start(ctx context.Context, containerID string) error {
	s.mu.Lock()
	s.StartCalls = append(s.StartCalls, containerID)
	s.mu.Unlock()

	if s.OnStart != nil {
		return s.OnStart(ctx, containerID)
	}
	return nil
}

// Stop stops a container.
func (s *ContainerService) Stop(ctx context.Context, containerID string, timeout *time.Duration) error {
	s.mu.Lock()
	s.StopCalls = append(s.StopCalls, StopContainerCall{ContainerID: containerID, Timeout: timeout})
	s.mu.Unlock()

	if s.OnStop != nil {
		return s.OnStop(ctx, containerID, timeout)
	}
	return nil
}

// Remove removes a container.
func (s *ContainerService) Remove(ctx context.Context, containerID string, opts domain.RemoveOptions) error {
	s.mu.Lock()
	s.RemoveCalls = append(s.RemoveCalls, RemoveContainerCall{ContainerID: containerID, Options: opts})
	s.mu.Unlock()

	if s.OnRemove != nil {
		return s.OnRemove(ctx, containerID, opts)
	}
	return nil
}

// Inspect returns container information.
// By default the container reports running.
func (s *ContainerService) Inspect(ctx context.Context, containerID string) (*domain.Container, error) {
	s.mu.Lock()
	s.InspectCalls = append(s.InspectCalls, containerID)
	s.mu.Unlock()

	if s.OnInspect != nil {
		return s.OnInspect(ctx, containerID)
	}
	return &domain.Container{
		ID:   containerID,
		Name: "mock-container",
		State: domain.ContainerState{
			Status:  "running",
			Running: true,
		},
	}, nil
}

// List lists containers.
func (s *ContainerService) List(ctx context.Context, opts domain.ListOptions) ([]domain.Container, error) {
	s.mu.Lock()
	s.ListCalls = append(s.ListCalls, opts)
	s.mu.Unlock()

	if s.OnList != nil {
		return s.OnList(ctx, opts)
	}
	return []domain.Container{}, nil
}
