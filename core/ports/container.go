package ports

import (
	"context"
	"time"

	"github.com/nmstate/testbox/core/domain"
)

// ContainerService provides operations for managing Docker containers.
type ContainerService interface {
	// Create creates a new container.
	// Returns the container ID on success.
	Create(ctx context.Context, config *domain.ContainerConfig) (string, error)

	// Start starts a stopped container.
	Start(ctx context.Context, containerID string) error

	// Stop stops a running container.
	// The timeout parameter specifies how long to wait before forcefully killing.
	// If timeout is nil, the default timeout is used.
	Stop(ctx context.Context, containerID string, timeout *time.Duration) error

	// Remove removes a container.
	Remove(ctx context.Context, containerID string, opts domain.RemoveOptions) error

	// Inspect returns detailed information about a container.
	Inspect(ctx context.Context, containerID string) (*domain.Container, error)

	// List returns a list of containers matching the options.
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Container, error)
}
