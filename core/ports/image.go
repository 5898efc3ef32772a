package ports

import (
	"context"
	"io"

	"github.com/nmstate/testbox/core/domain"
)

// ImageService provides operations for managing Docker images.
type ImageService interface {
	// Pull pulls an image from a registry.
	// The returned ReadCloser contains pull progress and must be closed by the caller.
	Pull(ctx context.Context, opts domain.PullOptions) (io.ReadCloser, error)

	// PullAndWait pulls an image and waits for completion.
	PullAndWait(ctx context.Context, opts domain.PullOptions) error

	// Inspect returns detailed information about an image.
	Inspect(ctx context.Context, imageID string) (*domain.Image, error)

	// Exists checks if an image exists locally.
	Exists(ctx context.Context, imageRef string) (bool, error)
}

// AuthProvider provides authentication for registry operations.
type AuthProvider interface {
	// GetAuthConfig returns the authentication configuration for a registry.
	GetAuthConfig(registry string) (domain.AuthConfig, error)

	// GetEncodedAuth returns base64-encoded authentication for a registry.
	GetEncodedAuth(registry string) (string, error)
}
