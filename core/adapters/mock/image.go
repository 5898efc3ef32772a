package mock

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/nmstate/testbox/core/domain"
)

// ImageService is a mock implementation of ports.ImageService.
type ImageService struct {
	mu sync.RWMutex

	// Callbacks for customizing behavior
	OnPull        func(ctx context.Context, opts domain.PullOptions) (io.ReadCloser, error)
	OnPullAndWait func(ctx context.Context, opts domain.PullOptions) error
	OnInspect     func(ctx context.Context, imageID string) (*domain.Image, error)
	OnExists      func(ctx context.Context, imageRef string) (bool, error)

	// Call tracking
	PullCalls        []domain.PullOptions
	PullAndWaitCalls []domain.PullOptions
	InspectCalls     []string
	ExistsCalls      []string

	// Simulated data
	ExistsResult bool
}

// NewImageService creates a new mock ImageService.
func NewImageService() *ImageService {
	return &ImageService{
		ExistsResult: true, // Default: images exist
	}
}

// Pull pulls an image.
func (s *ImageService) Pull(ctx context.Context, opts domain.PullOptions) (io.ReadCloser, error) {
	s.mu.Lock()
	s.PullCalls = append(s.PullCalls, opts)
	s.mu.Unlock()

	if s.OnPull != nil {
		return s.OnPull(ctx, opts)
	}

	progress := `{"status":"Pulling from nmstate/c9s-nmstate-dev"}
{"status":"Digest: sha256:mock"}
{"status":"Status: Downloaded newer image"}
`
	return io.NopCloser(bytes.NewBufferString(progress)), nil
}

// PullAndWait pulls an image and waits for completion.
func (s *ImageService) PullAndWait(ctx context.Context, opts domain.PullOptions) error {
	s.mu.Lock()
	s.PullAndWaitCalls = append(s.PullAndWaitCalls, opts)
	s.mu.Unlock()

	if s.OnPullAndWait != nil {
		return s.OnPullAndWait(ctx, opts)
	}

	reader, err := s.Pull(ctx, opts)
	if err != nil {
		return err
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

// Inspect returns image information.
func (s *ImageService) Inspect(ctx context.Context, imageID string) (*domain.Image, error) {
	s.mu.Lock()
	s.InspectCalls = append(s.InspectCalls, imageID)
	s.mu.Unlock()

	if s.OnInspect != nil {
		return s.OnInspect(ctx, imageID)
	}
	return &domain.Image{
		ID:       imageID,
		RepoTags: []string{imageID},
	}, nil
}

// Exists checks if an image exists.
func (s *ImageService) Exists(ctx context.Context, imageRef string) (bool, error) {
	s.mu.Lock()
	s.ExistsCalls = append(s.ExistsCalls, imageRef)
	result := s.ExistsResult
	s.mu.Unlock()

	if s.OnExists != nil {
		return s.OnExists(ctx, imageRef)
	}
	return result, nil
}

// SetExistsResult sets the default result of Exists().
func (s *ImageService) SetExistsResult(exists bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExistsResult = exists
}
