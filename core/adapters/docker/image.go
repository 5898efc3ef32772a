package docker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/nmstate/testbox/core/domain"
	"github.com/nmstate/testbox/core/ports"
)

// ImageServiceAdapter implements ports.ImageService using Docker SDK.
type ImageServiceAdapter struct {
	client *client.Client
	auth   ports.AuthProvider
}

// Pull pulls an image from a registry.
// Without explicit RegistryAuth the configured auth provider is asked for
// the credentials of the image's registry.
func (s *ImageServiceAdapter) Pull(ctx context.Context, opts domain.PullOptions) (io.ReadCloser, error) {
	ref := opts.Repository
	if opts.Tag != "" {
		ref = ref + ":" + opts.Tag
	}

	pullOpts := image.PullOptions{
		RegistryAuth: opts.RegistryAuth,
		Platform:     opts.Platform,
	}
	if pullOpts.RegistryAuth == "" && s.auth != nil {
		encoded, err := s.auth.GetEncodedAuth(ExtractRegistry(ref))
		if err != nil {
			return nil, fmt.Errorf("resolving registry auth for %s: %w", ref, err)
		}
		pullOpts.RegistryAuth = encoded
	}

	reader, err := s.client.ImagePull(ctx, ref, pullOpts)
	if err != nil {
		if err = convertError(err); domain.IsNotFound(err) {
			return nil, &domain.ImageNotFoundError{Image: ref}
		}
		return nil, err
	}

	return reader, nil
}

// PullAndWait pulls an image and waits for completion.
// Errors reported inside the progress stream are returned.
func (s *ImageServiceAdapter) PullAndWait(ctx context.Context, opts domain.PullOptions) error {
	reader, err := s.Pull(ctx, opts)
	if err != nil {
		return err
	}
	defer reader.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(reader, io.Discard, 0, false, nil); err != nil {
		return fmt.Errorf("pulling image %s: %w", opts.Repository, err)
	}
	return nil
}

// Inspect returns image information.
func (s *ImageServiceAdapter) Inspect(ctx context.Context, imageID string) (*domain.Image, error) {
	img, err := s.client.ImageInspect(ctx, imageID)
	if err != nil {
		if err = convertError(err); domain.IsNotFound(err) {
			return nil, &domain.ImageNotFoundError{Image: imageID}
		}
		return nil, err
	}

	result := &domain.Image{
		ID:          img.ID,
		RepoTags:    img.RepoTags,
		RepoDigests: img.RepoDigests,
		Created:     parseTime(img.Created),
		Size:        img.Size,
		Os:          img.Os,
		Arch:        img.Architecture,
	}
	if img.Config != nil {
		result.Labels = img.Config.Labels
	}
	return result, nil
}

// Exists checks if an image exists locally.
func (s *ImageServiceAdapter) Exists(ctx context.Context, imageRef string) (bool, error) {
	_, err := s.client.ImageInspect(ctx, imageRef)
	if err != nil {
		if err = convertError(err); domain.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EncodeAuthConfig encodes an auth config for use in API calls.
func EncodeAuthConfig(auth domain.AuthConfig) (string, error) {
	authConfig := registry.AuthConfig{
		Username:      auth.Username,
		Password:      auth.Password,
		Auth:          auth.Auth,
		Email:         auth.Email,
		ServerAddress: auth.ServerAddress,
		IdentityToken: auth.IdentityToken,
		RegistryToken: auth.RegistryToken,
	}

	encoded, err := json.Marshal(authConfig)
	if err != nil {
		return "", fmt.Errorf("encoding auth config: %w", err)
	}

	return base64.URLEncoding.EncodeToString(encoded), nil
}
