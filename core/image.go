package core

import (
	"context"
	"fmt"

	"github.com/distribution/reference"

	"github.com/nmstate/testbox/core/domain"
	"github.com/nmstate/testbox/core/ports"
)

// NormalizeImage expands an image reference to its canonical form,
// "fedora" becoming "docker.io/library/fedora:latest".
func NormalizeImage(image string) (string, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "", fmt.Errorf("parsing image reference %q: %w", image, err)
	}
	return reference.TagNameOnly(named).String(), nil
}

// EnsureImage makes the image available locally according to policy and
// returns the normalized reference.
func EnsureImage(ctx context.Context, images ports.ImageService, image string, policy PullPolicy, platform string, logger Logger) (string, error) {
	ref, err := NormalizeImage(image)
	if err != nil {
		return "", err
	}

	if policy != PullAlways {
		exists, err := images.Exists(ctx, ref)
		if err != nil {
			return "", WrapImageError("inspect", ref, err)
		}
		if exists {
			logger.Debugf("Image %s found locally", ref)
			return ref, nil
		}
		if policy == PullNever {
			return "", WrapImageError("find", ref, fmt.Errorf("%w: %w", ErrImageNotAvailable, &domain.ImageNotFoundError{Image: ref}))
		}
	}

	logger.Noticef("Pulling image %s", ref)
	if err := images.PullAndWait(ctx, domain.PullOptions{Repository: ref, Platform: platform}); err != nil {
		return "", WrapImageError("pull", ref, err)
	}
	logger.Noticef("Image %s pulled", ref)

	return ref, nil
}
