package domain

import "time"

// Image represents a Docker image.
type Image struct {
	ID          string
	RepoTags    []string
	RepoDigests []string
	Created     time.Time
	Size        int64
	Os          string
	Arch        string
	Labels      map[string]string
}

// PullOptions represents options for pulling an image.
type PullOptions struct {
	// Repository to pull (e.g., "alpine", "quay.io/nmstate/c9s-nmstate-dev")
	Repository string

	// Tag to pull (if not included in repository)
	Tag string

	// Platform to pull (e.g., "linux/amd64")
	Platform string

	// RegistryAuth is base64 encoded auth config
	RegistryAuth string
}

// AuthConfig contains authorization information for connecting to a registry.
type AuthConfig struct {
	Username      string
	Password      string
	Auth          string // Base64 encoded "username:password"
	Email         string
	ServerAddress string
	IdentityToken string
	RegistryToken string
}
