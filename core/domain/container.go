// Package domain contains SDK-agnostic domain models for Docker operations.
// These types are designed to be independent of any specific Docker client implementation.
package domain

import "time"

// Container represents a Docker container.
type Container struct {
	ID      string
	Name    string
	Image   string
	State   ContainerState
	Created time.Time
	Labels  map[string]string
	Mounts  []Mount
	Config  *ContainerConfig
}

// ContainerState represents the state of a container.
type ContainerState struct {
	Status     string // "created", "running", "exited", ...
	Running    bool
	Paused     bool
	Restarting bool
	OOMKilled  bool
	Dead       bool
	Pid        int
	ExitCode   int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// ContainerConfig represents the configuration for creating a container.
type ContainerConfig struct {
	Image      string
	Cmd        []string
	Entrypoint []string
	Env        []string
	WorkingDir string
	User       string
	Labels     map[string]string
	Hostname   string
	Tty        bool

	// Host configuration
	HostConfig *HostConfig

	// Networking configuration
	NetworkConfig *NetworkConfig

	// Container name (optional)
	Name string

	// Platform in "os[/arch[/variant]]" form, empty lets the daemon choose
	Platform string
}

// HostConfig contains the host-specific configuration for a container.
type HostConfig struct {
	Binds  []string // Volume bindings in format "host:container[:options]"
	Mounts []Mount

	NetworkMode string
	DNS         []string
	ExtraHosts  []string

	Privileged  bool
	CapAdd      []string
	CapDrop     []string
	SecurityOpt []string
	CgroupnsMode string // "host" or "private"

	AutoRemove bool
	Tmpfs      map[string]string
	ShmSize    int64
}

// Mount represents a mount configuration.
type Mount struct {
	Type        MountType
	Source      string
	Target      string
	ReadOnly    bool
	BindOptions *BindOptions
}

// MountType represents the type of mount.
type MountType string

const (
	MountTypeBind   MountType = "bind"
	MountTypeVolume MountType = "volume"
	MountTypeTmpfs  MountType = "tmpfs"
)

// BindOptions represents options for bind mounts.
type BindOptions struct {
	Propagation string // "private", "rprivate", "shared", "rshared", "slave", "rslave"
}

// NetworkConfig contains networking configuration for a container.
type NetworkConfig struct {
	EndpointsConfig map[string]*EndpointSettings
}

// EndpointSettings represents the settings for a network endpoint.
type EndpointSettings struct {
	Aliases     []string
	NetworkID   string
	EndpointID  string
	Gateway     string
	IPAddress   string
	IPPrefixLen int
	MacAddress  string
	DriverOpts  map[string]string
}

// ListOptions represents options for listing containers.
type ListOptions struct {
	All     bool                // Show all containers (default shows just running)
	Filters map[string][]string // Filters to apply
}

// RemoveOptions represents options for removing a container.
type RemoveOptions struct {
	RemoveVolumes bool // Remove associated volumes
	Force         bool // Force removal of running container
}
