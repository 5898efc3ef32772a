// Package ports defines the port interfaces for Docker operations.
// These interfaces abstract the Docker client implementation so the
// session controller can be exercised against a mock.
package ports

// DockerClient is the main interface for Docker operations.
// It provides access to specialized service interfaces for different
// Docker resource types.
type DockerClient interface {
	// Containers returns the container service interface.
	Containers() ContainerService

	// Exec returns the exec service interface.
	Exec() ExecService

	// Images returns the image service interface.
	Images() ImageService

	// Networks returns the network service interface.
	Networks() NetworkService

	// System returns the system service interface.
	System() SystemService

	// Close closes the client and releases resources.
	Close() error
}
