// Package docker provides an adapter for the official Docker SDK.
package docker

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/client"

	"github.com/nmstate/testbox/core/ports"
)

// Client implements ports.DockerClient using the official Docker SDK.
type Client struct {
	sdk *client.Client

	containers *ContainerServiceAdapter
	exec       *ExecServiceAdapter
	images     *ImageServiceAdapter
	networks   *NetworkServiceAdapter
	system     *SystemServiceAdapter
}

// ClientConfig contains configuration for the Docker client.
type ClientConfig struct {
	// Host is the Docker host address (e.g., "unix:///var/run/docker.sock").
	// Empty means DOCKER_HOST or the platform default.
	Host string

	// Version is the API version (empty for auto-negotiation)
	Version string

	// HTTPHeaders are custom HTTP headers (optional)
	HTTPHeaders map[string]string

	// Auth resolves registry credentials for pulls (optional)
	Auth ports.AuthProvider

	DialTimeout           time.Duration
	ResponseHeaderTimeout time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		DialTimeout: 30 * time.Second,
		// Exec attach and image pulls hold the connection open, so only the
		// header wait is bounded.
		ResponseHeaderTimeout: 120 * time.Second,
	}
}

// NewClient creates a new Docker client from environment variables.
func NewClient() (*Client, error) {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Docker client with custom configuration.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}

	if config.Host != "" {
		opts = append(opts, client.WithHost(config.Host))
	}

	if config.Version != "" {
		opts = append(opts, client.WithVersion(config.Version))
	}

	if config.HTTPHeaders != nil {
		opts = append(opts, client.WithHTTPHeaders(config.HTTPHeaders))
	}

	if httpClient := createHTTPClient(config); httpClient != nil {
		opts = append(opts, client.WithHTTPClient(httpClient))
	}

	sdk, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}

	c := newClientFromSDK(sdk)
	c.images.auth = config.Auth
	return c, nil
}

// newClientFromSDK wraps an existing SDK client.
func newClientFromSDK(sdk *client.Client) *Client {
	c := &Client{sdk: sdk}
	c.containers = &ContainerServiceAdapter{client: sdk}
	c.exec = &ExecServiceAdapter{client: sdk}
	c.images = &ImageServiceAdapter{client: sdk}
	c.networks = &NetworkServiceAdapter{client: sdk}
	c.system = &SystemServiceAdapter{client: sdk}
	return c
}

// createHTTPClient returns a client dialing unix sockets directly, or nil to
// let the SDK build its own transport (TLS, ssh and tcp hosts from the env).
func createHTTPClient(config *ClientConfig) *http.Client {
	host := config.Host
	if host == "" {
		host = os.Getenv(client.EnvOverrideHost)
	}
	if host == "" {
		host = client.DefaultDockerHost
	}
	if !strings.HasPrefix(host, "unix://") {
		return nil
	}

	socketPath := strings.TrimPrefix(host, "unix://")
	transport := &http.Transport{
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		// HTTP/2 not supported on Unix sockets
		ForceAttemptHTTP2: false,
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: config.DialTimeout}
			return dialer.DialContext(ctx, "unix", socketPath)
		},
	}

	return &http.Client{Transport: transport}
}

// Containers returns the container service.
func (c *Client) Containers() ports.ContainerService {
	return c.containers
}

// Exec returns the exec service.
func (c *Client) Exec() ports.ExecService {
	return c.exec
}

// Images returns the image service.
func (c *Client) Images() ports.ImageService {
	return c.images
}

// Networks returns the network service.
func (c *Client) Networks() ports.NetworkService {
	return c.networks
}

// System returns the system service.
func (c *Client) System() ports.SystemService {
	return c.system
}

// Close closes the client.
func (c *Client) Close() error {
	if err := c.sdk.Close(); err != nil {
		return fmt.Errorf("closing docker client: %w", err)
	}
	return nil
}
