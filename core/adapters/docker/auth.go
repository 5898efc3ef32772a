package docker

import (
	"fmt"

	"github.com/distribution/reference"
	"github.com/docker/cli/cli/config"
	"github.com/docker/cli/cli/config/configfile"
	"github.com/docker/cli/cli/config/types"

	"github.com/nmstate/testbox/core/domain"
)

// dockerHubAuthKey is the key docker login stores Docker Hub credentials under.
const dockerHubAuthKey = "https://index.docker.io/v1/"

// ConfigAuthProvider implements ports.AuthProvider using Docker's config.json.
// The file is read on every call so credential helpers issuing short-lived
// tokens keep working across long test runs.
type ConfigAuthProvider struct {
	// configDir overrides the default Docker config directory
	configDir string
	logger    Logger
}

// Logger is the subset of core.Logger the auth provider writes to.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
}

// NewConfigAuthProvider creates an auth provider reading $DOCKER_CONFIG or ~/.docker.
func NewConfigAuthProvider(logger Logger) *ConfigAuthProvider {
	return &ConfigAuthProvider{logger: logger}
}

// NewConfigAuthProviderWithDir creates an auth provider reading configDir.
func NewConfigAuthProviderWithDir(configDir string, logger Logger) *ConfigAuthProvider {
	return &ConfigAuthProvider{
		configDir: configDir,
		logger:    logger,
	}
}

// GetAuthConfig returns auth configuration for a registry.
// A missing or unreadable config yields empty credentials so public images
// still pull.
func (p *ConfigAuthProvider) GetAuthConfig(registry string) (domain.AuthConfig, error) {
	cfg, err := p.loadConfig()
	if err != nil {
		p.logWarning("Failed to load Docker config: %v", err)
		return domain.AuthConfig{}, nil
	}

	registry = normalizeRegistry(registry)

	// Credential helpers are consulted by GetAuthConfig
	authConfig, err := cfg.GetAuthConfig(registry)
	if err != nil {
		p.logWarning("Failed to get auth for registry %q: %v", registry, err)
		return domain.AuthConfig{}, nil
	}

	if authConfig.Username != "" || authConfig.IdentityToken != "" {
		p.logDebug("Found credentials for registry %q", registry)
	}

	return convertAuthConfig(authConfig), nil
}

// GetEncodedAuth returns base64-encoded auth for a registry, or "" when
// there are no credentials.
func (p *ConfigAuthProvider) GetEncodedAuth(registry string) (string, error) {
	auth, err := p.GetAuthConfig(registry)
	if err != nil {
		return "", err
	}

	if auth.Username == "" && auth.Password == "" && auth.IdentityToken == "" && auth.Auth == "" {
		return "", nil
	}

	return EncodeAuthConfig(auth)
}

func (p *ConfigAuthProvider) loadConfig() (*configfile.ConfigFile, error) {
	dir := p.configDir
	if dir == "" {
		dir = config.Dir()
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading docker config: %w", err)
	}
	return cfg, nil
}

func (p *ConfigAuthProvider) logDebug(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debugf(format, args...)
	}
}

func (p *ConfigAuthProvider) logWarning(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warningf(format, args...)
	}
}

// normalizeRegistry maps Docker Hub aliases onto the key docker login uses.
func normalizeRegistry(registry string) string {
	if registry == "" || registry == "docker.io" || registry == "index.docker.io" {
		return dockerHubAuthKey
	}
	return registry
}

func convertAuthConfig(src types.AuthConfig) domain.AuthConfig {
	return domain.AuthConfig{
		Username:      src.Username,
		Password:      src.Password,
		Auth:          src.Auth,
		ServerAddress: src.ServerAddress,
		IdentityToken: src.IdentityToken,
		RegistryToken: src.RegistryToken,
	}
}

// ExtractRegistry extracts the registry hostname from an image reference.
// Unparseable references fall back to Docker Hub.
func ExtractRegistry(image string) string {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "docker.io"
	}
	return reference.Domain(named)
}
