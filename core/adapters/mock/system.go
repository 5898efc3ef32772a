package mock

import (
	"context"
	"sync"

	"github.com/nmstate/testbox/core/domain"
)

// SystemService is a mock implementation of ports.SystemService.
type SystemService struct {
	mu sync.RWMutex

	// Callbacks for customizing behavior
	OnInfo    func(ctx context.Context) (*domain.SystemInfo, error)
	OnPing    func(ctx context.Context) (*domain.PingResponse, error)
	OnVersion func(ctx context.Context) (*domain.Version, error)

	// Call tracking
	InfoCalls    int
	PingCalls    int
	VersionCalls int

	// Simulated data
	InfoResult    *domain.SystemInfo
	PingResult    *domain.PingResponse
	VersionResult *domain.Version

	// Errors
	InfoErr    error
	PingErr    error
	VersionErr error
}

// NewSystemService creates a new mock SystemService.
func NewSystemService() *SystemService {
	return &SystemService{
		InfoResult: &domain.SystemInfo{
			ID:              "mock-docker-id",
			Name:            "mock-docker",
			ServerVersion:   "27.0.0",
			OperatingSystem: "Fedora Linux",
			CgroupDriver:    "systemd",
			CgroupVersion:   "2",
		},
		PingResult: &domain.PingResponse{
			APIVersion: "1.47",
			OSType:     "linux",
		},
		VersionResult: &domain.Version{
			Version:    "27.0.0",
			APIVersion: "1.47",
			Os:         "linux",
			Arch:       "amd64",
		},
	}
}

// Info returns system information.
func (s *SystemService) Info(ctx context.Context) (*domain.SystemInfo, error) {
	s.mu.Lock()
	s.InfoCalls++
	info := s.InfoResult
	err := s.InfoErr
	s.mu.Unlock()

	if s.OnInfo != nil {
		return s.OnInfo(ctx)
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Ping pings the Docker server.
func (s *SystemService) Ping(ctx context.Context) (*domain.PingResponse, error) {
	s.mu.Lock()
	s.PingCalls++
	ping := s.PingResult
	err := s.PingErr
	s.mu.Unlock()

	if s.OnPing != nil {
		return s.OnPing(ctx)
	}
	if err != nil {
		return nil, err
	}
	return ping, nil
}

// Version returns version information.
func (s *SystemService) Version(ctx context.Context) (*domain.Version, error) {
	s.mu.Lock()
	s.VersionCalls++
	version := s.VersionResult
	err := s.VersionErr
	s.mu.Unlock()

	if s.OnVersion != nil {
		return s.OnVersion(ctx)
	}
	if err != nil {
		return nil, err
	}
	return version, nil
}

// SetPingError makes Ping() fail with err.
func (s *SystemService) SetPingError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PingErr = err
}
