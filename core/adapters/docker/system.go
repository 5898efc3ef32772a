package docker

import (
	"context"

	"github.com/docker/docker/client"

	"github.com/nmstate/testbox/core/domain"
)

// SystemServiceAdapter implements ports.SystemService using Docker SDK.
type SystemServiceAdapter struct {
	client *client.Client
}

// Info returns system information.
func (s *SystemServiceAdapter) Info(ctx context.Context) (*domain.SystemInfo, error) {
	info, err := s.client.Info(ctx)
	if err != nil {
		return nil, convertError(err)
	}

	return &domain.SystemInfo{
		ID:              info.ID,
		Name:            info.Name,
		ServerVersion:   info.ServerVersion,
		OperatingSystem: info.OperatingSystem,
		KernelVersion:   info.KernelVersion,
		CgroupDriver:    info.CgroupDriver,
		CgroupVersion:   info.CgroupVersion,
		Containers:      info.Containers,
		Images:          info.Images,
		Warnings:        info.Warnings,
	}, nil
}

// Ping pings the Docker server.
func (s *SystemServiceAdapter) Ping(ctx context.Context) (*domain.PingResponse, error) {
	ping, err := s.client.Ping(ctx)
	if err != nil {
		return nil, convertError(err)
	}

	return &domain.PingResponse{
		APIVersion:   ping.APIVersion,
		OSType:       ping.OSType,
		Experimental: ping.Experimental,
	}, nil
}

// Version returns version information.
func (s *SystemServiceAdapter) Version(ctx context.Context) (*domain.Version, error) {
	version, err := s.client.ServerVersion(ctx)
	if err != nil {
		return nil, convertError(err)
	}

	return &domain.Version{
		Version:       version.Version,
		APIVersion:    version.APIVersion,
		MinAPIVersion: version.MinAPIVersion,
		GitCommit:     version.GitCommit,
		GoVersion:     version.GoVersion,
		Os:            version.Os,
		Arch:          version.Arch,
		KernelVersion: version.KernelVersion,
	}, nil
}
