package docker

import (
	"fmt"
	"strings"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	containertypes "github.com/docker/docker/api/types/container"
	networktypes "github.com/docker/docker/api/types/network"

	"github.com/nmstate/testbox/core/domain"
)

// convertError converts Docker SDK errors to domain errors.
// The daemon message is kept so failures stay diagnosable.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case cerrdefs.IsNotFound(err):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, err)
	case cerrdefs.IsConflict(err):
		return fmt.Errorf("%w: %s", domain.ErrConflict, err)
	case cerrdefs.IsUnauthorized(err):
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, err)
	case cerrdefs.IsPermissionDenied(err):
		return fmt.Errorf("%w: %s", domain.ErrForbidden, err)
	case cerrdefs.IsDeadlineExceeded(err):
		return fmt.Errorf("%w: %s", domain.ErrTimeout, err)
	case cerrdefs.IsCanceled(err):
		return fmt.Errorf("%w: %s", domain.ErrCancelled, err)
	case cerrdefs.IsUnavailable(err):
		return fmt.Errorf("%w: %s", domain.ErrConnectionFailed, err)
	}

	return err
}

// convertFromContainerJSON converts SDK InspectResponse to domain Container.
func convertFromContainerJSON(c *containertypes.InspectResponse) *domain.Container {
	if c == nil {
		return nil
	}

	container := &domain.Container{
		ID:      c.ID,
		Name:    strings.TrimPrefix(c.Name, "/"),
		Image:   c.Image,
		Created: parseTime(c.Created),
	}

	if c.State != nil {
		container.State = domain.ContainerState{
			Status:     string(c.State.Status),
			Running:    c.State.Running,
			Paused:     c.State.Paused,
			Restarting: c.State.Restarting,
			OOMKilled:  c.State.OOMKilled,
			Dead:       c.State.Dead,
			Pid:        c.State.Pid,
			ExitCode:   c.State.ExitCode,
			Error:      c.State.Error,
			StartedAt:  parseTime(c.State.StartedAt),
			FinishedAt: parseTime(c.State.FinishedAt),
		}
	}

	if c.Config != nil {
		container.Labels = c.Config.Labels
		container.Config = &domain.ContainerConfig{
			Image:      c.Config.Image,
			Cmd:        c.Config.Cmd,
			Entrypoint: c.Config.Entrypoint,
			Env:        c.Config.Env,
			WorkingDir: c.Config.WorkingDir,
			User:       c.Config.User,
			Labels:     c.Config.Labels,
			Hostname:   c.Config.Hostname,
			Tty:        c.Config.Tty,
		}
	}

	for _, m := range c.Mounts {
		container.Mounts = append(container.Mounts, domain.Mount{
			Type:     domain.MountType(m.Type),
			Source:   m.Source,
			Target:   m.Destination,
			ReadOnly: !m.RW,
		})
	}

	return container
}

// convertFromAPIContainer converts SDK Container (list result) to domain Container.
func convertFromAPIContainer(c *containertypes.Summary) domain.Container {
	var name string
	if len(c.Names) > 0 {
		// Docker API returns container names with leading slash (e.g., "/my-container").
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return domain.Container{
		ID:      c.ID,
		Name:    name,
		Image:   c.Image,
		Created: time.Unix(c.Created, 0),
		Labels:  c.Labels,
		State: domain.ContainerState{
			Status:  string(c.State),
			Running: c.State == "running",
		},
	}
}

// convertFromNetwork converts an SDK network (list or inspect result) to domain Network.
func convertFromNetwork(n *networktypes.Inspect) domain.Network {
	network := domain.Network{
		Name:       n.Name,
		ID:         n.ID,
		Created:    n.Created,
		Scope:      n.Scope,
		Driver:     n.Driver,
		EnableIPv6: n.EnableIPv6,
		Internal:   n.Internal,
		Attachable: n.Attachable,
		Options:    n.Options,
		Labels:     n.Labels,
	}

	if n.IPAM.Driver != "" || len(n.IPAM.Config) > 0 {
		network.IPAM = domain.IPAM{
			Driver:  n.IPAM.Driver,
			Options: n.IPAM.Options,
		}
		for _, cfg := range n.IPAM.Config {
			network.IPAM.Config = append(network.IPAM.Config, domain.IPAMConfig{
				Subnet:     cfg.Subnet,
				IPRange:    cfg.IPRange,
				Gateway:    cfg.Gateway,
				AuxAddress: cfg.AuxAddress,
			})
		}
	}

	if len(n.Containers) > 0 {
		network.Containers = make(map[string]domain.EndpointResource, len(n.Containers))
		for id, ep := range n.Containers {
			network.Containers[id] = domain.EndpointResource{
				Name:        ep.Name,
				EndpointID:  ep.EndpointID,
				MacAddress:  ep.MacAddress,
				IPv4Address: ep.IPv4Address,
				IPv6Address: ep.IPv6Address,
			}
		}
	}

	return network
}

// parseTime parses a Docker timestamp string.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
