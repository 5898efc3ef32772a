package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/nmstate/testbox/core"
	"github.com/nmstate/testbox/core/domain"
	"github.com/nmstate/testbox/core/ports"
)

// Leftovers are resources labelled as managed by testbox that outlived their
// session, typically after the process was killed.
type Leftovers struct {
	Containers []domain.Container
	Networks   []domain.Network
}

// Empty reports whether nothing was left behind.
func (l Leftovers) Empty() bool {
	return len(l.Containers) == 0 && len(l.Networks) == 0
}

// Count returns the number of leftover resources.
func (l Leftovers) Count() int {
	return len(l.Containers) + len(l.Networks)
}

// Describe returns one line per leftover resource.
func (l Leftovers) Describe() []string {
	lines := make([]string, 0, l.Count())
	for _, c := range l.Containers {
		lines = append(lines, fmt.Sprintf("container %s (%s, %s)", containerName(c), shortID(c.ID), c.State.Status))
	}
	for _, n := range l.Networks {
		lines = append(lines, fmt.Sprintf("network %s (%s)", n.Name, shortID(n.ID)))
	}
	return lines
}

// FindLeftovers lists the containers, running or not, and networks carrying
// the testbox managed-by label.
func FindLeftovers(ctx context.Context, client ports.DockerClient) (Leftovers, error) {
	filter := map[string][]string{
		"label": {core.LabelManagedBy + "=" + core.ManagedByTestbox},
	}

	containers, err := client.Containers().List(ctx, domain.ListOptions{All: true, Filters: filter})
	if err != nil {
		return Leftovers{}, &core.EngineError{Op: "list containers", Err: err}
	}
	networks, err := client.Networks().List(ctx, domain.NetworkListOptions{Filters: filter})
	if err != nil {
		return Leftovers{}, &core.EngineError{Op: "list networks", Err: err}
	}
	return Leftovers{Containers: containers, Networks: networks}, nil
}

func containerName(c domain.Container) string {
	if c.Name == "" {
		return shortID(c.ID)
	}
	return strings.TrimPrefix(c.Name, "/")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
