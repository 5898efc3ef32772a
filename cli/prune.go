package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"

	"github.com/nmstate/testbox/core"
	"github.com/nmstate/testbox/core/domain"
)

// PruneCommand removes containers and networks left behind by sessions that
// could not release them.
type PruneCommand struct {
	Force    bool   `long:"force" short:"f" description:"Remove without asking for confirmation"`
	LogLevel string `long:"log-level" env:"TESTBOX_LOG_LEVEL" description:"Set log level"`
	Logger   core.Logger

	newClient ClientFactory
	confirm   func(label string) (bool, error)
}

// Execute finds the leftovers and removes them
func (c *PruneCommand) Execute(_ []string) error {
	if err := ApplyLogLevel(c.LogLevel); err != nil {
		c.Logger.Warningf("Failed to apply log level (using default): %v", err)
	}

	client, err := c.newClient.orDefault()(c.Logger)
	if err != nil {
		return c.fail(err)
	}
	defer client.Close()

	ctx, stop := core.NotifyInterrupt(context.Background(), c.Logger)
	defer stop()

	leftovers, err := FindLeftovers(ctx, client)
	if err != nil {
		return c.fail(err)
	}
	if leftovers.Empty() {
		c.Logger.Noticef("Nothing to prune")
		return nil
	}

	c.Logger.Noticef("Found %d leftover resource(s):", leftovers.Count())
	for _, line := range leftovers.Describe() {
		c.Logger.Noticef("  %s", line)
	}

	if !c.Force {
		confirm := c.confirm
		if confirm == nil {
			confirm = promptConfirm
		}
		ok, err := confirm(fmt.Sprintf("Remove %d container(s) and %d network(s)", len(leftovers.Containers), len(leftovers.Networks)))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPruneAborted, err)
		}
		if !ok {
			return ErrPruneAborted
		}
	}

	progress := NewProgressIndicator(c.Logger, os.Stderr, "Removing leftovers")
	progress.Start()

	var errs []error
	removed := 0
	for _, ctr := range leftovers.Containers {
		name := containerName(ctr)
		progress.Update("Removing container " + name)
		err := client.Containers().Remove(ctx, ctr.ID, domain.RemoveOptions{RemoveVolumes: true, Force: true})
		if err != nil && !domain.IsNotFound(err) {
			errs = append(errs, core.WrapContainerError("remove", name, err))
			continue
		}
		removed++
	}
	// Networks go last: a network with an attached container cannot be removed
	for _, n := range leftovers.Networks {
		progress.Update("Removing network " + n.Name)
		err := client.Networks().Remove(ctx, n.ID)
		if err != nil && !domain.IsNotFound(err) {
			errs = append(errs, core.WrapNetworkError("remove", n.Name, err))
			continue
		}
		removed++
	}

	if len(errs) > 0 {
		progress.Stop(false, fmt.Sprintf("Removed %d of %d resource(s)", removed, leftovers.Count()))
		return c.fail(errors.Join(errs...))
	}
	progress.Stop(true, fmt.Sprintf("Removed %d resource(s)", removed))
	return nil
}

// fail logs err and wraps it with its exit status.
func (c *PruneCommand) fail(err error) error {
	c.Logger.Errorf("%v", err)
	return &ExitError{Code: core.ExitStatus(err), Err: err}
}

func promptConfirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Default:   "n",
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err //nolint:wrapcheck // promptui errors are user interaction failures, not internal errors
	}
	return true, nil
}
