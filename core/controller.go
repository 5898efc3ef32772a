package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/nmstate/testbox/core/domain"
	"github.com/nmstate/testbox/core/ports"
)

const (
	readinessInterval = 250 * time.Millisecond
	stopGracePeriod   = 10 * time.Second
)

// Controller acquires the container and networks of a session, runs the
// plan steps in order and releases everything it acquired on every path.
type Controller struct {
	client  ports.DockerClient
	logger  Logger
	clock   Clock
	buffers *BufferPool

	stdout io.Writer
	stderr io.Writer

	isTerminal func() bool
	purge      func(root string) (PurgeResult, error)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithOutput sets where step output streams to.
func WithOutput(stdout, stderr io.Writer) ControllerOption {
	return func(c *Controller) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithClock replaces the clock used to time steps.
func WithClock(clock Clock) ControllerOption {
	return func(c *Controller) { c.clock = clock }
}

// WithTerminalCheck replaces the stdout terminal test used by TTYAuto.
func WithTerminalCheck(isTerminal func() bool) ControllerOption {
	return func(c *Controller) { c.isTerminal = isTerminal }
}

// WithBufferPool sets the pool the per-step output tails come from.
func WithBufferPool(pool *BufferPool) ControllerOption {
	return func(c *Controller) { c.buffers = pool }
}

// NewController creates a controller talking to client.
func NewController(client ports.DockerClient, logger Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		client:  client,
		logger:  logger,
		clock:   GetDefaultClock(),
		buffers: DefaultBufferPool,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
		purge: Purge,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run carries out plan. The returned session is never nil; its ExitStatus is
// the process exit status and the error is the failure that ended the run.
// Teardown errors are recorded on the session and never replace that error.
func (c *Controller) Run(ctx context.Context, plan *Plan) (*Session, error) {
	session := &Session{StartedAt: c.clock.Now()}

	id, err := randomID()
	if err != nil {
		return c.finish(ctx, session, nil, err)
	}
	session.ID = id

	plan.Defaults()
	if err := plan.Validate(); err != nil {
		return c.finish(ctx, session, nil, err)
	}

	session.TTY = c.attachTTY(plan.TTY)
	teardown := NewTeardown(c.logger, plan.CleanupTimeout)

	err = c.run(ctx, plan, session, teardown)
	return c.finish(ctx, session, teardown, err)
}

func (c *Controller) finish(ctx context.Context, session *Session, teardown *Teardown, err error) (*Session, error) {
	err = c.classify(ctx, err)
	session.Err = err
	session.ExitStatus = ExitStatus(err)

	if session.ExitStatus != ExitOK {
		c.logger.Errorf("*** ERROR: %d", session.ExitStatus)
		if err != nil {
			c.logger.Errorf("%v", err)
		}
	}

	if teardown != nil {
		session.CleanupErrors = teardown.Run(ctx)
	}
	session.FinishedAt = c.clock.Now()
	return session, err
}

// classify records an interrupt as the cause of any failure that follows it.
func (c *Controller) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil {
		if _, ok := errors.AsType[*InterruptError](cause); ok {
			if _, already := errors.AsType[*InterruptError](err); !already {
				return fmt.Errorf("%w: %w", cause, err)
			}
		}
	}
	return err
}

func (c *Controller) attachTTY(mode TTYMode) bool {
	switch mode {
	case TTYAlways:
		return true
	case TTYNever:
		return false
	default:
		return c.isTerminal()
	}
}

func (c *Controller) run(ctx context.Context, plan *Plan, session *Session, teardown *Teardown) error {
	image, err := EnsureImage(ctx, c.client.Images(), plan.Container.Image, plan.Pull, plan.Container.Platform, c.logger)
	if err != nil {
		return err
	}
	session.Image = image

	if err := c.acquireContainer(ctx, plan, session, teardown); err != nil {
		return err
	}

	if len(plan.Networks) > 0 && !plan.HasNetworksStep() {
		if err := c.acquireNetworks(ctx, plan, session, teardown); err != nil {
			return err
		}
	}

	for _, step := range plan.Steps {
		if cause := context.Cause(ctx); cause != nil {
			return cause
		}

		result := c.runStep(ctx, plan, session, teardown, step)
		session.Steps = append(session.Steps, result)
		if result.Err == nil {
			continue
		}

		if !step.Fatal() && ctx.Err() == nil {
			c.logger.Warningf("Step %s failed, continuing: %v", step.Name, result.Err)
			continue
		}
		return result.Err
	}

	return nil
}

func (c *Controller) acquireContainer(ctx context.Context, plan *Plan, session *Session, teardown *Teardown) error {
	spec := plan.Container
	name := spec.Name
	if name == "" {
		name = "testbox-" + session.ID
	}

	mounts := make([]domain.Mount, 0, len(spec.Mounts)+1)
	for _, m := range spec.Mounts {
		mounts = append(mounts, domain.Mount{
			Type:     domain.MountTypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}
	mounts = append(mounts, domain.Mount{
		Type:   domain.MountTypeBind,
		Source: plan.ProjectDir,
		Target: spec.Workspace,
	})

	config := &domain.ContainerConfig{
		Image:      session.Image,
		Name:       name,
		Labels:     session.Labels(spec.Labels),
		WorkingDir: spec.Workspace,
		Platform:   spec.Platform,
		HostConfig: &domain.HostConfig{
			Privileged:   spec.Privileged,
			CgroupnsMode: spec.CgroupNS,
			Mounts:       mounts,
		},
	}

	c.logger.Noticef("Creating container %s from %s", name, session.Image)
	// The daemon may finish a create whose request was cancelled, and the
	// teardown can only release a container whose id it knows.
	id, err := c.client.Containers().Create(context.WithoutCancel(ctx), config)
	if err != nil {
		return WrapContainerError("create", name, err)
	}
	session.ContainerID = id
	session.ContainerName = name

	teardown.Register(TeardownHook{
		Name:     "container " + name,
		Priority: PriorityContainer,
		Hook: func(ctx context.Context) error {
			return c.releaseContainer(ctx, id, name)
		},
	})

	if err := c.client.Containers().Start(ctx, id); err != nil {
		return WrapContainerError("start", name, err)
	}

	startCtx, cancel := context.WithTimeout(ctx, plan.StartTimeout)
	defer cancel()
	if err := c.waitRunning(startCtx, id); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return cause
		}
		return WrapContainerError("start", name, err)
	}

	c.logger.Noticef("Container %s is running", name)
	return nil
}

// waitRunning polls the container state until it reports running.
func (c *Controller) waitRunning(ctx context.Context, id string) error {
	limiter := rate.NewLimiter(rate.Every(readinessInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrContainerNotReady, err)
		}

		info, err := c.client.Containers().Inspect(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrContainerNotReady, ctx.Err())
			}
			return err
		}
		if info.State.Running {
			return nil
		}
		if info.State.Dead || info.State.Status == "exited" {
			return fmt.Errorf("%w with code %d: %s", ErrContainerExited, info.State.ExitCode, info.State.Error)
		}
	}
}

func (c *Controller) releaseContainer(ctx context.Context, id, name string) error {
	c.logger.Noticef("Removing container %s", name)

	grace := stopGracePeriod
	stopErr := c.client.Containers().Stop(ctx, id, &grace)
	if stopErr != nil && !domain.IsNotFound(stopErr) {
		c.logger.Warningf("Stopping container %s failed, forcing removal: %v", name, stopErr)
	}

	err := c.client.Containers().Remove(ctx, id, domain.RemoveOptions{RemoveVolumes: true, Force: true})
	if err != nil && !domain.IsNotFound(err) {
		return WrapContainerError("remove", name, err)
	}
	return nil
}

func (c *Controller) acquireNetworks(ctx context.Context, plan *Plan, session *Session, teardown *Teardown) error {
	if session.ContainerID == "" {
		return ErrNoContainer
	}
	networks := c.client.Networks()

	for i, spec := range plan.Networks {
		handle := NetworkHandle{Name: spec.Name, Interface: spec.Interface}

		id, err := networks.Create(context.WithoutCancel(ctx), spec.Name, ports.NetworkCreateOptions{
			Driver: spec.Driver,
			Labels: session.Labels(nil),
		})
		switch {
		case err == nil:
			handle.ID = id
			c.logger.Noticef("Created network %s", spec.Name)
		case domain.IsConflict(err):
			handle.ID = spec.Name
			handle.Reused = true
			if info, inspectErr := networks.Inspect(ctx, spec.Name); inspectErr == nil {
				handle.ID = info.ID
			}
			c.logger.Noticef("Network %s already exists, reusing it", spec.Name)
		default:
			return WrapNetworkError("create", spec.Name, err)
		}

		session.Networks = append(session.Networks, handle)
		teardown.Register(TeardownHook{
			Name:     "network " + spec.Name,
			Priority: PriorityNetworks + i,
			Hook: func(ctx context.Context) error {
				return c.releaseNetwork(ctx, handle)
			},
		})

		if err := networks.Connect(ctx, handle.ID, session.ContainerID, nil); err != nil {
			return WrapNetworkError("connect", spec.Name, err)
		}
		if spec.Interface != "" {
			c.logger.Debugf("Network %s attached as %s", spec.Name, spec.Interface)
		}
	}

	return nil
}

func (c *Controller) releaseNetwork(ctx context.Context, handle NetworkHandle) error {
	c.logger.Noticef("Removing network %s", handle.Name)
	err := c.client.Networks().Remove(ctx, handle.ID)
	if err != nil && !domain.IsNotFound(err) {
		return WrapNetworkError("remove", handle.Name, err)
	}
	return nil
}

func (c *Controller) runStep(ctx context.Context, plan *Plan, session *Session, teardown *Teardown, step Step) StepResult {
	result := StepResult{Name: step.Name, Kind: step.Kind, Policy: step.Policy}

	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	c.logger.Noticef("Running step %s", step.Name)
	start := c.clock.Now()

	var err error
	switch step.Kind {
	case StepNetworks:
		err = c.acquireNetworks(stepCtx, plan, session, teardown)
	case StepPurge:
		var purged PurgeResult
		purged, err = c.purge(plan.ProjectDir)
		result.Output = fmt.Sprintf("removed %d file(s) and %d __pycache__ dir(s)\n", purged.Files, purged.Dirs)
	default:
		result.ExitCode, result.Output, err = c.execStep(stepCtx, plan, session, step)
	}
	result.Duration = c.clock.Now().Sub(start)

	if err != nil {
		if step.Timeout > 0 && errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %v: %w", ErrStepTimeout, step.Timeout, err)
		}
		result.Err = WrapStepError(step.Name, err)
		if result.ExitCode == 0 {
			result.ExitCode = ExitStatus(c.classify(ctx, result.Err))
		}
		c.logger.Errorf("Step %s failed after %v: %v", step.Name, result.Duration, err)
		return result
	}

	c.logger.Noticef("Step %s finished in %v", step.Name, result.Duration)
	return result
}

func (c *Controller) execStep(ctx context.Context, plan *Plan, session *Session, step Step) (int, string, error) {
	cmd := append(append([]string(nil), plan.Shell...), step.Run)
	if step.AppendArgs && len(plan.ExtraArgs) > 0 {
		// The shell receives the extra args as $1.. so they are never re-split
		cmd[len(cmd)-1] = step.Run + ` "$@"`
		cmd = append(cmd, step.Name)
		cmd = append(cmd, plan.ExtraArgs...)
	}

	workingDir := step.WorkingDir
	if workingDir == "" {
		workingDir = plan.Container.Workspace
	}

	tail := c.buffers.GetSized(plan.OutputTail)
	defer c.buffers.Put(tail)

	c.logger.Debugf("Executing %q in %s", cmd, session.ContainerName)
	code, err := c.client.Exec().Run(ctx, session.ContainerID, &domain.ExecConfig{
		Cmd:          cmd,
		Env:          step.Env,
		WorkingDir:   workingDir,
		AttachStdout: true,
		AttachStderr: true,
		Tty:          session.TTY,
	}, io.MultiWriter(c.stdout, tail), io.MultiWriter(c.stderr, tail))

	output := tail.String()
	if err != nil {
		if ctx.Err() != nil {
			return 0, output, err
		}
		return 0, output, WrapContainerError("exec in", session.ContainerName, err)
	}
	if code != 0 {
		return code, output, NonZeroExitError{ExitCode: code}
	}
	return 0, output, nil
}
