package core

import (
	"fmt"
	"path/filepath"
	"time"
)

// PullPolicy decides when the image is pulled before the container is created.
type PullPolicy string

const (
	PullAlways  PullPolicy = "always"
	PullMissing PullPolicy = "missing"
	PullNever   PullPolicy = "never"
)

// TTYMode decides whether exec steps get a pseudo-terminal.
type TTYMode string

const (
	// TTYAuto attaches a TTY when stdout is a terminal.
	TTYAuto   TTYMode = "auto"
	TTYAlways TTYMode = "always"
	TTYNever  TTYMode = "never"
)

// StepKind selects how a step is carried out.
type StepKind string

const (
	// StepExec runs a command through the plan shell inside the container.
	StepExec StepKind = "exec"
	// StepNetworks creates the planned networks and attaches the container.
	StepNetworks StepKind = "networks"
	// StepPurge removes bytecode caches from the project tree on the host.
	StepPurge StepKind = "purge"
)

// StepPolicy decides whether a failing step ends the session.
type StepPolicy string

const (
	PolicyFatal     StepPolicy = "fatal"
	PolicyTolerated StepPolicy = "tolerated"
)

// Managed resource labels, used by prune and doctor to find leftovers.
const (
	LabelManagedBy   = "managed-by"
	LabelSessionID   = "io.testbox.session"
	ManagedByTestbox = "testbox"
)

// Default values applied by Plan.Defaults.
const (
	DefaultStartTimeout   = 30 * time.Second
	DefaultCleanupTimeout = 60 * time.Second
	DefaultNetworkDriver  = "bridge"
)

// DefaultShell is the argv prefix exec steps run through.
var DefaultShell = []string{"/bin/bash", "-c"}

// Mount is a host path bind-mounted into the container.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// ContainerSpec describes the container acquired for a session.
type ContainerSpec struct {
	Image      string
	Name       string
	Privileged bool
	// CgroupNS is the cgroup namespace mode, "host" or "private".
	CgroupNS string
	Mounts   []Mount
	// Workspace is where ProjectDir is mounted inside the container.
	Workspace string
	Labels    map[string]string
	Platform  string
}

// NetworkSpec is one network the container is attached to.
type NetworkSpec struct {
	Name   string
	Driver string
	// Interface is the in-container device the attachment creates.
	Interface string
}

// Step is one entry of the setup and test sequence.
type Step struct {
	Name       string
	Kind       StepKind
	Run        string
	Policy     StepPolicy
	Timeout    time.Duration
	WorkingDir string
	Env        []string
	// AppendArgs passes Plan.ExtraArgs to the command as positional parameters.
	AppendArgs bool
}

// Fatal reports whether a failure of the step ends the session.
func (s Step) Fatal() bool {
	return s.Policy != PolicyTolerated
}

// Plan is everything Controller.Run needs to carry out a session.
type Plan struct {
	Container  ContainerSpec
	ProjectDir string
	Networks   []NetworkSpec
	Steps      []Step
	Shell      []string
	ExtraArgs  []string
	Pull       PullPolicy
	TTY        TTYMode

	StartTimeout   time.Duration
	CleanupTimeout time.Duration
	// OutputTail is the number of output bytes kept per step, zero for the default.
	OutputTail int64
}

// Defaults fills unset fields.
func (p *Plan) Defaults() {
	if len(p.Shell) == 0 {
		p.Shell = append([]string(nil), DefaultShell...)
	}
	if p.Pull == "" {
		p.Pull = PullMissing
	}
	if p.TTY == "" {
		p.TTY = TTYAuto
	}
	if p.StartTimeout <= 0 {
		p.StartTimeout = DefaultStartTimeout
	}
	if p.CleanupTimeout <= 0 {
		p.CleanupTimeout = DefaultCleanupTimeout
	}
	for i := range p.Networks {
		if p.Networks[i].Driver == "" {
			p.Networks[i].Driver = DefaultNetworkDriver
		}
	}
	for i := range p.Steps {
		if p.Steps[i].Kind == "" {
			p.Steps[i].Kind = StepExec
		}
		if p.Steps[i].Policy == "" {
			p.Steps[i].Policy = PolicyFatal
		}
	}
}

// Validate checks the plan invariants Run relies on.
func (p *Plan) Validate() error {
	if p.Container.Image == "" {
		return fmt.Errorf("%w: container image is required", ErrInvalidPlan)
	}
	if p.ProjectDir == "" || !filepath.IsAbs(p.ProjectDir) {
		return fmt.Errorf("%w: project dir %q must be an absolute path", ErrInvalidPlan, p.ProjectDir)
	}
	if p.Container.Workspace == "" || !filepath.IsAbs(p.Container.Workspace) {
		return fmt.Errorf("%w: workspace %q must be an absolute path", ErrInvalidPlan, p.Container.Workspace)
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidPlan)
	}

	switch p.Pull {
	case PullAlways, PullMissing, PullNever:
	default:
		return fmt.Errorf("%w: unknown pull policy %q", ErrInvalidPlan, p.Pull)
	}
	switch p.TTY {
	case TTYAuto, TTYAlways, TTYNever:
	default:
		return fmt.Errorf("%w: unknown tty mode %q", ErrInvalidPlan, p.TTY)
	}

	networks := make(map[string]struct{}, len(p.Networks))
	for _, n := range p.Networks {
		if n.Name == "" {
			return fmt.Errorf("%w: network without a name", ErrInvalidPlan)
		}
		if _, dup := networks[n.Name]; dup {
			return fmt.Errorf("%w: duplicate network %q", ErrInvalidPlan, n.Name)
		}
		networks[n.Name] = struct{}{}
	}

	steps := make(map[string]struct{}, len(p.Steps))
	networkSteps := 0
	for _, s := range p.Steps {
		if s.Name == "" {
			return fmt.Errorf("%w: step without a name", ErrInvalidPlan)
		}
		if _, dup := steps[s.Name]; dup {
			return fmt.Errorf("%w: duplicate step %q", ErrInvalidPlan, s.Name)
		}
		steps[s.Name] = struct{}{}

		switch s.Kind {
		case StepExec:
			if s.Run == "" {
				return fmt.Errorf("%w: step %q: %w", ErrInvalidPlan, s.Name, ErrEmptyCommand)
			}
			if len(p.Shell) == 0 {
				return fmt.Errorf("%w: step %q needs a shell", ErrInvalidPlan, s.Name)
			}
		case StepNetworks:
			networkSteps++
		case StepPurge:
		default:
			return fmt.Errorf("%w: step %q: unknown kind %q", ErrInvalidPlan, s.Name, s.Kind)
		}

		switch s.Policy {
		case PolicyFatal, PolicyTolerated:
		default:
			return fmt.Errorf("%w: step %q: unknown policy %q", ErrInvalidPlan, s.Name, s.Policy)
		}
		if s.Timeout < 0 {
			return fmt.Errorf("%w: step %q: negative timeout", ErrInvalidPlan, s.Name)
		}
	}
	if networkSteps > 1 {
		return fmt.Errorf("%w: more than one networks step", ErrInvalidPlan)
	}

	return nil
}

// HasNetworksStep reports whether network acquisition is an explicit step.
func (p *Plan) HasNetworksStep() bool {
	for _, s := range p.Steps {
		if s.Kind == StepNetworks {
			return true
		}
	}
	return false
}
