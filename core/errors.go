package core

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Process exit statuses, following the docker CLI and coreutils timeout(1).
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitTimeout     = 124
	ExitEngine      = 125
	ExitInterrupted = 130
)

// Common errors used across the package
var (
	// Plan errors
	ErrInvalidPlan  = errors.New("invalid plan")
	ErrEmptyCommand = errors.New("command cannot be empty")

	// Container errors
	ErrContainerNotReady  = errors.New("container did not become ready")
	ErrContainerExited    = errors.New("container exited during startup")
	ErrNoContainer        = errors.New("no container acquired")
	ErrImageNotAvailable  = errors.New("image not available locally and pull policy is never")
	ErrProjectDirNotFound = errors.New("project directory not found")
	ErrNotAProject        = errors.New("project directory has none of the project markers")

	// Step errors
	ErrStepTimeout = errors.New("step timed out")
	ErrPurgeFailed = errors.New("purge failed")

	// Teardown errors
	ErrTeardownTimeout = errors.New("teardown timed out")
)

// EngineError marks a failure reported by the container engine.
// It maps to exit status 125, as the docker CLI does.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// WrapContainerError wraps a container-related engine error with context
func WrapContainerError(op string, containerID string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Op: fmt.Sprintf("%s container %q", op, containerID), Err: err}
}

// WrapImageError wraps an image-related engine error with context
func WrapImageError(op string, image string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Op: fmt.Sprintf("%s image %q", op, image), Err: err}
}

// WrapNetworkError wraps a network-related engine error with context
func WrapNetworkError(op string, network string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Op: fmt.Sprintf("%s network %q", op, network), Err: err}
}

// WrapStepError wraps a step failure with the step name
func WrapStepError(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("step %q: %w", step, err)
}

// NonZeroExitError represents a command exit with non-zero code
type NonZeroExitError struct {
	ExitCode int
}

func (e NonZeroExitError) Error() string {
	return fmt.Sprintf("non-zero exit code: %d", e.ExitCode)
}

// IsNonZeroExitError checks if the error is a non-zero exit code error
func IsNonZeroExitError(err error) bool {
	_, ok := errors.AsType[NonZeroExitError](err)
	return ok
}

// InterruptError is the cancellation cause recorded when a signal stops the run.
type InterruptError struct {
	Signal os.Signal
}

func (e *InterruptError) Error() string {
	if e.Signal == nil {
		return "interrupted"
	}
	return fmt.Sprintf("interrupted by %s", e.Signal)
}

// ExitStatus maps an error returned by Controller.Run to a process exit status.
func ExitStatus(err error) int {
	if err == nil {
		return ExitOK
	}
	if _, ok := errors.AsType[*InterruptError](err); ok {
		return ExitInterrupted
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	if exit, ok := errors.AsType[NonZeroExitError](err); ok {
		return exit.ExitCode
	}
	if errors.Is(err, ErrStepTimeout) {
		return ExitTimeout
	}
	if _, ok := errors.AsType[*EngineError](err); ok {
		return ExitEngine
	}
	return ExitFailure
}
