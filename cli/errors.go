package cli

import (
	"errors"
	"fmt"
)

// Command errors
var (
	ErrHealthCheckFailed = errors.New("health check failed")
	ErrPruneAborted      = errors.New("prune aborted")
	ErrInvalidLogLevel   = errors.New("invalid log level")
)

// ExitError carries the process exit status out of a command. main turns it
// into os.Exit(Code).
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("exit status %d: %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status for err: the code of an ExitError,
// 0 for nil and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if exit, ok := errors.AsType[*ExitError](err); ok {
		return exit.Code
	}
	return 1
}
