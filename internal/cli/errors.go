package cli

import (
	"errors"
	"fmt"
)

// Sentinel errors for exit code classification
var (
	// ErrUsage indicates invalid command usage, flags, or arguments
	ErrUsage = errors.New("usage error")

	// ErrConfig indicates invalid configuration
	ErrConfig = errors.New("configuration error")

	// ErrRuntime indicates runtime execution failures
	ErrRuntime = errors.New("runtime error")

	// ErrInternal indicates internal system errors
	ErrInternal = errors.New("internal error")
)

// ExitError carries the executed command's own exit status out through
// cobra so main can propagate it as the process exit code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// ExitCode translates an error returned by Execute into a process exit
// code: the wrapped command status for ExitError, 1 for everything else,
// 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
