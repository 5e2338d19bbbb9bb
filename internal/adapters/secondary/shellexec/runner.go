// Package shellexec runs command lines through the host shell.
package shellexec

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/modrun/modrun/internal/core/domain"
	"github.com/modrun/modrun/internal/core/ports"
)

// Runner executes a command via `<shell> -c <command>`. The child inherits
// this process's environment and streams directly to the configured writers,
// so the command behaves exactly as it would typed into a terminal. No
// sandboxing or escaping is applied; the caller is trusted.
type Runner struct {
	shell  string
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell overrides the shell binary (default "sh").
func WithShell(shell string) Option {
	return func(r *Runner) {
		if shell != "" {
			r.shell = shell
		}
	}
}

// WithOutput redirects the command's stdout and stderr, used by tests to
// capture output instead of inheriting the process streams.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// New creates a shell runner.
func New(logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		shell:  "sh",
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the command and blocks until it exits or ctx is cancelled.
// A non-zero child exit status is reported in the result, not as an error;
// an error means the command never ran (e.g. the shell is missing).
func (r *Runner) Run(ctx context.Context, command domain.CommandLine) (ports.ExecResult, error) {
	if command.IsEmpty() {
		return ports.ExecResult{}, fmt.Errorf("command is empty")
	}

	cmd := exec.Command(r.shell, "-c", command.String())
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	cmd.Stdin = os.Stdin

	// Own process group so cancellation can kill the whole tree, not just
	// the shell.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return ports.ExecResult{}, fmt.Errorf("starting command: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			// Negative PID targets the process group.
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return ports.ExecResult{}, fmt.Errorf("execution cancelled: %w", ctx.Err())
	case waitErr = <-done:
	}

	exitCode := 0
	if waitErr != nil {
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			return ports.ExecResult{}, fmt.Errorf("waiting for command: %w", waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	duration := time.Since(start)
	r.logger.Debug("command finished", "exit_code", exitCode, "duration", duration)

	return ports.ExecResult{ExitCode: exitCode, Duration: duration}, nil
}
