package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/modrun/modrun/internal/adapters/secondary/checkpoint"
	"github.com/modrun/modrun/internal/adapters/secondary/fsscan"
	"github.com/modrun/modrun/internal/adapters/secondary/shellexec"
	"github.com/modrun/modrun/internal/adapters/secondary/sysclock"
	"github.com/modrun/modrun/internal/config"
	"github.com/modrun/modrun/internal/core/domain"
	"github.com/modrun/modrun/internal/core/services"
)

// newRunCmd builds the run subcommand. The root dispatches a first
// positional that matches a subcommand name to that subcommand, so run is
// the form that keeps any command string literal.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   `run "<command>" <watch-path>`,
		Short: "Execute the command when the watched directory changed",
		Long: `Execute the command when the watched directory changed.

Unlike the bare root form, the command string is always treated as a shell
command here, even when it matches a subcommand name like reset.`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := parseArgs(args)
			return err
		},
		RunE: runGuarded,
	}
	return runCmd
}

// runGuarded is the guarded-run RunE shared by the root and the run
// subcommand: resolve the command/watch pair, assemble the
// guard from its adapters, run once, and translate a failed command into an
// ExitError carrying the child's status.
func runGuarded(cmd *cobra.Command, args []string) error {
	profile, _ := cmd.Flags().GetString("profile")
	configPath, _ := cmd.Flags().GetString("config")
	quiet, _ := cmd.Flags().GetBool("quiet")

	// Positional arguments are validated before any filesystem access.
	var command domain.CommandLine
	var target domain.WatchTarget
	if profile == "" {
		var err error
		command, target, err = parseArgs(args)
		if err != nil {
			return err
		}
	} else if len(args) != 0 {
		return fmt.Errorf("%w: --profile cannot be combined with positional arguments", ErrUsage)
	} else if configPath == "" {
		return fmt.Errorf("%w: --profile requires --config", ErrUsage)
	}

	settings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}

	if profile != "" {
		p, ok := settings.Profiles[profile]
		if !ok {
			return fmt.Errorf("%w: unknown profile %q", ErrUsage, profile)
		}
		command, target = p.Command, p.Watch
	}

	logger := newLogger(cmd.ErrOrStderr(), settings.LogLevel)
	reporter := newConsoleReporter(cmd.OutOrStdout(), quiet, settings.NoColor)

	store, err := checkpoint.NewStore(settings.StateDir, logger)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRuntime, err)
	}
	locker, err := checkpoint.NewFileLocker(store, settings.LockWait, settings.LockStaleAfter, logger)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	runner := shellexec.New(logger, shellexec.WithShell(settings.Shell))

	guard, err := services.NewGuard(
		sysclock.New(),
		fsscan.New(logger),
		store,
		locker,
		runner,
		reporter,
		logger,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
	}

	outcome, err := guard.Run(ctx, command, target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	if outcome.Ran() && outcome.ExitCode != 0 {
		return &ExitError{Code: outcome.ExitCode}
	}
	return nil
}

// parseArgs validates the two positional arguments.
func parseArgs(args []string) (domain.CommandLine, domain.WatchTarget, error) {
	if len(args) != 2 {
		return domain.CommandLine{}, domain.WatchTarget{},
			fmt.Errorf("%w: expected a command and a watch path, got %d argument(s)", ErrUsage, len(args))
	}

	command, err := domain.NewCommandLine(args[0])
	if err != nil {
		return domain.CommandLine{}, domain.WatchTarget{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	target, err := domain.NewWatchTarget(args[1])
	if err != nil {
		return domain.CommandLine{}, domain.WatchTarget{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return command, target, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
