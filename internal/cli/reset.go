package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modrun/modrun/internal/adapters/secondary/checkpoint"
	"github.com/modrun/modrun/internal/config"
	"github.com/modrun/modrun/internal/core/domain"
)

// newResetCmd builds the reset subcommand, the supported way to force the
// next invocation for a watched path to run again (equivalent to deleting
// the checkpoint record by hand).
func newResetCmd() *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset <watch-path>",
		Short: "Forget the checkpoint for a watched directory",
		Long: `Forget the checkpoint for a watched directory.

The next invocation against the same path behaves as a first run and always
executes its command.`,
		Args: cobra.ExactArgs(1),
		RunE: runReset,
	}
	return resetCmd
}

func runReset(cmd *cobra.Command, args []string) error {
	target, err := domain.NewWatchTarget(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	configPath, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}

	logger := newLogger(cmd.ErrOrStderr(), settings.LogLevel)
	store, err := checkpoint.NewStore(settings.StateDir, logger)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	if err := store.Reset(cmd.Context(), target.CheckpointKey()); err != nil {
		return fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "checkpoint cleared for %s\n", target.Path())
	return nil
}
