// Package cli provides the command-line interface for modrun.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the root command. The canonical guarded invocation is
// the run subcommand:
//
//	modrun run "<command>" <watch-path>
//
// The bare two-argument form still works as shorthand, but command words
// that collide with a subcommand name (reset, version, ...) dispatch to
// that subcommand, so scripts should prefer run.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   `modrun "<command>" <watch-path>`,
		Short: "Run a command only when files under a directory changed",
		Long: `Run a command only when files under a directory changed.

modrun executes the given shell command when any regular file under the
watched directory was modified after the last successful run, then advances
a per-directory checkpoint. Unmodified directories skip the command with
exit status 0. The reset subcommand forgets a checkpoint and forces the
next invocation to run again.

Examples:
  # Reinstall dependencies only when the manifest directory changed
  modrun run "npm install" ./web

  # Shorthand without the run subcommand
  modrun "npm install" ./web

  # Run a named profile from the config file
  modrun --config modrun.yaml --profile assets`,
		Args:          cobra.MaximumNArgs(2),
		RunE:          runGuarded,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "Named command/watch profile from the config file")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress status lines")
	rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newManCmd())

	return rootCmd
}

// Execute runs the CLI against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
