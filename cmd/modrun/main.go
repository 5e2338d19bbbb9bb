// modrun executes a shell command only when files under a watched directory
// changed since the last successful run.
//
// Usage:
//
//	modrun "<command>" <watch-path>
//	modrun --config modrun.yaml --profile <name>
//	modrun reset <watch-path>
//
// Exit status is 0 when the command was skipped or succeeded, 1 on invalid
// arguments or runtime failure, and the command's own status when it ran
// and failed.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/modrun/modrun/internal/cli"
)

func main() {
	err := cli.Execute()
	if err != nil {
		// A failing guarded command already reported itself; only tool
		// errors need a message here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	os.Exit(cli.ExitCode(err))
}
