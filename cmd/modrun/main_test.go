package main

import (
	"testing"

	"github.com/modrun/modrun/internal/cli"
)

// Exit-code translation is what main relies on; keep it pinned here.
func TestExitCodeContract(t *testing.T) {
	if got := cli.ExitCode(nil); got != 0 {
		t.Errorf("nil error should exit 0, got %d", got)
	}
	if got := cli.ExitCode(cli.ErrUsage); got != 1 {
		t.Errorf("usage error should exit 1, got %d", got)
	}
	if got := cli.ExitCode(&cli.ExitError{Code: 42}); got != 42 {
		t.Errorf("command status should pass through, got %d", got)
	}
}
