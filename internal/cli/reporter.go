package cli

import (
	"fmt"
	"io"

	"github.com/alessio/shellescape"
	"github.com/fatih/color"

	"github.com/modrun/modrun/internal/core/domain"
	"github.com/modrun/modrun/internal/core/ports"
)

// consoleReporter prints human-readable status lines for each guard
// decision. Output is informational only, not machine-parsable.
type consoleReporter struct {
	out     io.Writer
	quiet   bool
	dim     *color.Color
	changed *color.Color
	failed  *color.Color
}

func newConsoleReporter(out io.Writer, quiet, noColor bool) *consoleReporter {
	r := &consoleReporter{
		out:     out,
		quiet:   quiet,
		dim:     color.New(color.FgHiBlack),
		changed: color.New(color.FgYellow),
		failed:  color.New(color.FgRed, color.Bold),
	}
	if noColor {
		r.dim.DisableColor()
		r.changed.DisableColor()
		r.failed.DisableColor()
	}
	return r
}

func (r *consoleReporter) FirstRun(target domain.WatchTarget) {
	if r.quiet {
		return
	}
	r.dim.Fprintf(r.out, "no checkpoint for %s yet, first run\n", target.Path())
}

func (r *consoleReporter) Modified(target domain.WatchTarget, trigger ports.ModifiedFile) {
	if r.quiet {
		return
	}
	r.changed.Fprintf(r.out, "modification detected: %s\n", trigger.Path)
}

func (r *consoleReporter) UpToDate(target domain.WatchTarget) {
	if r.quiet {
		return
	}
	r.dim.Fprintf(r.out, "no modifications under %s, skipping\n", target.Path())
}

func (r *consoleReporter) Executing(command domain.CommandLine) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, "running %s\n", shellescape.Quote(command.String()))
}

func (r *consoleReporter) CommandFailed(command domain.CommandLine, exitCode int) {
	if r.quiet {
		return
	}
	r.failed.Fprintf(r.out, "command failed with status %d, checkpoint not advanced\n", exitCode)
}
