// Package services contains the guard decision service: run a command only
// when the watched directory changed since the last successful run.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modrun/modrun/internal/core/domain"
	"github.com/modrun/modrun/internal/core/ports"
)

// Decision classifies what an invocation did.
type Decision int

const (
	// DecisionSkipped means no modification was detected and the command
	// did not run. Successful outcome for exit-status purposes.
	DecisionSkipped Decision = iota

	// DecisionExecuted means the command ran (first run or modification
	// detected). The exit status is the command's own.
	DecisionExecuted
)

// Outcome reports a completed guard invocation.
type Outcome struct {
	Decision Decision

	// FirstRun is true when no checkpoint existed for the watch target.
	FirstRun bool

	// TriggeredBy is the file whose modification caused execution, empty
	// on first run or skip.
	TriggeredBy string

	// ExitCode is the executed command's exit status; 0 on skip.
	ExitCode int
}

// Ran reports whether the command was executed.
func (o Outcome) Ran() bool {
	return o.Decision == DecisionExecuted
}

// Guard decides whether to execute a command based on modification times
// under a watched directory, advancing a persisted checkpoint only on
// success. All side effects go through injected ports.
type Guard struct {
	clock    ports.Clock
	scanner  ports.FileScanner
	store    ports.CheckpointStore
	locker   ports.Locker
	runner   ports.CommandRunner
	reporter ports.Reporter
	logger   *slog.Logger
}

// NewGuard creates a Guard, validating that every required port is present.
// The locker may be nil, in which case invocations are not serialized.
func NewGuard(
	clock ports.Clock,
	scanner ports.FileScanner,
	store ports.CheckpointStore,
	locker ports.Locker,
	runner ports.CommandRunner,
	reporter ports.Reporter,
	logger *slog.Logger,
) (*Guard, error) {
	if clock == nil {
		return nil, fmt.Errorf("clock cannot be nil")
	}
	if scanner == nil {
		return nil, fmt.Errorf("file scanner cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("checkpoint store cannot be nil")
	}
	if runner == nil {
		return nil, fmt.Errorf("command runner cannot be nil")
	}
	if reporter == nil {
		return nil, fmt.Errorf("reporter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Guard{
		clock:    clock,
		scanner:  scanner,
		store:    store,
		locker:   locker,
		runner:   runner,
		reporter: reporter,
		logger:   logger,
	}, nil
}

// Run performs one guarded invocation: load the checkpoint, scan for newer
// files, execute on first run or detected modification, and commit a new
// checkpoint only when the command exits zero.
//
// A failed command leaves the checkpoint untouched so the next invocation
// detects the same modifications and retries.
func (g *Guard) Run(ctx context.Context, command domain.CommandLine, target domain.WatchTarget) (Outcome, error) {
	if command.IsEmpty() {
		return Outcome{}, fmt.Errorf("command is required")
	}
	if target.IsEmpty() {
		return Outcome{}, fmt.Errorf("watch target is required")
	}

	key := target.CheckpointKey()

	if g.locker != nil {
		handle, acquired, err := g.locker.Acquire(ctx, key)
		if err != nil {
			// Lock infrastructure failures degrade to the unlocked
			// behavior rather than blocking a developer's build.
			g.logger.Warn("advisory lock unavailable", "key", key,
				"error", fmt.Errorf("%w: %v", ports.ErrLockUnavailable, err))
			acquired = false
		}
		if acquired {
			defer func() {
				if rerr := handle.Release(); rerr != nil {
					g.logger.Warn("failed to release advisory lock", "key", key, "error", rerr)
				}
			}()
		} else {
			// Contended lock: proceed anyway. Concurrent runs race on the
			// checkpoint exactly as the unlocked workflow tolerates.
			g.logger.Warn("proceeding without advisory lock", "key", key)
		}
	}

	cp, err := g.store.Load(ctx, key)
	if err != nil {
		// A checkpoint that cannot be read is treated as absent: re-running
		// the command is always safe, failing the invocation is not.
		g.logger.Warn("checkpoint unreadable, treating as first run", "key", key, "error", err)
		cp = nil
	}

	var trigger *ports.ModifiedFile
	if cp == nil {
		g.reporter.FirstRun(target)
	} else {
		trigger, err = g.scanner.FindNewer(ctx, target, cp.CheckpointAt)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: %v", ports.ErrScanFailed, err)
		}
		if trigger == nil {
			g.reporter.UpToDate(target)
			return Outcome{Decision: DecisionSkipped}, nil
		}
		g.reporter.Modified(target, *trigger)
	}

	g.reporter.Executing(command)

	res, err := g.runner.Run(ctx, command)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ports.ErrExecutionFailed, err)
	}

	outcome := Outcome{
		Decision: DecisionExecuted,
		FirstRun: cp == nil,
		ExitCode: res.ExitCode,
	}
	if trigger != nil {
		outcome.TriggeredBy = trigger.Path
	}

	if res.ExitCode != 0 {
		g.reporter.CommandFailed(command, res.ExitCode)
		g.logger.Debug("command failed, checkpoint unchanged",
			"exit_code", res.ExitCode, "duration", res.Duration)
		return outcome, nil
	}

	next := ports.Checkpoint{
		WatchPath:    target.Path(),
		CheckpointAt: g.clock.Now(),
	}
	if trigger != nil {
		next.LastTrigger = trigger.Path
	}
	if err := g.store.Commit(ctx, key, next); err != nil {
		// The command succeeded; a stale checkpoint only means one redundant
		// re-run later. Warn instead of failing the invocation.
		g.logger.Warn("failed to advance checkpoint", "key", key, "error", err)
	}

	return outcome, nil
}
