// Package ports defines the capability interfaces injected into the core
// guard service. Implementations live under internal/adapters; tests supply
// mocks so the decision logic runs without touching real timestamps, files,
// or processes.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/modrun/modrun/internal/core/domain"
)

// Common port-level errors.
var (
	ErrScanFailed      = errors.New("watch directory scan failed")
	ErrCheckpointStore = errors.New("checkpoint store failure")
	ErrExecutionFailed = errors.New("command could not be executed")
	ErrLockUnavailable = errors.New("advisory lock unavailable")
)

// Clock supplies the current time. Injected so checkpoint advancement is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// ModifiedFile identifies the regular file that triggered execution.
type ModifiedFile struct {
	Path    string
	ModTime time.Time
}

// FileScanner inspects the watch set for modifications.
type FileScanner interface {
	// FindNewer returns the first regular file under the target modified
	// strictly after ref, or nil when no such file exists. Ordering among
	// qualifying files is unspecified; the scan may short-circuit.
	FindNewer(ctx context.Context, target domain.WatchTarget, ref time.Time) (*ModifiedFile, error)
}

// Checkpoint is the persisted record of the last successful run for one
// watched path.
type Checkpoint struct {
	WatchPath    string    `json:"watch_path"`
	CheckpointAt time.Time `json:"checkpoint_at"`
	LastTrigger  string    `json:"last_trigger,omitempty"`
	UpdatedBy    string    `json:"updated_by,omitempty"`
}

// CheckpointStore persists checkpoints keyed by the watch target's
// collision-resistant identity. An absent key means first run.
type CheckpointStore interface {
	// Load reads the checkpoint for key. Returns (nil, nil) when no
	// checkpoint exists yet.
	Load(ctx context.Context, key string) (*Checkpoint, error)

	// Commit atomically creates or replaces the checkpoint for key.
	Commit(ctx context.Context, key string, cp Checkpoint) error

	// Reset removes the checkpoint for key, restoring first-run behavior.
	// Removing an absent checkpoint is not an error.
	Reset(ctx context.Context, key string) error
}

// LockHandle represents a held advisory lock.
type LockHandle interface {
	// Release frees the lock. Only the holder's release removes it.
	Release() error
}

// Locker serializes the decide-and-commit sequence for one checkpoint key.
type Locker interface {
	// Acquire attempts to take the advisory lock for key. acquired=false
	// without error means contention the caller may choose to tolerate.
	Acquire(ctx context.Context, key string) (handle LockHandle, acquired bool, err error)
}

// ExecResult reports a completed command execution.
type ExecResult struct {
	ExitCode int
	Duration time.Duration
}

// CommandRunner executes a command line via the host shell, blocking until
// it exits or ctx is cancelled. A non-zero child exit status is reported in
// ExecResult, not as an error; errors mean the command never ran.
type CommandRunner interface {
	Run(ctx context.Context, command domain.CommandLine) (ExecResult, error)
}

// Reporter receives human-readable progress notifications in the order the
// guard makes its decisions, so messages precede the command's own output.
type Reporter interface {
	FirstRun(target domain.WatchTarget)
	Modified(target domain.WatchTarget, trigger ModifiedFile)
	UpToDate(target domain.WatchTarget)
	Executing(command domain.CommandLine)
	CommandFailed(command domain.CommandLine, exitCode int)
}
