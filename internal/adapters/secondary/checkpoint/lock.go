package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/modrun/modrun/internal/core/ports"
)

const lockSuffix = ".lock"

// lockRecord is the body written into a lock file so contenders can tell
// who holds it and how long they have held it.
type lockRecord struct {
	Token      string    `json:"token"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// FileLocker serializes decide-and-commit sequences with per-key lock files
// created O_CREATE|O_EXCL next to the checkpoint records. Contenders poll
// until Wait elapses; a lock older than StaleAfter is assumed to belong to
// a killed process and is broken.
type FileLocker struct {
	store      *Store
	wait       time.Duration
	staleAfter time.Duration
	logger     *slog.Logger
}

// NewFileLocker creates a locker sharing the store's state directory.
func NewFileLocker(store *Store, wait, staleAfter time.Duration, logger *slog.Logger) (*FileLocker, error) {
	if store == nil {
		return nil, fmt.Errorf("checkpoint store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileLocker{
		store:      store,
		wait:       wait,
		staleAfter: staleAfter,
		logger:     logger,
	}, nil
}

type fileLock struct {
	path   string
	token  string
	logger *slog.Logger
}

// Release removes the lock file, but only if this handle still owns it.
// A broken-and-reacquired lock must not be deleted out from under the new
// holder.
func (l *fileLock) Release() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading lock file: %w", err)
	}

	var rec lockRecord
	if err := json.Unmarshal(data, &rec); err == nil && rec.Token != l.token {
		l.logger.Warn("lock ownership lost, not removing", "path", l.path)
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// Acquire attempts to create the lock file for key, polling until the
// configured wait elapses or ctx is cancelled. Returns acquired=false
// without error on contention so the caller can fall back to the unlocked
// behavior.
func (fl *FileLocker) Acquire(ctx context.Context, key string) (ports.LockHandle, bool, error) {
	path := fl.store.RecordPath(key) + lockSuffix
	deadline := time.Now().Add(fl.wait)

	for {
		handle, err := fl.tryAcquire(path)
		if err != nil {
			return nil, false, err
		}
		if handle != nil {
			return handle, true, nil
		}

		if time.Now().After(deadline) {
			return nil, false, nil
		}

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (fl *FileLocker) tryAcquire(path string) (ports.LockHandle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}
		fl.breakIfStale(path)
		return nil, nil
	}

	rec := lockRecord{
		Token:      uuid.NewString(),
		PID:        os.Getpid(),
		AcquiredAt: time.Now(),
	}
	enc := json.NewEncoder(f)
	if werr := enc.Encode(rec); werr != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing lock record: %w", werr)
	}
	if cerr := f.Close(); cerr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("closing lock file: %w", cerr)
	}

	return &fileLock{path: path, token: rec.Token, logger: fl.logger}, nil
}

// breakIfStale removes a lock whose age exceeds StaleAfter. A SIGKILLed run
// never releases its lock, and a watch path must not stay wedged forever.
func (fl *FileLocker) breakIfStale(path string) {
	if fl.staleAfter <= 0 {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if time.Since(info.ModTime()) <= fl.staleAfter {
		return
	}
	fl.logger.Warn("breaking stale advisory lock", "path", path, "age", time.Since(info.ModTime()))
	os.Remove(path)
}
