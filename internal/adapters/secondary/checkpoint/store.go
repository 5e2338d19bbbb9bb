// Package checkpoint implements the checkpoint store and advisory lock
// ports on top of a state directory of small JSON record files, one per
// watched path.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modrun/modrun/internal/core/ports"
)

const (
	recordPrefix = "modrun-"
	recordSuffix = ".json"
)

// Store persists checkpoints as JSON files named by the watch target's
// digest. The record body carries the semantic timestamp; the file's own
// mtime doubles as a fallback so an operator who truncates or hand-edits a
// record does not break detection.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a checkpoint store rooted at dir, creating the directory
// if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("state directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the state directory the store writes under.
func (s *Store) Dir() string {
	return s.dir
}

// RecordPath returns the record file path for a checkpoint key.
func (s *Store) RecordPath(key string) string {
	return filepath.Join(s.dir, recordPrefix+key+recordSuffix)
}

// Load reads the checkpoint for key. An absent record means first run and
// returns (nil, nil). A record whose body cannot be parsed falls back to
// the file's modification time, preserving the touch-to-advance behavior.
func (s *Store) Load(_ context.Context, key string) (*ports.Checkpoint, error) {
	path := s.RecordPath(key)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ports.ErrCheckpointStore, path, err)
	}

	var cp ports.Checkpoint
	if uerr := json.Unmarshal(data, &cp); uerr != nil || cp.CheckpointAt.IsZero() {
		info, serr := os.Stat(path)
		if serr != nil {
			return nil, fmt.Errorf("%w: stat %s: %v", ports.ErrCheckpointStore, path, serr)
		}
		s.logger.Warn("checkpoint body unreadable, using file mtime", "path", path)
		return &ports.Checkpoint{CheckpointAt: info.ModTime()}, nil
	}

	return &cp, nil
}

// Commit atomically replaces the checkpoint for key by writing a temporary
// file in the same directory and renaming it into place.
func (s *Store) Commit(_ context.Context, key string, cp ports.Checkpoint) error {
	path := s.RecordPath(key)

	if cp.UpdatedBy == "" {
		cp.UpdatedBy = fmt.Sprintf("pid:%d", os.Getpid())
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding checkpoint: %v", ports.ErrCheckpointStore, err)
	}

	tmp, err := os.CreateTemp(s.dir, recordPrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp record: %v", ports.ErrCheckpointStore, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing temp record: %v", ports.ErrCheckpointStore, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing temp record: %v", ports.ErrCheckpointStore, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing %s: %v", ports.ErrCheckpointStore, path, err)
	}
	return nil
}

// Reset removes the checkpoint for key. Removing an absent record is not an
// error; it simply restores first-run behavior, same as an operator deleting
// the file by hand.
func (s *Store) Reset(_ context.Context, key string) error {
	err := os.Remove(s.RecordPath(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: removing record: %v", ports.ErrCheckpointStore, err)
	}
	return nil
}
