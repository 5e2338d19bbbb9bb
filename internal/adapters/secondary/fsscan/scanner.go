// Package fsscan implements the file scanner port over the real filesystem.
package fsscan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/modrun/modrun/internal/core/domain"
	"github.com/modrun/modrun/internal/core/ports"
)

// Scanner walks a watch target looking for regular files modified after a
// reference time. Unreadable entries below the root are skipped; only an
// unreadable root fails the scan.
type Scanner struct {
	logger *slog.Logger
}

// New creates a filesystem scanner.
func New(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// FindNewer returns the first regular file under target whose modification
// time is strictly after ref, or nil when none qualifies. The walk stops at
// the first match: the decision is binary, so enumerating every match would
// be wasted work.
func (s *Scanner) FindNewer(ctx context.Context, target domain.WatchTarget, ref time.Time) (*ports.ModifiedFile, error) {
	var found *ports.ModifiedFile

	root := target.Path()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			// Permission problems below the root degrade to "not seen",
			// matching the original tool's silent-scan semantics.
			s.logger.Debug("skipping unreadable entry", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Debug("skipping unstattable file", "path", path, "error", err)
			return nil
		}

		if info.ModTime().After(ref) {
			found = &ports.ModifiedFile{Path: path, ModTime: info.ModTime()}
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return found, nil
}
