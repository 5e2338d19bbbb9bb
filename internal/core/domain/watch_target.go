package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// WatchTarget is a value object for the directory whose contents gate
// command execution. The path is cleaned and made absolute at construction
// so that two spellings of the same directory share one checkpoint identity.
type WatchTarget struct {
	path string
}

// NewWatchTarget creates a WatchTarget, applying validation.
// Returns an error if the path is empty or cannot be made absolute.
func NewWatchTarget(path string) (WatchTarget, error) {
	trimmed := strings.TrimSpace(path)

	if trimmed == "" {
		return WatchTarget{}, fmt.Errorf("watch path cannot be empty or whitespace-only")
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return WatchTarget{}, fmt.Errorf("watch path cannot be resolved to an absolute path: %w", err)
	}

	return WatchTarget{path: filepath.Clean(abs)}, nil
}

// NewWatchTargetUnsafe creates a WatchTarget without validation.
// This should only be used for testing or when validation has already been performed.
func NewWatchTargetUnsafe(path string) WatchTarget {
	return WatchTarget{path: path}
}

// Path returns the cleaned absolute directory path.
func (w WatchTarget) Path() string {
	return w.path
}

// String returns the cleaned absolute directory path.
func (w WatchTarget) String() string {
	return w.path
}

// IsEmpty returns true if the target carries no path.
func (w WatchTarget) IsEmpty() bool {
	return w.path == ""
}

// Equals compares two WatchTargets for equality.
func (w WatchTarget) Equals(other WatchTarget) bool {
	return w.path == other.path
}

// CheckpointKey derives the collision-resistant checkpoint identity for this
// target: the hex-encoded sha256 digest of the cleaned absolute path. Two
// distinct directories therefore never share a checkpoint record, unlike a
// lossy separator substitution.
func (w WatchTarget) CheckpointKey() string {
	sum := sha256.Sum256([]byte(w.path))
	return hex.EncodeToString(sum[:])
}

// WatchTargetDecodeHook provides a mapstructure decode hook for WatchTarget.
func WatchTargetDecodeHook() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.TypeOf(WatchTarget{}) {
			return data, nil
		}

		str, ok := data.(string)
		if !ok {
			return data, nil
		}

		return NewWatchTarget(str)
	}
}
