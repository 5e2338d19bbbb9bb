package domain

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatchTarget(t *testing.T) {
	t.Run("relative path becomes absolute and clean", func(t *testing.T) {
		got, err := NewWatchTarget("./some/dir/../dir")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got.Path()))
		assert.Equal(t, filepath.Clean(got.Path()), got.Path())
	})

	t.Run("absolute path preserved", func(t *testing.T) {
		dir := t.TempDir()
		got, err := NewWatchTarget(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Clean(dir), got.Path())
	})

	t.Run("empty rejected", func(t *testing.T) {
		_, err := NewWatchTarget("")
		require.Error(t, err)
	})

	t.Run("whitespace rejected", func(t *testing.T) {
		_, err := NewWatchTarget("  \t")
		require.Error(t, err)
	})
}

func TestWatchTargetCheckpointKey(t *testing.T) {
	hexPattern := regexp.MustCompile(`^[0-9a-f]{64}$`)

	a := NewWatchTargetUnsafe("/srv/app/config")
	b := NewWatchTargetUnsafe("/srv/app/config")
	c := NewWatchTargetUnsafe("/srv/app-config")

	assert.Regexp(t, hexPattern, a.CheckpointKey())

	// Deterministic per path, distinct across paths. The lossy
	// separator-substitution scheme would collide b and c; the digest
	// must not.
	assert.Equal(t, a.CheckpointKey(), b.CheckpointKey())
	assert.NotEqual(t, a.CheckpointKey(), c.CheckpointKey())
}

func TestWatchTargetSpellingsShareIdentity(t *testing.T) {
	dir := t.TempDir()

	plain, err := NewWatchTarget(dir)
	require.NoError(t, err)
	dotted, err := NewWatchTarget(dir + "/./")
	require.NoError(t, err)

	assert.True(t, plain.Equals(dotted))
	assert.Equal(t, plain.CheckpointKey(), dotted.CheckpointKey())
}
