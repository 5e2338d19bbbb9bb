package checkpoint

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T, wait, staleAfter time.Duration) (*FileLocker, *Store) {
	t.Helper()
	store := newTestStore(t)
	locker, err := NewFileLocker(store, wait, staleAfter, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return locker, store
}

func TestLockerAcquireAndRelease(t *testing.T) {
	locker, store := newTestLocker(t, 0, 0)
	ctx := context.Background()

	handle, acquired, err := locker.Acquire(ctx, "key1")
	require.NoError(t, err)
	require.True(t, acquired)

	lockPath := store.RecordPath("key1") + lockSuffix
	_, err = os.Stat(lockPath)
	require.NoError(t, err, "lock file exists while held")

	require.NoError(t, handle.Release())
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file removed after release")
}

func TestLockerContention(t *testing.T) {
	locker, _ := newTestLocker(t, 0, 0)
	ctx := context.Background()

	first, acquired, err := locker.Acquire(ctx, "key1")
	require.NoError(t, err)
	require.True(t, acquired)
	defer first.Release()

	_, acquired, err = locker.Acquire(ctx, "key1")
	require.NoError(t, err, "contention is not an error")
	assert.False(t, acquired)
}

func TestLockerDistinctKeysIndependent(t *testing.T) {
	locker, _ := newTestLocker(t, 0, 0)
	ctx := context.Background()

	a, acquiredA, err := locker.Acquire(ctx, "key-a")
	require.NoError(t, err)
	require.True(t, acquiredA)
	defer a.Release()

	b, acquiredB, err := locker.Acquire(ctx, "key-b")
	require.NoError(t, err)
	assert.True(t, acquiredB)
	b.Release()
}

func TestLockerReacquireAfterRelease(t *testing.T) {
	locker, _ := newTestLocker(t, 0, 0)
	ctx := context.Background()

	handle, acquired, err := locker.Acquire(ctx, "key1")
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, handle.Release())

	handle, acquired, err = locker.Acquire(ctx, "key1")
	require.NoError(t, err)
	assert.True(t, acquired)
	handle.Release()
}

func TestLockerBreaksStaleLock(t *testing.T) {
	locker, store := newTestLocker(t, 500*time.Millisecond, 10*time.Minute)
	ctx := context.Background()

	// Simulate a SIGKILLed run: lock file left behind, an hour old.
	lockPath := store.RecordPath("key1") + lockSuffix
	require.NoError(t, os.WriteFile(lockPath, []byte(`{"token":"gone"}`), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	handle, acquired, err := locker.Acquire(ctx, "key1")
	require.NoError(t, err)
	assert.True(t, acquired, "stale lock must be broken and reacquired")
	handle.Release()
}

func TestLockerKeepsFreshForeignLock(t *testing.T) {
	locker, store := newTestLocker(t, 0, 10*time.Minute)
	ctx := context.Background()

	lockPath := store.RecordPath("key1") + lockSuffix
	require.NoError(t, os.WriteFile(lockPath, []byte(`{"token":"other"}`), 0o644))

	_, acquired, err := locker.Acquire(ctx, "key1")
	require.NoError(t, err)
	assert.False(t, acquired, "a fresh foreign lock is respected")
}

func TestLockReleaseRespectsOwnership(t *testing.T) {
	locker, store := newTestLocker(t, 0, 0)
	ctx := context.Background()

	handle, acquired, err := locker.Acquire(ctx, "key1")
	require.NoError(t, err)
	require.True(t, acquired)

	// Another process broke and reacquired the lock.
	lockPath := store.RecordPath("key1") + lockSuffix
	foreign, jerr := json.Marshal(lockRecord{Token: "someone-else", PID: 1, AcquiredAt: time.Now()})
	require.NoError(t, jerr)
	require.NoError(t, os.WriteFile(lockPath, foreign, 0o644))

	require.NoError(t, handle.Release())
	_, err = os.Stat(lockPath)
	assert.NoError(t, err, "release must not remove a lock it no longer owns")
}

func TestLockerContextCancellationDuringWait(t *testing.T) {
	locker, _ := newTestLocker(t, 10*time.Second, 0)

	first, acquired, err := locker.Acquire(context.Background(), "key1")
	require.NoError(t, err)
	require.True(t, acquired)
	defer first.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, acquired, err = locker.Acquire(ctx, "key1")
	assert.Error(t, err)
	assert.False(t, acquired)
	assert.Less(t, time.Since(start), 5*time.Second)
}
