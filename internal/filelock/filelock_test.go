package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "report.lock")

	lock := NewFileLock(lockPath)
	require.NoError(t, lock.Lock())
	require.NoError(t, lock.Unlock())

	_, err := os.Stat(lockPath)
	assert.NoError(t, err, "lock file should exist after first use")
}

func TestLockContext_AcquiresFreeLock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "recordings.yaml.lock"))

	require.NoError(t, lock.LockContext(context.Background()))
	require.NoError(t, lock.Unlock())
}

func TestLockContext_Timeout(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "report.lock")

	first := NewFileLock(lockPath)
	require.NoError(t, first.Lock())
	defer first.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := NewFileLock(lockPath).LockContext(ctx)
	assert.Error(t, err)
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "recordings.yaml")

	require.NoError(t, AtomicWrite(path, []byte("first")))
	require.NoError(t, AtomicWrite(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestLockAndWrite_Concurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counter.txt")
	require.NoError(t, os.WriteFile(path, []byte("0"), 0644))

	const goroutines = 5
	const iterations = 10

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				lock := NewFileLock(path + ".lock")
				if err := lock.Lock(); err != nil {
					t.Errorf("lock: %v", err)
					return
				}
				data, _ := os.ReadFile(path)
				n, _ := strconv.Atoi(string(data))
				if err := AtomicWrite(path, []byte(fmt.Sprint(n+1))); err != nil {
					t.Errorf("write: %v", err)
				}
				lock.Unlock()
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(goroutines*iterations), string(data))

	require.NoError(t, LockAndWrite(path, []byte("done")))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "done", string(data))
}
