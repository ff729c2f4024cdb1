package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withRuntimeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, hadOld := os.LookupEnv("XDG_RUNTIME_DIR")
	require.NoError(t, os.Setenv("XDG_RUNTIME_DIR", dir))
	t.Cleanup(func() {
		if hadOld {
			os.Setenv("XDG_RUNTIME_DIR", old)
		} else {
			os.Unsetenv("XDG_RUNTIME_DIR")
		}
	})
	return dir
}

func TestAcquireRelease(t *testing.T) {
	dir := withRuntimeDir(t)

	lock, err := Acquire("hyprland")
	require.NoError(t, err)
	require.NotNil(t, lock)

	data, err := os.ReadFile(filepath.Join(dir, "sunsetrd.lock"))
	require.NoError(t, err)
	assert.Contains(t, string(data), fmt.Sprintf("%d\n", os.Getpid()))
	assert.Contains(t, string(data), "hyprland")

	require.NoError(t, lock.Release())
	_, err = os.Stat(filepath.Join(dir, "sunsetrd.lock"))
	assert.True(t, os.IsNotExist(err))
}

func TestAcquire_StaleLockRecovered(t *testing.T) {
	dir := withRuntimeDir(t)
	path := filepath.Join(dir, "sunsetrd.lock")
	require.NoError(t, os.WriteFile(path, []byte("999999\nhyprland\n"), 0o644))

	lock, err := Acquire("hyprland")
	require.NoError(t, err)
	require.NotNil(t, lock)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), fmt.Sprintf("%d\n", os.Getpid()))

	require.NoError(t, lock.Release())
}

func TestRunningPID_NoLock(t *testing.T) {
	withRuntimeDir(t)
	assert.Equal(t, 0, RunningPID())
}
