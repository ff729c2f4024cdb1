// Package lifecycle implements the daemon's single-instance lock,
// compositor detection, and signal-based respawn/reload delivery to an
// already-running instance.
package lifecycle

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrAlreadyRunning is returned when another live process holds the lock.
type ErrAlreadyRunning struct {
	PID int
}

func (e *ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("another instance is already running (pid %d)", e.PID)
}

// Lock holds an acquired single-instance lock. Release drops the advisory
// lock and unlinks the file.
type Lock struct {
	path string
	file *os.File
}

// lockPath returns $XDG_RUNTIME_DIR/sunsetrd.lock, falling back to /tmp.
func lockPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sunsetrd.lock")
}

// Acquire takes the single-instance lock, recovering a stale lock (owning
// PID no longer alive) automatically. compositorName is recorded alongside
// the PID for diagnostic purposes.
func Acquire(compositorName string) (*Lock, error) {
	path := lockPath()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		pid, _, readErr := readLockFile(f)
		f.Close()
		if readErr == nil && pid > 0 && processAlive(pid) {
			return nil, &ErrAlreadyRunning{PID: pid}
		}

		// Stale lock: the owning PID is gone. Unlink and retry once.
		_ = os.Remove(path)
		f, err = os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("reopen lock file %s: %w", path, err)
		}
		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
			f.Close()
			return nil, fmt.Errorf("lock file %s still held after stale-lock recovery: %w", path, err)
		}
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("truncate lock file %s: %w", path, err)
	}
	if _, err := f.WriteAt([]byte(fmt.Sprintf("%d\n%s\n", os.Getpid(), compositorName)), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("write lock file %s: %w", path, err)
	}

	return &Lock{path: path, file: f}, nil
}

// Release drops the advisory lock and unlinks the file. Safe to call once;
// a crash instead leaves the file for the next startup's stale-lock
// detection to recover.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	path := l.path
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close lock file %s: %w", path, err)
	}
	l.file = nil
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlink lock file %s: %w", path, err)
	}
	return nil
}

// readLockFile parses the PID and compositor name out of an existing lock
// file without holding the lock.
func readLockFile(f *os.File) (pid int, compositor string, err error) {
	if _, err = f.Seek(0, 0); err != nil {
		return 0, "", err
	}
	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		pid, err = strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			return 0, "", err
		}
	}
	if scanner.Scan() {
		compositor = strings.TrimSpace(scanner.Text())
	}
	return pid, compositor, nil
}

// RunningPID reports the PID recorded in the lock file, if any instance
// appears to currently hold it. Returns 0 if no instance is running.
func RunningPID() int {
	path := lockPath()
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	pid, _, err := readLockFile(f)
	if err != nil || pid <= 0 || !processAlive(pid) {
		return 0
	}
	return pid
}

func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
