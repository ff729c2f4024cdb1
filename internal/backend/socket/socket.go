// Package socket implements the helper-daemon backend: a small privileged
// helper binary applies gamma/temperature on the backend's behalf, reachable
// over a Unix-domain stream socket. This is the default backend on Hyprland,
// where the helper ships as a companion binary with the access the
// compositor's gamma-control protocol extension requires.
package socket

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sunsetrd/internal/backend"
	"sunsetrd/internal/interp"
	"sunsetrd/internal/sunsetrd"
)

func init() {
	_ = backend.Register(backend.Info{
		Name:        "socket",
		Description: "applies temperature/gamma via a helper daemon over a Unix socket",
		Priority:    backend.PriorityDefault,
		Factory:     New,
	})
}

// classification distinguishes recoverable connection problems from ones
// that should make the control loop give up on this backend entirely.
type classification int

const (
	classTemporary classification = iota
	classSocketGone
	classPermanent
)

// classify maps a transport error to a retry policy. Temporary errors
// (timeouts, EAGAIN) are retried in place; SocketGone errors trigger a
// reconnect-and-replay; Permanent errors propagate to the caller unchanged.
func classify(err error) classification {
	if err == nil {
		return classTemporary
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return classTemporary
	}
	if errors.Is(err, syscall.EAGAIN) {
		return classTemporary
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, net.ErrClosed) {
		return classSocketGone
	}
	if errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNREFUSED) {
		return classSocketGone
	}
	return classPermanent
}

// Backend drives the helper daemon's Unix-socket protocol: ASCII commands
// "temperature <K>\n" and "gamma <pct>\n", one per call, each bounded by a
// read timeout.
type Backend struct {
	mu          sync.Mutex
	socketPath  string
	conn        net.Conn
	connR       *bufio.Reader
	cmd         *exec.Cmd
	logger      *zap.Logger
	pidRegistry interface {
		Register(int)
		Unregister(int)
	}
	last interp.Values
}

// New is the backend.Factory registered under the name "socket". When
// ctx.Config.StartHelper is set (or ctx.Config is nil) it spawns the helper
// process with ctx.Initial as its starting values so the display never
// flashes through the helper's own defaults; otherwise it expects a helper
// that is already running. It then connects.
func New(ctx *backend.Context) (backend.Backend, error) {
	sigPath := compositorSignaturePath()
	b := &Backend{
		socketPath:  filepath.Join(sigPath, ".helper.sock"),
		logger:      ctx.Logger,
		pidRegistry: ctx.PIDRegistry,
		last:        interp.Values{Temperature: ctx.Initial.Temperature, Gamma: ctx.Initial.Gamma},
	}

	if ctx.Config == nil || ctx.Config.StartHelper {
		if err := b.spawnHelper(ctx.Initial.Temperature, ctx.Initial.Gamma); err != nil {
			return nil, fmt.Errorf("spawn helper: %w", err)
		}
	}
	if err := b.connect(); err != nil {
		b.Cleanup()
		return nil, fmt.Errorf("connect to helper socket: %w", err)
	}
	return b, nil
}

// compositorSignaturePath derives the helper socket's parent directory from
// the Hyprland instance signature, falling back to XDG_RUNTIME_DIR/hypr for
// compositors that don't set one.
func compositorSignaturePath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = os.TempDir()
	}
	sig := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if sig == "" {
		return filepath.Join(runtimeDir, "hypr")
	}
	return filepath.Join(runtimeDir, "hypr", sig)
}

// spawnHelper starts the helper binary in its own process group so signals
// delivered to this daemon's group don't also hit the child, and registers
// its PID in the process-wide emergency registry.
func (b *Backend) spawnHelper(kelvin uint32, gammaPct float64) error {
	cmd := exec.Command("sunsetrd-helper",
		"-t", fmt.Sprintf("%d", kelvin),
		"-g", fmt.Sprintf("%.1f", gammaPct),
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}
	b.cmd = cmd
	if b.pidRegistry != nil {
		b.pidRegistry.Register(cmd.Process.Pid)
	}

	time.Sleep(sunsetrd.HelperSpawnWait)
	return nil
}

// connect dials the helper's Unix socket, retrying up to MaxRetries times
// with RetryDelay between attempts, matching the startup race against the
// helper's own socket-bind time.
func (b *Backend) connect() error {
	var lastErr error
	for attempt := 0; attempt < sunsetrd.MaxRetries; attempt++ {
		conn, err := net.DialTimeout("unix", b.socketPath, sunsetrd.SocketTimeout)
		if err == nil {
			b.conn = conn
			b.connR = bufio.NewReader(conn)
			return nil
		}
		lastErr = err
		time.Sleep(sunsetrd.RetryDelay)
	}
	return fmt.Errorf("dial %s after %d attempts: %w", b.socketPath, sunsetrd.MaxRetries, lastErr)
}

// reconnect drops the current connection and redials, then replays the last
// applied values so the helper doesn't sit on stale state across the gap.
func (b *Backend) reconnect() error {
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
		b.connR = nil
	}
	time.Sleep(sunsetrd.SocketRecoveryDelay)
	if err := b.connect(); err != nil {
		return err
	}
	return b.send(b.last)
}

// Name identifies this backend for logging.
func (b *Backend) Name() string { return "socket" }

// TestConnection sends the currently-applied values again as a no-op probe.
func (b *Backend) TestConnection() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return fmt.Errorf("socket backend: not connected")
	}
	return b.send(b.last)
}

// Apply sends "temperature <K>\n" then "gamma <pct>\n", classifying any
// transport error and retrying a SocketGone error once via reconnect.
func (b *Backend) Apply(values interp.Values) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.send(values)
	if err == nil {
		b.last = values
		return nil
	}

	switch classify(err) {
	case classTemporary:
		b.logger.Warn("socket backend: temporary apply error, retrying once", zap.Error(err))
		if err2 := b.send(values); err2 == nil {
			b.last = values
			return nil
		}
		return fmt.Errorf("socket backend: apply failed after retry: %w", err)
	case classSocketGone:
		b.logger.Warn("socket backend: connection lost, reconnecting", zap.Error(err))
		if rerr := b.reconnect(); rerr != nil {
			return fmt.Errorf("socket backend: reconnect failed: %w", rerr)
		}
		if err2 := b.send(values); err2 != nil {
			return fmt.Errorf("socket backend: apply failed after reconnect: %w", err2)
		}
		b.last = values
		return nil
	default:
		return fmt.Errorf("socket backend: permanent apply error: %w", err)
	}
}

func (b *Backend) send(values interp.Values) error {
	if b.conn == nil {
		return fmt.Errorf("not connected")
	}
	_ = b.conn.SetDeadline(time.Now().Add(sunsetrd.SocketTimeout))

	if _, err := fmt.Fprintf(b.conn, "temperature %d\n", values.Temperature); err != nil {
		return err
	}
	if err := b.readAck(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(b.conn, "gamma %.1f\n", values.Gamma); err != nil {
		return err
	}
	return b.readAck()
}

// readAck reads a single response line off the connection's persistent
// buffered reader. The helper protocol acks every command; any read error
// (including timeout) propagates to the caller for classification. The
// reader must persist across calls: the helper may push both acks in one
// packet, and a fresh bufio.Reader per call would drop whatever the
// previous one already buffered past its line.
func (b *Backend) readAck() error {
	_, err := b.connR.ReadString('\n')
	return err
}

// Cleanup closes the socket and stops the helper: SIGTERM, a brief wait,
// SIGKILL if it's still alive, then reap.
func (b *Backend) Cleanup() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}

	if b.cmd == nil || b.cmd.Process == nil {
		return nil
	}
	pid := b.cmd.Process.Pid

	_ = syscall.Kill(pid, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- b.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(sunsetrd.HelperShutdownGrace):
		_ = syscall.Kill(pid, syscall.SIGKILL)
		<-done
	}

	if b.pidRegistry != nil {
		b.pidRegistry.Unregister(pid)
	}
	return nil
}
