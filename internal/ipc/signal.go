// Package ipc turns POSIX signals into a channel of control messages the
// control loop consumes between ticks.
package ipc

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
)

// Kind discriminates the Message variants.
type Kind int

const (
	Reload Kind = iota
	Shutdown
	TestMode
)

// Message is a single control-loop instruction delivered over Listener.C.
// Temperature/Gamma are only meaningful when Kind == TestMode; the sentinel
// (0, 0) means "exit test mode".
type Message struct {
	Kind        Kind
	Temperature uint32
	Gamma       float64
}

// ExitTestMode reports whether m is the TestMode(0,0) sentinel.
func (m Message) ExitTestMode() bool {
	return m.Kind == TestMode && m.Temperature == 0 && m.Gamma == 0
}

// Listener owns the signal-handling goroutine and exposes its messages on C.
type Listener struct {
	C            chan Message
	shuttingDown atomic.Bool
	sigChan      chan os.Signal
	logger       *zap.Logger
	programName  string
}

// NewListener spawns the signal-handling goroutine. programName is used to
// build the well-known test-mode parameter file path.
func NewListener(programName string, logger *zap.Logger) *Listener {
	l := &Listener{
		C:           make(chan Message, 4),
		sigChan:     make(chan os.Signal, 8),
		logger:      logger,
		programName: programName,
	}
	signal.Notify(l.sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2)
	go l.run()
	return l
}

// ShuttingDown reports whether a shutdown signal has been latched, for
// subsystems that cannot conveniently read the channel (e.g. panic paths).
func (l *Listener) ShuttingDown() bool {
	return l.shuttingDown.Load()
}

// Stop stops consuming signals. The channel is left open; callers should
// stop reading it after observing Shutdown.
func (l *Listener) Stop() {
	signal.Stop(l.sigChan)
}

func (l *Listener) run() {
	for sig := range l.sigChan {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP:
			l.shuttingDown.Store(true)
			l.C <- Message{Kind: Shutdown}
		case syscall.SIGUSR2:
			l.C <- Message{Kind: Reload}
		case syscall.SIGUSR1:
			msg, err := l.readTestModeFile()
			if err != nil {
				l.logger.Warn("failed to read test-mode parameter file", zap.Error(err))
				continue
			}
			l.C <- msg
		}
	}
}

// testModePath returns the well-known test-mode parameter file path for the
// current process.
func (l *Listener) testModePath() string {
	return fmt.Sprintf("/tmp/%s-test-%d.tmp", l.programName, os.Getpid())
}

// readTestModeFile parses the two-line (K, gamma) parameter file, then
// deletes it: the sender creates it, the signal handler consumes and
// removes it.
func (l *Listener) readTestModeFile() (Message, error) {
	path := l.testModePath()
	f, err := os.Open(path)
	if err != nil {
		return Message{}, fmt.Errorf("open test-mode file %s: %w", path, err)
	}
	defer func() {
		f.Close()
		_ = os.Remove(path)
	}()

	scanner := bufio.NewScanner(f)
	var kLine, gLine string
	if scanner.Scan() {
		kLine = strings.TrimSpace(scanner.Text())
	}
	if scanner.Scan() {
		gLine = strings.TrimSpace(scanner.Text())
	}

	k, err := strconv.ParseUint(kLine, 10, 32)
	if err != nil {
		return Message{}, fmt.Errorf("parse temperature %q: %w", kLine, err)
	}
	g, err := strconv.ParseFloat(gLine, 64)
	if err != nil {
		return Message{}, fmt.Errorf("parse gamma %q: %w", gLine, err)
	}

	return Message{Kind: TestMode, Temperature: uint32(k), Gamma: g}, nil
}
