// Package termguard saves and restores the controlling terminal's
// attributes around the daemon's lifetime, so a Ctrl-C during interactive
// runs doesn't leave the shell showing "^C" or the cursor hidden.
package termguard

import (
	"os"

	"golang.org/x/sys/unix"
)

// Guard holds the terminal's original attributes, if one was open.
type Guard struct {
	fd       int
	original *unix.Termios
	file     *os.File
}

// Acquire opens /dev/tty and saves its current attributes, disabling
// ECHOCTL (so ^C isn't echoed) and hiding the cursor. If no controlling
// terminal is available (service mode), Acquire returns a no-op Guard and
// no error.
func Acquire() (*Guard, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return &Guard{}, nil
	}

	fd := int(f.Fd())
	term, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return &Guard{}, nil
	}

	saved := *term
	modified := *term
	modified.Lflag &^= unix.ECHOCTL
	_ = unix.IoctlSetTermios(fd, unix.TCSETS, &modified)

	hideCursor(f)

	return &Guard{fd: fd, original: &saved, file: f}, nil
}

// Release restores the terminal's original attributes and shows the cursor.
// Safe to call on a no-op Guard, and safe to call more than once.
func (g *Guard) Release() {
	if g == nil || g.file == nil {
		return
	}
	showCursor(g.file)
	if g.original != nil {
		_ = unix.IoctlSetTermios(g.fd, unix.TCSETS, g.original)
	}
	g.file.Close()
	g.file = nil
}

func hideCursor(f *os.File) { _, _ = f.WriteString("\x1b[?25l") }
func showCursor(f *os.File) { _, _ = f.WriteString("\x1b[?25h") }
