package socket

import (
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want classification
	}{
		{"connection reset", syscall.ECONNRESET, classSocketGone},
		{"broken pipe", syscall.EPIPE, classSocketGone},
		{"no such file", syscall.ENOENT, classSocketGone},
		{"connection refused", syscall.ECONNREFUSED, classSocketGone},
		{"closed network connection", net.ErrClosed, classSocketGone},
		{"permission denied", syscall.EACCES, classPermanent},
		{"reset text without errno", errors.New("read: connection reset by peer"), classPermanent},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, classify(c.err))
		})
	}
}

func TestCompositorSignaturePath_FallsBackWithoutSignature(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	assert.Equal(t, "/run/user/1000/hypr", compositorSignaturePath())
}

func TestCompositorSignaturePath_UsesSignature(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc123")
	assert.Equal(t, "/run/user/1000/hypr/abc123", compositorSignaturePath())
}
