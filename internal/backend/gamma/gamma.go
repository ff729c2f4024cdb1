package gamma

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"sunsetrd/internal/backend"
	"sunsetrd/internal/color"
	"sunsetrd/internal/interp"
)

func init() {
	_ = backend.Register(backend.Info{
		Name:        "gamma",
		Description: "applies temperature/gamma directly via zwlr_gamma_control_manager_v1",
		Priority:    backend.PriorityDefault,
		Factory:     New,
	})
}

// Backend drives the compositor's gamma-control protocol directly: no
// helper process, no socket transport, just shared-memory ramp tables
// pushed over the Wayland connection itself.
type Backend struct {
	mu  sync.Mutex
	cli *client
}

// New connects to the compositor, binds the gamma-control manager, and
// applies ctx.Initial to every output before returning.
func New(ctx *backend.Context) (backend.Backend, error) {
	cli, err := dial()
	if err != nil {
		return nil, fmt.Errorf("dial wayland display: %w", err)
	}
	if err := cli.handshake(); err != nil {
		cli.close()
		return nil, fmt.Errorf("gamma-control handshake: %w", err)
	}

	b := &Backend{cli: cli}
	initial := interp.Values{Temperature: ctx.Initial.Temperature, Gamma: ctx.Initial.Gamma}
	if err := b.apply(initial); err != nil {
		cli.close()
		return nil, fmt.Errorf("apply initial values: %w", err)
	}
	return b, nil
}

// Name identifies this backend for logging.
func (b *Backend) Name() string { return "gamma" }

// TestConnection reports an error when no outputs are bound. It sends
// nothing to the compositor and does not probe the Wayland connection.
func (b *Backend) TestConnection() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.cli.outputs) == 0 {
		return fmt.Errorf("gamma backend: no outputs bound")
	}
	return nil
}

// Apply synthesizes a per-output ramp table sized to that output's
// negotiated gamma_size and pushes it over a sealed shared-memory buffer.
func (b *Backend) Apply(values interp.Values) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apply(values)
}

func (b *Backend) apply(values interp.Values) error {
	for _, o := range b.cli.outputs {
		if !o.sizeKnown || o.gammaSize == 0 {
			continue
		}
		table := color.RampsBytes(int(o.gammaSize), float64(values.Temperature), values.Gamma)

		fd, err := sealedRampBuffer(table)
		if err != nil {
			return fmt.Errorf("output %d: build ramp buffer: %w", o.name, err)
		}
		err = b.cli.setGamma(o, fd)
		_ = unix.Close(fd)
		if err != nil {
			return fmt.Errorf("output %d: set_gamma: %w", o.name, err)
		}
	}
	return nil
}

// Cleanup destroys every bound gamma-control object and closes the
// connection, returning displays to the compositor's own management.
func (b *Backend) Cleanup() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cli == nil {
		return nil
	}
	err := b.cli.close()
	b.cli = nil
	return err
}
