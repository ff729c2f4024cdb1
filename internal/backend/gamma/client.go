package gamma

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"
)

const (
	displayObjectID  uint32 = 1
	registryObjectID uint32 = 2
	firstDynamicID   uint32 = 3

	// wl_display opcodes.
	opGetRegistry uint16 = 1
	// wl_display events.
	evError uint16 = 0

	// wl_registry opcodes/events.
	opBind   uint16 = 0
	evGlobal uint16 = 0

	// zwlr_gamma_control_manager_v1 requests.
	opCreateGammaControl uint16 = 0
	opManagerDestroy     uint16 = 1

	// zwlr_gamma_control_v1 requests/events.
	opSetGamma     uint16 = 0
	opGammaDestroy uint16 = 1
	evGammaSize    uint16 = 0
	evGammaFailed  uint16 = 1

	managerInterface = "zwlr_gamma_control_manager_v1"
	outputInterface  = "wl_output"
)

// output is a bound wl_output together with the gamma_control object
// created against it once the manager is available.
type output struct {
	name         uint32
	id           uint32
	gammaControl uint32
	gammaSize    uint32
	sizeKnown    bool
}

// client owns a raw Wayland connection: object id allocation, the request
// encoder, and a blocking event reader used only during the short
// synchronous handshake this backend needs (bind manager, enumerate
// outputs, learn each output's gamma_size).
type client struct {
	conn    *net.UnixConn
	r       *bufio.Reader
	nextID  uint32
	manager uint32
	outputs []*output
}

// dial connects to the compositor's Wayland socket, resolved from
// WAYLAND_DISPLAY (defaulting to "wayland-0") under XDG_RUNTIME_DIR.
func dial() (*client, error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return nil, fmt.Errorf("XDG_RUNTIME_DIR not set")
	}
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	path := filepath.Join(runtimeDir, display)

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("resolve wayland socket %s: %w", path, err)
	}
	conn, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial wayland socket %s: %w", path, err)
	}

	return &client{conn: conn, r: bufio.NewReader(conn), nextID: firstDynamicID}, nil
}

func (c *client) allocID() uint32 {
	id := c.nextID
	c.nextID++
	return id
}

func (c *client) send(m message) error {
	_, err := c.conn.Write(encode(m))
	return err
}

// handshake requests the registry, binds the gamma-control manager and every
// wl_output advertised, and waits for each output's gamma_size event.
func (c *client) handshake() error {
	ab := &argBuilder{}
	ab.putUint32(registryObjectID)
	if err := c.send(message{objectID: displayObjectID, opcode: opGetRegistry, args: ab.bytes()}); err != nil {
		return fmt.Errorf("get_registry: %w", err)
	}

	globals, err := c.collectGlobals()
	if err != nil {
		return err
	}

	for _, g := range globals {
		switch g.iface {
		case managerInterface:
			c.manager = c.allocID()
			if err := c.bind(g.name, g.iface, g.version, c.manager); err != nil {
				return fmt.Errorf("bind manager: %w", err)
			}
		case outputInterface:
			id := c.allocID()
			if err := c.bind(g.name, g.iface, g.version, id); err != nil {
				return fmt.Errorf("bind output %d: %w", g.name, err)
			}
			c.outputs = append(c.outputs, &output{name: g.name, id: id})
		}
	}

	if c.manager == 0 {
		return fmt.Errorf("compositor does not advertise %s", managerInterface)
	}
	if len(c.outputs) == 0 {
		return fmt.Errorf("compositor advertises no wl_output globals")
	}

	for _, o := range c.outputs {
		o.gammaControl = c.allocID()
		ab := &argBuilder{}
		ab.putUint32(o.gammaControl)
		ab.putUint32(o.id)
		if err := c.send(message{objectID: c.manager, opcode: opCreateGammaControl, args: ab.bytes()}); err != nil {
			return fmt.Errorf("create_gamma_control for output %d: %w", o.name, err)
		}
	}

	return c.collectGammaSizes()
}

type global struct {
	name    uint32
	iface   string
	version uint32
}

// collectGlobals drains wl_registry.global events until the compositor's
// synchronous reply stream goes quiet (a wl_callback done would normally
// bound this; here a short read against the already-buffered handshake
// traffic is sufficient since servers emit all globals before anything
// else on a fresh connection).
func (c *client) collectGlobals() ([]global, error) {
	var globals []global
	for {
		m, err := readMessage(c.r)
		if err != nil {
			return globals, err
		}
		if m.objectID != registryObjectID || m.opcode != evGlobal {
			continue
		}
		ar := &argReader{buf: m.args}
		name := ar.uint32()
		iface := ar.string()
		version := ar.uint32()
		globals = append(globals, global{name: name, iface: iface, version: version})

		if c.r.Buffered() == 0 {
			return globals, nil
		}
	}
}

// collectGammaSizes reads gamma_size (or failed) events for every pending
// output until all are resolved.
func (c *client) collectGammaSizes() error {
	pending := len(c.outputs)
	for pending > 0 {
		m, err := readMessage(c.r)
		if err != nil {
			return fmt.Errorf("read gamma_size events: %w", err)
		}
		for _, o := range c.outputs {
			if m.objectID != o.gammaControl {
				continue
			}
			switch m.opcode {
			case evGammaSize:
				ar := &argReader{buf: m.args}
				o.gammaSize = ar.uint32()
				o.sizeKnown = true
				pending--
			case evGammaFailed:
				return fmt.Errorf("gamma control failed for output %d", o.name)
			}
		}
	}
	return nil
}

func (c *client) bind(name uint32, iface string, version uint32, newID uint32) error {
	ab := &argBuilder{}
	ab.putUint32(name)
	ab.putString(iface)
	ab.putUint32(version)
	ab.putUint32(newID)
	return c.send(message{objectID: registryObjectID, opcode: opBind, args: ab.bytes()})
}

// setGamma sends the fd carrying the sealed ramp table to the output's
// gamma_control object via SCM_RIGHTS ancillary data. The request itself
// carries no inline arguments; the fd travels entirely as ancillary data.
func (c *client) setGamma(o *output, fd int) error {
	payload := encode(message{objectID: o.gammaControl, opcode: opSetGamma})
	oob := syscall.UnixRights(fd)
	_, _, err := c.conn.WriteMsgUnix(payload, oob, nil)
	return err
}

func (c *client) close() error {
	for _, o := range c.outputs {
		_ = c.send(message{objectID: o.gammaControl, opcode: opGammaDestroy})
	}
	if c.manager != 0 {
		_ = c.send(message{objectID: c.manager, opcode: opManagerDestroy})
	}
	return c.conn.Close()
}
