// Package gamma implements the direct-protocol backend: it speaks the
// Wayland wire protocol to the compositor itself, binding
// zwlr_gamma_control_manager_v1 and pushing gamma ramps over shared memory.
// There is no general-purpose Wayland client library in this dependency
// pack, so the wire encoding here is hand-written against the protocol's
// published wire format (4-byte object id, 2-byte opcode, 2-byte size,
// then arguments), the one place this module reaches for net/encoding
// primitives instead of a third-party client.
package gamma

import (
	"encoding/binary"
	"fmt"
	"io"
)

// message is a single Wayland wire message: a request sent to the
// compositor or an event received from it.
type message struct {
	objectID uint32
	opcode   uint16
	args     []byte
}

// encode serializes m into the wire format: object id, opcode, total
// message size (header + args), then the raw argument bytes.
func encode(m message) []byte {
	size := uint16(8 + len(m.args))
	buf := make([]byte, 8, size)
	binary.LittleEndian.PutUint32(buf[0:4], m.objectID)
	binary.LittleEndian.PutUint16(buf[4:6], m.opcode)
	binary.LittleEndian.PutUint16(buf[6:8], size)
	return append(buf, m.args...)
}

// readMessage reads one message's header and argument bytes from r.
func readMessage(r io.Reader) (message, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return message{}, fmt.Errorf("read message header: %w", err)
	}
	objectID := binary.LittleEndian.Uint32(header[0:4])
	opSize := binary.LittleEndian.Uint32(header[4:8])
	opcode := uint16(opSize & 0xffff)
	size := uint16(opSize >> 16)
	if size < 8 {
		return message{}, fmt.Errorf("malformed message: size %d < header size", size)
	}
	args := make([]byte, size-8)
	if len(args) > 0 {
		if _, err := io.ReadFull(r, args); err != nil {
			return message{}, fmt.Errorf("read message args: %w", err)
		}
	}
	return message{objectID: objectID, opcode: opcode, args: args}, nil
}

// argBuilder incrementally builds a request's argument bytes.
type argBuilder struct {
	buf []byte
}

func (a *argBuilder) putUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	a.buf = append(a.buf, b[:]...)
}

func (a *argBuilder) putInt32(v int32) { a.putUint32(uint32(v)) }

// putString appends a Wayland wire string: length (including NUL), bytes,
// NUL terminator, then padding to the next 4-byte boundary.
func (a *argBuilder) putString(s string) {
	n := len(s) + 1
	a.putUint32(uint32(n))
	a.buf = append(a.buf, s...)
	a.buf = append(a.buf, 0)
	for len(a.buf)%4 != 0 {
		a.buf = append(a.buf, 0)
	}
}

func (a *argBuilder) bytes() []byte { return a.buf }

// argReader incrementally decodes an event's argument bytes.
type argReader struct {
	buf []byte
	pos int
}

func (a *argReader) uint32() uint32 {
	v := binary.LittleEndian.Uint32(a.buf[a.pos : a.pos+4])
	a.pos += 4
	return v
}

func (a *argReader) int32() int32 { return int32(a.uint32()) }

func (a *argReader) string() string {
	n := int(a.uint32())
	s := string(a.buf[a.pos : a.pos+n-1])
	a.pos += n
	for a.pos%4 != 0 {
		a.pos++
	}
	return s
}
