package gamma

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ab := &argBuilder{}
	ab.putUint32(42)
	ab.putString("zwlr_gamma_control_manager_v1")
	ab.putUint32(3)

	m := message{objectID: 2, opcode: 0, args: ab.bytes()}
	wire := encode(m)

	got, err := readMessage(bytes.NewReader(wire))
	require.NoError(t, err)
	assert.Equal(t, m.objectID, got.objectID)
	assert.Equal(t, m.opcode, got.opcode)
	assert.Equal(t, m.args, got.args)

	ar := &argReader{buf: got.args}
	assert.Equal(t, uint32(42), ar.uint32())
	assert.Equal(t, "zwlr_gamma_control_manager_v1", ar.string())
	assert.Equal(t, uint32(3), ar.uint32())
}

func TestPutStringPadsToWordBoundary(t *testing.T) {
	ab := &argBuilder{}
	ab.putString("ab")
	// length word (4) + "ab\0" (3) padded to 4 = 8 bytes total.
	assert.Equal(t, 8, len(ab.bytes()))
}

func TestEncodeEmptyArgsMessage(t *testing.T) {
	wire := encode(message{objectID: 7, opcode: 1})
	assert.Equal(t, 8, len(wire))
}
