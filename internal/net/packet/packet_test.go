package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderFields(t *testing.T) {
	w := NewWriterWithOpcode(S_OPCODE_OBJECT_CREATE)
	w.WriteC(7)
	w.WriteH(0xBEEF)
	w.WriteD(-2)
	w.WriteQ(0xF130000000000042)
	w.WriteF(-1234.5)
	w.WriteS("hello")
	w.WriteS("")
	assert.Equal(t, 1+1+2+4+8+4+6+1, w.Len())

	r := NewReader(w.Bytes())
	assert.Equal(t, S_OPCODE_OBJECT_CREATE, r.Opcode())
	assert.Equal(t, byte(7), r.ReadC())
	assert.Equal(t, uint16(0xBEEF), r.ReadH())
	assert.Equal(t, int32(-2), r.ReadD())
	assert.Equal(t, uint64(0xF130000000000042), r.ReadQ())
	assert.Equal(t, float32(-1234.5), r.ReadF())
	assert.Equal(t, "hello", r.ReadS())
	assert.Equal(t, "", r.ReadS())
	assert.Zero(t, r.Remaining())
}

func TestReaderPastEnd(t *testing.T) {
	r := NewReader([]byte{S_OPCODE_MESSAGE, 1})
	assert.Equal(t, uint64(0), r.ReadQ())
	assert.Equal(t, byte(1), r.ReadC())
	assert.Equal(t, byte(0), r.ReadC())
	assert.Equal(t, int32(0), r.ReadD())
	assert.Empty(t, r.ReadBytes(4))
	assert.Equal(t, byte(0), NewReader(nil).Opcode())
}

func TestCharset(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, SetCharset("utf-8")) })

	require.NoError(t, SetCharset("windows-1252"))
	w := NewWriter()
	w.WriteS("café")
	assert.Equal(t, []byte{'c', 'a', 'f', 0xE9, 0}, w.Bytes())

	r := &Reader{data: w.Bytes()}
	assert.Equal(t, "café", r.ReadS())

	assert.Error(t, SetCharset("no-such-charset"))
}
