package binarray

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntRead(t *testing.T) {
	buf := FromBytes([]byte{0x78, 0x56, 0x34, 0x12, 0xcd, 0xab, 0xff})

	v32, err := buf.U32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v32)

	v16, err := buf.U16(4)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xabcd), v16)

	v8, err := buf.U8(6)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), v8)
}

func TestOutOfRange(t *testing.T) {
	buf := FromBytes([]byte{1, 2, 3})

	_, err := buf.U32(0)
	assert.True(t, errors.Is(err, ErrOutOfRange), "U32 past end: %v", err)
	_, err = buf.U16(2)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = buf.U8(3)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = buf.U8(-1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = buf.Slice(1, 3)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	s, err := buf.Slice(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, s)
}

func TestBuilder(t *testing.T) {
	var w Builder
	w.U8(0x0c).U32(0).U16(0xabcd).Sz("ab")
	assert.Equal(t, 9+1, w.Len())
	w.PatchU32(1, 0x01020304)

	assert.Equal(t, []byte{0x0c, 0x04, 0x03, 0x02, 0x01, 0xcd, 0xab, 'a', 'b', 0}, w.Bytes())
}

func TestDigestStable(t *testing.T) {
	a := FromBytes([]byte("MES"))
	b := FromBytes([]byte("MES"))
	assert.Equal(t, a.Digest(), b.Digest())
}
