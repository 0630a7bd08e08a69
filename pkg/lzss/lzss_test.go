package lzss

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompressLiteralsAndReference(t *testing.T) {
	// three literals, then 6 bytes from the first ring slot written
	src := []byte{0x07, 'a', 'b', 'c', 0xee, 0xf3}
	out, err := Decompress(src, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcabcabc"), out)
}

func TestDecompressZeroPrefill(t *testing.T) {
	out, err := Decompress([]byte{0x00, 0x00, 0x00}, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0}, out)
}

func TestDecompressSize(t *testing.T) {
	src := []byte{0x07, 'a', 'b', 'c', 0xee, 0xf3}
	out, err := Decompress(src, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcab"), out)

	_, err = Decompress(src, 20)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestDecompressTruncatedReference(t *testing.T) {
	_, err := Decompress([]byte{0x01, 'a', 0xee}, 0)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	noise := make([]byte, 10000)
	rng.Read(noise)

	tests := map[string][]byte{
		"empty":  {},
		"short":  []byte("ab"),
		"run":    bytes.Repeat([]byte{0x41}, 5000),
		"text":   bytes.Repeat([]byte("var16[3] = 1 + 2;\n"), 400),
		"noise":  noise,
		"zeroes": make([]byte, 300),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			packed := Compress(data)
			out, err := Decompress(packed, len(data))
			require.NoError(t, err)
			assert.Equal(t, data, out)

			out, err = Decompress(packed, 0)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompressShrinksRepetitiveInput(t *testing.T) {
	data := bytes.Repeat([]byte("SYS[2](5);"), 200)
	assert.Less(t, len(Compress(data)), len(data)/4)
}
