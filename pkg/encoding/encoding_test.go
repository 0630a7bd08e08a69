package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassification(t *testing.T) {
	for _, b := range []byte{0x81, 0x9f, 0xe0, 0xef} {
		assert.True(t, IsZenkaku(b), "IsZenkaku(0x%02x)", b)
	}
	for _, b := range []byte{0x00, 0x20, 0x7f, 0x80, 0xa0, 0xf0, 0xfc, 0xff} {
		assert.False(t, IsZenkaku(b), "IsZenkaku(0x%02x)", b)
	}
	for _, b := range []byte{0x20, 'A', 0x7e, 0xa1, 0xdf} {
		assert.True(t, IsHankaku(b), "IsHankaku(0x%02x)", b)
	}
	for _, b := range []byte{0x00, 0x16, 0x1f, 0x7f, 0x81, 0xa0, 0xe0} {
		assert.False(t, IsHankaku(b), "IsHankaku(0x%02x)", b)
	}
}

func TestShiftJISRoundTrip(t *testing.T) {
	sjis, err := FromUTF8("愛姉妹")
	require.NoError(t, err)
	assert.True(t, IsZenkaku(sjis[0]))

	s, err := ToUTF8(sjis, ShiftJIS)
	require.NoError(t, err)
	assert.Equal(t, "愛姉妹", s)

	raw, err := ToUTF8(sjis, Raw)
	require.NoError(t, err)
	assert.Equal(t, string(sjis), raw)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"", ShiftJIS},
		{"cp932", ShiftJIS},
		{"Shift_JIS", ShiftJIS},
		{"raw", Raw},
	}
	for _, tt := range tests {
		got, err := Parse(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
	_, err := Parse("euc-kr")
	assert.Error(t, err)
}
