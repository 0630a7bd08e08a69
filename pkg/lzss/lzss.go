// Package lzss implements the LZSS variant used by AI5 archives for
// compressed MES and data files.
//
// The stream is a sequence of groups: a flag byte followed by eight items,
// least significant flag bit first. A set bit is a literal byte. A clear bit
// is a two-byte back reference into a 4 KiB ring buffer that starts out
// zero-filled with the write position at 0xFEE:
//
//	byte 0: offset bits 0-7
//	byte 1: offset bits 8-11 (high nibble), length-3 (low nibble)
package lzss

import (
	"github.com/pkg/errors"
)

const (
	ringSize  = 4096
	ringMask  = ringSize - 1
	ringStart = 0xFEE
	minMatch  = 3
	maxMatch  = 0x0F + minMatch
	// keep references clear of the slot being written
	maxDistance = ringSize - maxMatch
)

// ErrCorrupt is returned for streams that end inside a back reference.
var ErrCorrupt = errors.New("corrupt LZSS stream")

// Decompress expands src. If size is positive, decoding stops once size
// bytes have been produced and a shorter result is an error; otherwise the
// whole stream is consumed.
func Decompress(src []byte, size int) ([]byte, error) {
	var ring [ringSize]byte
	r := ringStart

	capHint := size
	if capHint <= 0 {
		capHint = len(src) * 2
	}
	out := make([]byte, 0, capHint)
	full := func() bool { return size > 0 && len(out) >= size }

	pos := 0
	for pos < len(src) && !full() {
		flags := src[pos]
		pos++
		for bit := 0; bit < 8 && pos < len(src) && !full(); bit++ {
			if flags&1 != 0 {
				c := src[pos]
				pos++
				out = append(out, c)
				ring[r] = c
				r = (r + 1) & ringMask
			} else {
				if pos+1 >= len(src) {
					return nil, errors.Wrapf(ErrCorrupt, "back reference at 0x%x runs past end of data", pos)
				}
				lo, hi := src[pos], src[pos+1]
				pos += 2
				off := int(lo) | int(hi&0xF0)<<4
				n := int(hi&0x0F) + minMatch
				for k := 0; k < n && !full(); k++ {
					c := ring[(off+k)&ringMask]
					out = append(out, c)
					ring[r] = c
					r = (r + 1) & ringMask
				}
			}
			flags >>= 1
		}
	}
	if size > 0 && len(out) < size {
		return nil, errors.Wrapf(ErrCorrupt, "stream ended after %d of %d bytes", len(out), size)
	}
	return out, nil
}

// Compress encodes in. Matches are searched greedily within the already
// encoded input; the zero prefill of the ring is never referenced.
func Compress(in []byte) []byte {
	out := make([]byte, 0, len(in)+len(in)/8+1)

	pos := 0
	for pos < len(in) {
		flagPos := len(out)
		out = append(out, 0)
		var flags byte

		for bit := 0; bit < 8 && pos < len(in); bit++ {
			src, n := search(in, pos)
			if n < minMatch {
				out = append(out, in[pos])
				flags |= 1 << uint(bit)
				pos++
				continue
			}
			off := (ringStart + src) & ringMask
			out = append(out, byte(off), byte(off>>4)&0xF0|byte(n-minMatch))
			pos += n
		}
		out[flagPos] = flags
	}
	return out
}

// search returns the start and length of the longest match for in[pos:]
// within the preceding window.
func search(in []byte, pos int) (start, length int) {
	limit := maxMatch
	if pos+limit > len(in) {
		limit = len(in) - pos
	}
	if limit < minMatch {
		return 0, 0
	}
	lo := pos - maxDistance
	if lo < 0 {
		lo = 0
	}
	for s := pos - 1; s >= lo; s-- {
		n := 0
		for n < limit && in[s+n] == in[pos+n] {
			n++
		}
		if n > length {
			start, length = s, n
			if n == limit {
				break
			}
		}
	}
	return start, length
}
