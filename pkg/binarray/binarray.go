// Package binarray provides binary buffer operations for reading and writing
// AI5 MES bytecode files.
//
// All integer operations use little-endian byte order, matching the AI5
// engine's native format (x86 DOS/Windows).
package binarray

import (
	"crypto/md5"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// ErrOutOfRange is returned by the checked accessors when a read would run
// past the end of the buffer.
var ErrOutOfRange = errors.New("read past end of buffer")

// Buffer wraps a byte slice with bounds-checked little-endian accessors.
type Buffer struct {
	Data []byte
}

// FromBytes wraps an existing byte slice (no copy).
func FromBytes(data []byte) *Buffer {
	return &Buffer{Data: data}
}

// Len returns the buffer length.
func (b *Buffer) Len() int {
	return len(b.Data)
}

func (b *Buffer) check(idx, n int) error {
	if idx < 0 || idx+n > len(b.Data) {
		return errors.Wrapf(ErrOutOfRange, "%d bytes at 0x%x (size 0x%x)", n, idx, len(b.Data))
	}
	return nil
}

// U8 reads a single unsigned byte.
func (b *Buffer) U8(idx int) (uint8, error) {
	if err := b.check(idx, 1); err != nil {
		return 0, err
	}
	return b.Data[idx], nil
}

// U16 reads a 16-bit unsigned integer.
func (b *Buffer) U16(idx int) (uint16, error) {
	if err := b.check(idx, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b.Data[idx:]), nil
}

// U32 reads a 32-bit unsigned integer.
func (b *Buffer) U32(idx int) (uint32, error) {
	if err := b.check(idx, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.Data[idx:]), nil
}

// Slice returns n bytes starting at idx (shared memory).
func (b *Buffer) Slice(idx, n int) ([]byte, error) {
	if err := b.check(idx, n); err != nil {
		return nil, err
	}
	return b.Data[idx : idx+n], nil
}

// ReadFile reads an entire file into a new Buffer.
func ReadFile(fname string) (*Buffer, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read '%s'", fname)
	}
	return &Buffer{Data: data}, nil
}

// Digest returns the MD5 digest of the buffer contents.
func (b *Buffer) Digest() [16]byte {
	return md5.Sum(b.Data)
}

// Builder assembles a little-endian byte stream. It is mostly used to
// hand-write bytecode for tests and fixtures.
type Builder struct {
	data []byte
}

// Len returns the number of bytes written so far, i.e. the address of the
// next byte.
func (w *Builder) Len() int { return len(w.data) }

// U8 appends bytes verbatim.
func (w *Builder) U8(v ...byte) *Builder {
	w.data = append(w.data, v...)
	return w
}

// U16 appends a 16-bit integer.
func (w *Builder) U16(v uint16) *Builder {
	w.data = binary.LittleEndian.AppendUint16(w.data, v)
	return w
}

// U32 appends a 32-bit integer.
func (w *Builder) U32(v uint32) *Builder {
	w.data = binary.LittleEndian.AppendUint32(w.data, v)
	return w
}

// Sz appends s followed by a NUL terminator.
func (w *Builder) Sz(s string) *Builder {
	w.data = append(w.data, s...)
	w.data = append(w.data, 0)
	return w
}

// PatchU32 overwrites a 32-bit integer previously written at idx. Used to
// fill in forward jump addresses.
func (w *Builder) PatchU32(idx int, v uint32) *Builder {
	binary.LittleEndian.PutUint32(w.data[idx:], v)
	return w
}

// Bytes returns the assembled data.
func (w *Builder) Bytes() []byte {
	return w.data
}
