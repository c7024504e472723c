// Package cursor implements a bounds-checked reader over an immutable byte
// buffer.
//
// Pointer-table formats (such as SIR0-wrapped WAN sprites) jump around the
// file a lot, so both sequential reads (which advance the position) and
// absolute reads (which never do) are offered. All integers are little-endian.
package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfBounds is matched (with errors.Is) by every *OutOfBoundsError.
var ErrOutOfBounds = errors.New("read out of bounds")

// OutOfBoundsError describes a read that would go past the end of the buffer.
type OutOfBoundsError struct {
	Offset int // where the read started
	Width  int // how many bytes were requested
	Len    int // buffer length
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("read out of bounds: offset 0x%x width %d, buffer length 0x%x", e.Offset, e.Width, e.Len)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Cursor is a read position over a buffer. The buffer is never modified.
//
// A Cursor is not safe for concurrent use, but any number of cursors may share
// the same buffer.
type Cursor struct {
	buf []byte
	pos int
}

// New returns a cursor positioned at the start of buf.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Len returns the length of the underlying buffer.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Pos returns the current read position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Seek moves the read position to off. Seeking to Len() is allowed; any read
// from there fails.
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.buf) {
		return &OutOfBoundsError{Offset: off, Width: 0, Len: len(c.buf)}
	}
	c.pos = off
	return nil
}

func (c *Cursor) check(off, width int) error {
	if off < 0 || width < 0 || off > len(c.buf) || width > len(c.buf)-off {
		return &OutOfBoundsError{Offset: off, Width: width, Len: len(c.buf)}
	}
	return nil
}

// BytesAt returns n bytes starting at off. The returned slice aliases the
// buffer, but its capacity is clipped so appending to it cannot write into the
// buffer.
func (c *Cursor) BytesAt(off, n int) ([]byte, error) {
	if err := c.check(off, n); err != nil {
		return nil, err
	}
	return c.buf[off : off+n : off+n], nil
}

func (c *Cursor) U8At(off int) (uint8, error) {
	if err := c.check(off, 1); err != nil {
		return 0, err
	}
	return c.buf[off], nil
}

func (c *Cursor) U16At(off int) (uint16, error) {
	if err := c.check(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(c.buf[off:]), nil
}

func (c *Cursor) U32At(off int) (uint32, error) {
	if err := c.check(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(c.buf[off:]), nil
}

// Bytes reads n bytes at the current position and advances past them.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	b, err := c.BytesAt(c.pos, n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}

func (c *Cursor) U8() (uint8, error) {
	v, err := c.U8At(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos++
	return v, nil
}

func (c *Cursor) I8() (int8, error) {
	v, err := c.U8()
	return int8(v), err
}

func (c *Cursor) U16() (uint16, error) {
	v, err := c.U16At(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 2
	return v, nil
}

func (c *Cursor) I16() (int16, error) {
	v, err := c.U16()
	return int16(v), err
}

func (c *Cursor) U32() (uint32, error) {
	v, err := c.U32At(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 4
	return v, nil
}
