// Package sir0 reads and writes the SIR0 wrapper used by many Pokémon Mystery
// Dungeon data files, including WAN sprites.
//
// A SIR0 file carries its payload together with a list of the offsets of all
// pointers stored in it, so the game can relocate the file in memory. No
// meaning is assigned to the payload; that is the task of readers for an
// individual format.
package sir0

import (
	"encoding/binary"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/cursor"
)

// Magic starts every SIR0 file.
const Magic = "SIR0"

// HeaderSize is the size of the SIR0 header; payloads start right after it.
const HeaderSize = 16

var ErrBadMagic = errors.New("sir0: bad magic")

// File is a parsed SIR0 wrapper.
type File struct {
	// Data is the whole file, header included. Pointers inside it are
	// absolute offsets into Data.
	Data []byte

	// Content is the offset of the payload's header (the format-specific
	// entry point).
	Content int

	// Pointers lists the offsets of every pointer in Data, ascending. The two
	// header pointers are included.
	Pointers []uint32
}

// Parse reads the SIR0 header and its pointer offset list.
func Parse(buf []byte) (*File, error) {
	c := cursor.New(buf)
	magic, err := c.Bytes(4)
	if err != nil {
		return nil, errors.Wrap(err, "sir0: reading magic")
	}
	if string(magic) != Magic {
		return nil, errors.Wrapf(ErrBadMagic, "got %q, want %q", magic, Magic)
	}
	content, err := c.U32()
	if err != nil {
		return nil, errors.Wrap(err, "sir0: reading content pointer")
	}
	list, err := c.U32()
	if err != nil {
		return nil, errors.Wrap(err, "sir0: reading pointer list pointer")
	}
	if int(content) >= len(buf) {
		return nil, errors.Wrapf(&cursor.OutOfBoundsError{Offset: int(content), Width: 1, Len: len(buf)}, "sir0: content pointer 0x%x", content)
	}

	if err := c.Seek(int(list)); err != nil {
		return nil, errors.Wrap(err, "sir0: seeking to pointer list")
	}
	pointers, err := decodePointerList(c)
	if err != nil {
		return nil, errors.Wrap(err, "sir0: decoding pointer list")
	}
	glog.V(3).Infof("sir0: content at 0x%x, %d pointers", content, len(pointers))

	return &File{
		Data:     buf,
		Content:  int(content),
		Pointers: pointers,
	}, nil
}

// decodePointerList reads delta-encoded pointer offsets: 7 bits per byte, most
// significant group first, high bit set on every byte but the last of a
// value. A lone zero byte ends the list.
func decodePointerList(c *cursor.Cursor) ([]uint32, error) {
	var (
		out []uint32
		cur uint32
		acc uint32
	)
	for {
		b, err := c.U8()
		if err != nil {
			return nil, err
		}
		acc = acc<<7 | uint32(b&0x7F)
		if b&0x80 != 0 {
			continue
		}
		if acc == 0 {
			return out, nil
		}
		cur += acc
		out = append(out, cur)
		acc = 0
	}
}

func encodePointerList(offsets []uint32) []byte {
	var out []byte
	var prev uint32
	for _, off := range offsets {
		delta := off - prev
		prev = off

		var groups []byte
		for {
			groups = append(groups, byte(delta&0x7F))
			delta >>= 7
			if delta == 0 {
				break
			}
		}
		for i := len(groups) - 1; i >= 0; i-- {
			b := groups[i]
			if i > 0 {
				b |= 0x80
			}
			out = append(out, b)
		}
	}
	return append(out, 0)
}

func pad16(b []byte) []byte {
	for len(b)%16 != 0 {
		b = append(b, 0xAA)
	}
	return b
}

// Wrap builds a SIR0 file around payload.
//
// contentOffset and pointerOffsets are relative to the start of payload, and so
// are the pointer values stored at pointerOffsets: Wrap rebases all of them by
// HeaderSize. pointerOffsets must be ascending and must not list null pointers.
func Wrap(payload []byte, contentOffset uint32, pointerOffsets []uint32) []byte {
	out := make([]byte, HeaderSize, HeaderSize+len(payload)+len(pointerOffsets)+32)
	copy(out, Magic)
	out = append(out, payload...)

	absolute := make([]uint32, 0, len(pointerOffsets)+2)
	absolute = append(absolute, 4, 8)
	for _, off := range pointerOffsets {
		at := int(off) + HeaderSize
		v := binary.LittleEndian.Uint32(out[at:])
		binary.LittleEndian.PutUint32(out[at:], v+HeaderSize)
		absolute = append(absolute, off+HeaderSize)
	}

	out = pad16(out)
	listOffset := len(out)
	out = append(out, encodePointerList(absolute)...)
	out = pad16(out)

	binary.LittleEndian.PutUint32(out[4:], contentOffset+HeaderSize)
	binary.LittleEndian.PutUint32(out[8:], uint32(listOffset))
	return out
}
