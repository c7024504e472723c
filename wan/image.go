package wan

// This file contains the image store: tile streams are decompressed into
// flat pixel-index buffers here, palette-agnostic. Applying a palette happens
// only in render.go.

import (
	"encoding/binary"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/cursor"
)

const (
	// TileSize is the width and height of a tile in pixels.
	TileSize = 8
	// TilePixels is the number of pixel indices in a decompressed tile.
	TilePixels = TileSize * TileSize

	// MaxImagePixels is the size of the largest fragment resolution, 64x64.
	// No larger image can ever be drawn.
	MaxImagePixels = 64 * 64

	tokenSize    = 12
	maxRunLength = 0xFFFF
)

type storedImage struct {
	pixels []byte // one index per pixel, tile after tile
	zIndex uint32
}

// ImageStore holds every image of a sprite as decompressed pixel indices.
type ImageStore struct {
	images     []storedImage
	is256Color bool
}

// ParseImageStore decompresses the tile stream at each pointer.
//
// Every image must decompress to a whole number of tiles, otherwise
// ErrImageLengthMismatch is returned.
func ParseImageStore(c *cursor.Cursor, pointers []uint32, is256Color bool) (ImageStore, error) {
	s := ImageStore{
		images:     make([]storedImage, len(pointers)),
		is256Color: is256Color,
	}
	for i, ptr := range pointers {
		raw, z, err := DecompressTiles(c, int(ptr))
		if err != nil {
			return ImageStore{}, errors.Wrapf(err, "image %d", i)
		}
		pixels := unpackPixels(raw, is256Color)
		if len(pixels) > MaxImagePixels {
			return ImageStore{}, errors.Wrapf(ErrImageLengthMismatch, "image %d: %d pixels, more than the largest fragment", i, len(pixels))
		}
		if len(pixels)%TilePixels != 0 {
			return ImageStore{}, errors.Wrapf(ErrImageLengthMismatch, "image %d: %d pixels is not a whole number of %dx%d tiles", i, len(pixels), TileSize, TileSize)
		}
		glog.V(3).Infof("image %d: %d tiles, z-index %d", i, len(pixels)/TilePixels, z)
		s.images[i] = storedImage{pixels: pixels, zIndex: z}
	}
	return s, nil
}

// DecompressTiles reads the tile stream at ptr and returns the raw (still
// packed) bytes it describes, together with the z-index of its first token.
//
// A stream is a list of 12-byte tokens: u32 source pointer, u16 byte count,
// u16 reserved (zero), u32 z-index. A token with a source pointer is a literal
// run copied from that pointer; a token without one is a run of zero bytes; a
// token with neither ends the stream.
//
// Streams producing more than MaxImagePixels bytes fail with
// ErrImageLengthMismatch before the excess is allocated.
func DecompressTiles(c *cursor.Cursor, ptr int) ([]byte, uint32, error) {
	var (
		out    []byte
		zIndex uint32
	)
	for n := 0; ; n++ {
		at := ptr + n*tokenSize
		tok, err := c.BytesAt(at, tokenSize)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "reading tile token %d", n)
		}
		src := binary.LittleEndian.Uint32(tok[0:])
		count := int(binary.LittleEndian.Uint16(tok[4:]))
		reserved := binary.LittleEndian.Uint16(tok[6:])
		z := binary.LittleEndian.Uint32(tok[8:])

		switch {
		case reserved != 0:
			return nil, 0, errors.Wrapf(ErrCorruptTileStream, "token %d at 0x%x: reserved word is 0x%04x", n, at, reserved)
		case src == 0 && count == 0:
			return out, zIndex, nil
		case src != 0 && count == 0:
			return nil, 0, errors.Wrapf(ErrCorruptTileStream, "token %d at 0x%x: empty literal run from 0x%x", n, at, src)
		case len(out)+count > MaxImagePixels:
			return nil, 0, errors.Wrapf(ErrImageLengthMismatch, "token %d at 0x%x: stream exceeds %d bytes", n, at, MaxImagePixels)
		case src == 0:
			out = append(out, make([]byte, count)...)
		default:
			lit, err := c.BytesAt(int(src), count)
			if err != nil {
				return nil, 0, errors.Wrapf(err, "token %d at 0x%x: literal run", n, at)
			}
			out = append(out, lit...)
		}
		if n == 0 {
			zIndex = z
		}
	}
}

// TileRun is one token of a tile stream: either Literal bytes, or Zeros zero
// bytes.
type TileRun struct {
	Literal []byte
	Zeros   int
}

// Len returns the number of raw bytes the run produces.
func (r TileRun) Len() int {
	if r.Literal != nil {
		return len(r.Literal)
	}
	return r.Zeros
}

// CompressTiles splits raw into runs, chunkSize bytes at a time: all-zero
// chunks become zero runs, other chunks literal runs. Adjacent runs of the
// same kind are merged up to the maximum run length. Feeding the runs back
// through DecompressTiles yields raw again.
func CompressTiles(raw []byte, chunkSize int) []TileRun {
	if chunkSize <= 0 {
		chunkSize = len(raw)
	}
	var runs []TileRun
	for start := 0; start < len(raw); start += chunkSize {
		end := start + chunkSize
		if end > len(raw) {
			end = len(raw)
		}
		chunk := raw[start:end]
		zero := isZero(chunk)

		if len(runs) > 0 {
			last := &runs[len(runs)-1]
			if zero && last.Literal == nil && last.Zeros+len(chunk) <= maxRunLength {
				last.Zeros += len(chunk)
				continue
			}
			if !zero && last.Literal != nil && len(last.Literal)+len(chunk) <= maxRunLength {
				last.Literal = append(last.Literal, chunk...)
				continue
			}
		}
		if zero {
			runs = append(runs, TileRun{Zeros: len(chunk)})
		} else {
			runs = append(runs, TileRun{Literal: append([]byte(nil), chunk...)})
		}
	}
	return runs
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// unpackPixels expands raw bytes to one index per pixel. 16-color images pack
// two pixels per byte, low nibble first.
func unpackPixels(raw []byte, is256Color bool) []byte {
	if is256Color {
		return append([]byte(nil), raw...)
	}
	out := make([]byte, 0, len(raw)*2)
	for _, b := range raw {
		out = append(out, b&0x0F, b>>4)
	}
	return out
}

// packPixels is the inverse of unpackPixels.
func packPixels(pixels []byte, is256Color bool) ([]byte, error) {
	if is256Color {
		return append([]byte(nil), pixels...), nil
	}
	if len(pixels)%2 != 0 {
		return nil, errors.Wrapf(ErrImageLengthMismatch, "odd pixel count %d in a 16-color image", len(pixels))
	}
	out := make([]byte, len(pixels)/2)
	for i := range out {
		lo, hi := pixels[i*2], pixels[i*2+1]
		if lo > 0x0F || hi > 0x0F {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "pixel index %d/%d in a 16-color image", lo, hi)
		}
		out[i] = lo | hi<<4
	}
	return out, nil
}

// Len returns the number of images.
func (s *ImageStore) Len() int {
	return len(s.images)
}

// Is256Color reports whether pixel indices are 8 bit (otherwise 4 bit).
func (s *ImageStore) Is256Color() bool {
	return s.is256Color
}

func (s *ImageStore) pixels(idx int) ([]byte, error) {
	if idx < 0 || idx >= len(s.images) {
		return nil, indexError("image", idx, len(s.images))
	}
	return s.images[idx].pixels, nil
}

// TileBytes returns a copy of the decompressed pixel indices of image idx,
// tile after tile, each tile row-major.
func (s *ImageStore) TileBytes(idx int) ([]byte, error) {
	px, err := s.pixels(idx)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), px...), nil
}

// ZIndex returns the z-index stored with image idx.
func (s *ImageStore) ZIndex(idx int) (uint32, error) {
	if idx < 0 || idx >= len(s.images) {
		return 0, indexError("image", idx, len(s.images))
	}
	return s.images[idx].zIndex, nil
}
