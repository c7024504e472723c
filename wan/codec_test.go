package wan

import (
	"bytes"
	"encoding/binary"
	"testing"

	"badc0de.net/pkg/go-pmdwan/cursor"
	"badc0de.net/pkg/go-pmdwan/ttesting"
)

func token(src uint32, count, reserved uint16, z uint32) []byte {
	b := make([]byte, tokenSize)
	binary.LittleEndian.PutUint32(b[0:], src)
	binary.LittleEndian.PutUint16(b[4:], count)
	binary.LittleEndian.PutUint16(b[6:], reserved)
	binary.LittleEndian.PutUint32(b[8:], z)
	return b
}

func TestDecompressTiles(t *testing.T) {
	var buf []byte
	buf = append(buf, token(36, 4, 0, 7)...)
	buf = append(buf, token(0, 3, 0, 0)...)
	buf = append(buf, token(0, 0, 0, 0)...)
	buf = append(buf, 1, 2, 3, 4)

	raw, z, err := DecompressTiles(cursor.New(buf), 0)
	ttesting.AssertNoError(t, "decompress", err)
	ttesting.AssertEqualBytes(t, "raw", raw, []byte{1, 2, 3, 4, 0, 0, 0})
	ttesting.AssertEqualUint32(t, "z-index", z, 7)
}

func TestDecompressTilesErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		buf  []byte
		want error
	}{
		{"reserved word", append(token(0, 64, 1, 0), token(0, 0, 0, 0)...), ErrCorruptTileStream},
		{"empty literal", append(token(24, 0, 0, 0), token(0, 0, 0, 0)...), ErrCorruptTileStream},
		{"no terminator", token(0, 64, 0, 0), ErrOutOfBounds},
		{"literal past end", append(token(24, 8, 0, 0), token(0, 0, 0, 0)...), ErrOutOfBounds},
	} {
		_, _, err := DecompressTiles(cursor.New(tc.buf), 0)
		ttesting.AssertErrorIs(t, tc.name, err, tc.want)
	}
}

func TestCompressTilesRoundTrip(t *testing.T) {
	raw := append(bytes.Repeat([]byte{0}, 64), bytes.Repeat([]byte{5}, 40)...)
	raw = append(raw, bytes.Repeat([]byte{0}, 24)...)

	runs := CompressTiles(raw, 32)
	ttesting.AssertEqualInt(t, "runs", len(runs), 2)
	ttesting.AssertEqualInt(t, "zero run", runs[0].Zeros, 64)
	ttesting.AssertEqualInt(t, "literal run", runs[1].Len(), 64)

	// Lay the runs out as a stream and read it back.
	var tokens, literals []byte
	base := uint32((len(runs) + 1) * tokenSize)
	for _, r := range runs {
		if r.Literal != nil {
			tokens = append(tokens, token(base+uint32(len(literals)), uint16(r.Len()), 0, 0)...)
			literals = append(literals, r.Literal...)
		} else {
			tokens = append(tokens, token(0, uint16(r.Zeros), 0, 0)...)
		}
	}
	tokens = append(tokens, token(0, 0, 0, 0)...)
	got, _, err := DecompressTiles(cursor.New(append(tokens, literals...)), 0)
	ttesting.AssertNoError(t, "decompress", err)
	ttesting.AssertEqualBytes(t, "raw", got, raw)
}

func TestCompressTilesSplitsLongRuns(t *testing.T) {
	runs := CompressTiles(make([]byte, 3*maxRunLength), 64)
	total := 0
	for _, r := range runs {
		if r.Zeros > maxRunLength {
			t.Errorf("run of %d zeros", r.Zeros)
		}
		total += r.Len()
	}
	ttesting.AssertEqualInt(t, "total", total, 3*maxRunLength)
}

func TestPixelPacking(t *testing.T) {
	px := unpackPixels([]byte{0x21, 0xF0}, false)
	ttesting.AssertEqualBytes(t, "unpacked", px, []byte{1, 2, 0, 15})

	raw, err := packPixels(px, false)
	ttesting.AssertNoError(t, "pack", err)
	ttesting.AssertEqualBytes(t, "packed", raw, []byte{0x21, 0xF0})

	_, err = packPixels([]byte{1}, false)
	ttesting.AssertErrorIs(t, "odd count", err, ErrImageLengthMismatch)
}

func fragmentRecord(image int16, attr0, attr1, attr2 uint16) []byte {
	b := make([]byte, fragmentRecordSize)
	binary.LittleEndian.PutUint16(b[0:], uint16(image))
	binary.LittleEndian.PutUint16(b[4:], attr0)
	binary.LittleEndian.PutUint16(b[6:], attr1)
	binary.LittleEndian.PutUint16(b[8:], attr2)
	return b
}

func TestDecodeFragment(t *testing.T) {
	// Wide, size 2; y -16; x -8; last; hflip; palette 3, priority 1, tile 5.
	rec := fragmentRecord(4, 0x4000|0x00F0, 0x8000|0x00F8|0x0800|0x1000, 0x3000|0x0400|5)
	f, err := decodeFragment(rec, -1)
	ttesting.AssertNoError(t, "decode", err)
	ttesting.AssertEqualInt(t, "image", f.ImageIndex, 4)
	ttesting.AssertEqualInt(t, "width", f.Resolution.Width, 32)
	ttesting.AssertEqualInt(t, "height", f.Resolution.Height, 16)
	ttesting.AssertEqualInt(t, "x", f.OffsetX, -8)
	ttesting.AssertEqualInt(t, "y", f.OffsetY, -16)
	ttesting.AssertEqualBool(t, "last", f.IsLast, true)
	ttesting.AssertEqualBool(t, "hflip", f.HFlip, true)
	ttesting.AssertEqualBool(t, "vflip", f.VFlip, false)
	ttesting.AssertEqualInt(t, "palette", f.PaletteIndex, 3)
	ttesting.AssertEqualInt(t, "priority", f.Priority, 1)
	ttesting.AssertEqualInt(t, "tile", int(f.TileNum), 5)

	enc, err := encodeFragment(f, true)
	ttesting.AssertNoError(t, "encode", err)
	ttesting.AssertEqualBytes(t, "re-encoded", enc, rec)
}

func TestDecodeFragmentErrors(t *testing.T) {
	_, err := decodeFragment(fragmentRecord(0, 0xC000, 0, 0), -1)
	ttesting.AssertErrorIs(t, "shape 3", err, ErrUnknownResolutionCode)

	_, err = decodeFragment(fragmentRecord(-1, 0, 0, 0), -1)
	ttesting.AssertErrorIs(t, "reuse without previous", err, ErrDanglingImageReuse)

	f, err := decodeFragment(fragmentRecord(-1, 0, 0, 0), 6)
	ttesting.AssertNoError(t, "reuse", err)
	ttesting.AssertEqualInt(t, "reused image", f.ImageIndex, 6)
	ttesting.AssertEqualBool(t, "reused flag", f.ImageReused, true)
}

func TestResolutionTable(t *testing.T) {
	seen := map[Resolution]bool{}
	for shape := ShapeSquare; shape <= ShapeTall; shape++ {
		for size := uint8(0); size < 4; size++ {
			r, err := ResolutionFor(shape, size)
			ttesting.AssertNoError(t, "lookup", err)
			if r.Width%TileSize != 0 || r.Height%TileSize != 0 {
				t.Errorf("%s is not a whole number of tiles", r)
			}
			if seen[r] {
				t.Errorf("%s listed twice", r)
			}
			seen[r] = true

			gotShape, gotSize, err := r.Codes()
			ttesting.AssertNoError(t, "codes", err)
			ttesting.AssertEqualInt(t, r.String()+" shape", int(gotShape), int(shape))
			ttesting.AssertEqualInt(t, r.String()+" size", int(gotSize), int(size))
		}
	}
	_, err := ResolutionFor(ShapeSquare, 4)
	ttesting.AssertErrorIs(t, "size 4", err, ErrUnknownResolutionCode)
	_, _, err = Resolution{24, 24}.Codes()
	ttesting.AssertErrorIs(t, "24x24", err, ErrUnknownResolutionCode)
}

func TestNewFrameGroupStoreDangling(t *testing.T) {
	_, err := NewFrameGroupStore([][]int{{0, 1}, {2}}, 2)
	ttesting.AssertErrorIs(t, "fragment 2 of 2", err, ErrDanglingFragmentReference)

	s, err := NewFrameGroupStore([][]int{{0, 1}, nil}, 2)
	ttesting.AssertNoError(t, "valid", err)
	ttesting.AssertEqualInt(t, "groups", s.Len(), 2)
}

func TestParsePalette(t *testing.T) {
	buf := make([]byte, 4+SubPaletteSize*4)
	for i := 0; i < SubPaletteSize; i++ {
		copy(buf[4+i*4:], []byte{byte(i), byte(i * 2), byte(i * 3), opaqueAlpha})
	}
	c := cursor.New(buf)

	p, err := ParsePalette(c, 4, SubPaletteSize)
	ttesting.AssertNoError(t, "parse", err)
	ttesting.AssertEqualInt(t, "sub-palettes", p.SubPaletteCount(), 1)
	col, err := p.ColorAt(0, 5)
	ttesting.AssertNoError(t, "color", err)
	ttesting.AssertEqualInt(t, "green", int(col.G), 10)

	sub, err := p.SubPalette(0)
	ttesting.AssertNoError(t, "sub-palette", err)
	_, _, _, a := sub[0].RGBA()
	ttesting.AssertEqualUint32(t, "entry 0 transparent", a, 0)
	_, _, _, a = sub[1].RGBA()
	ttesting.AssertEqualUint32(t, "entry 1 opaque", a, 0xFFFF)

	_, err = p.ColorAt(1, 0)
	ttesting.AssertErrorIs(t, "sub-palette 1", err, ErrIndexOutOfRange)
	_, err = p.ColorAt(0, SubPaletteSize)
	ttesting.AssertErrorIs(t, "entry 16", err, ErrIndexOutOfRange)

	_, err = ParsePalette(c, 4, 0)
	ttesting.AssertErrorIs(t, "no entries", err, ErrMalformedPalette)
	_, err = ParsePalette(c, 4, 17)
	ttesting.AssertErrorIs(t, "17 entries", err, ErrMalformedPalette)
	_, err = ParsePalette(c, 8, SubPaletteSize)
	ttesting.AssertErrorIs(t, "truncated kind", err, ErrMalformedPalette)
	ttesting.AssertErrorIs(t, "truncated cause", err, ErrOutOfBounds)
}

func TestDecompressTilesLimit(t *testing.T) {
	var buf []byte
	for i := 0; i < 1000; i++ {
		buf = append(buf, token(0, maxRunLength, 0, 0)...)
	}
	buf = append(buf, token(0, 0, 0, 0)...)
	_, _, err := DecompressTiles(cursor.New(buf), 0)
	ttesting.AssertErrorIs(t, "65535000 zero bytes", err, ErrImageLengthMismatch)

	buf = append(token(0, MaxImagePixels, 0, 0), token(0, 0, 0, 0)...)
	raw, _, err := DecompressTiles(cursor.New(buf), 0)
	ttesting.AssertNoError(t, "64x64", err)
	ttesting.AssertEqualInt(t, "64x64 length", len(raw), MaxImagePixels)

	// 2112 packed bytes unpack to 4224 pixels.
	buf = append(token(0, 2112, 0, 0), token(0, 0, 0, 0)...)
	_, err = ParseImageStore(cursor.New(buf), []uint32{0}, false)
	ttesting.AssertErrorIs(t, "16-color image over 64x64", err, ErrImageLengthMismatch)
	_, err = ParseImageStore(cursor.New(buf), []uint32{0}, true)
	ttesting.AssertNoError(t, "256-color image of 2112 pixels", err)
}
