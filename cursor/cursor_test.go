package cursor

import (
	"errors"
	"testing"

	"badc0de.net/pkg/go-pmdwan/ttesting"
)

func TestSequentialReads(t *testing.T) {
	c := New([]byte{0x01, 0x34, 0x12, 0x78, 0x56, 0x34, 0x12, 0xFE, 0xFF, 0xAA, 0xBB})

	u8, err := c.U8()
	ttesting.AssertNoError(t, "u8", err)
	ttesting.AssertEqualInt(t, "u8 value", int(u8), 1)

	u16, err := c.U16()
	ttesting.AssertNoError(t, "u16", err)
	ttesting.AssertEqualInt(t, "u16 value", int(u16), 0x1234)

	u32, err := c.U32()
	ttesting.AssertNoError(t, "u32", err)
	ttesting.AssertEqualUint32(t, "u32 value", u32, 0x12345678)

	i16, err := c.I16()
	ttesting.AssertNoError(t, "i16", err)
	ttesting.AssertEqualInt(t, "i16 value", int(i16), -2)

	b, err := c.Bytes(2)
	ttesting.AssertNoError(t, "bytes", err)
	ttesting.AssertEqualBytes(t, "bytes value", b, []byte{0xAA, 0xBB})

	ttesting.AssertEqualInt(t, "position at end", c.Pos(), c.Len())
}

func TestAbsoluteReadsDoNotMove(t *testing.T) {
	c := New([]byte{0, 0, 0x10, 0x20, 0x30, 0x40})
	v, err := c.U32At(2)
	ttesting.AssertNoError(t, "u32 at 2", err)
	ttesting.AssertEqualUint32(t, "u32 at 2 value", v, 0x40302010)
	ttesting.AssertEqualInt(t, "position untouched", c.Pos(), 0)

	v16, err := c.U16At(4)
	ttesting.AssertNoError(t, "u16 at 4", err)
	ttesting.AssertEqualInt(t, "u16 at 4 value", int(v16), 0x4030)
	ttesting.AssertEqualInt(t, "position still untouched", c.Pos(), 0)
}

func TestOutOfBounds(t *testing.T) {
	c := New(make([]byte, 6))

	for _, tc := range []struct {
		name  string
		read  func() error
		off   int
		width int
	}{
		{"u32 straddling end", func() error { _, err := c.U32At(3); return err }, 3, 4},
		{"u16 past end", func() error { _, err := c.U16At(6); return err }, 6, 2},
		{"u8 at end", func() error { _, err := c.U8At(6); return err }, 6, 1},
		{"bytes too long", func() error { _, err := c.BytesAt(2, 5); return err }, 2, 5},
		{"negative offset", func() error { _, err := c.U8At(-1); return err }, -1, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.read()
			if !errors.Is(err, ErrOutOfBounds) {
				t.Fatalf("got %v; want ErrOutOfBounds", err)
			}
			var oob *OutOfBoundsError
			if !errors.As(err, &oob) {
				t.Fatalf("got %T; want *OutOfBoundsError", err)
			}
			if oob.Offset != tc.off || oob.Width != tc.width || oob.Len != 6 {
				t.Errorf("got %+v; want offset %d width %d len 6", *oob, tc.off, tc.width)
			}
		})
	}

	// Exactly at the boundary is still fine.
	_, err := c.U16At(4)
	ttesting.AssertNoError(t, "u16 ending at buffer end", err)
}

func TestFailedSequentialReadKeepsPosition(t *testing.T) {
	c := New([]byte{1, 2, 3})
	if _, err := c.U16(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.U16(); err == nil {
		t.Fatalf("expected error reading past end")
	}
	ttesting.AssertEqualInt(t, "position after failed read", c.Pos(), 2)
}

func TestSeek(t *testing.T) {
	c := New(make([]byte, 4))
	ttesting.AssertNoError(t, "seek to end", c.Seek(4))
	if err := c.Seek(5); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("seek past end: got %v; want ErrOutOfBounds", err)
	}
	ttesting.AssertEqualInt(t, "position after failed seek", c.Pos(), 4)
}

func TestBytesAtCapacityClipped(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	c := New(buf)
	b, err := c.BytesAt(0, 2)
	ttesting.AssertNoError(t, "bytes at 0", err)
	_ = append(b, 0xFF)
	ttesting.AssertEqualBytes(t, "buffer untouched by append", buf, []byte{1, 2, 3, 4})
}
