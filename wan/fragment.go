package wan

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/cursor"
)

// Shape is the first half of a resolution code.
type Shape uint8

const (
	ShapeSquare Shape = iota
	ShapeWide
	ShapeTall
)

// Resolution is the size of a fragment in pixels. Only the twelve sizes in
// the table below exist; obtain one with ResolutionFor.
type Resolution struct {
	Width, Height int
}

var resolutions = [3][4]Resolution{
	ShapeSquare: {{8, 8}, {16, 16}, {32, 32}, {64, 64}},
	ShapeWide:   {{16, 8}, {32, 8}, {32, 16}, {64, 32}},
	ShapeTall:   {{8, 16}, {8, 32}, {16, 32}, {32, 64}},
}

// ResolutionFor maps a (shape, size) code pair to its resolution.
func ResolutionFor(shape Shape, size uint8) (Resolution, error) {
	if int(shape) >= len(resolutions) || int(size) >= len(resolutions[0]) {
		return Resolution{}, errors.Wrapf(ErrUnknownResolutionCode, "shape %d size %d", shape, size)
	}
	return resolutions[shape][size], nil
}

// Codes returns the (shape, size) pair of r. It fails for sizes that are not
// in the table.
func (r Resolution) Codes() (Shape, uint8, error) {
	for shape := range resolutions {
		for size, res := range resolutions[shape] {
			if res == r {
				return Shape(shape), uint8(size), nil
			}
		}
	}
	return 0, 0, errors.Wrapf(ErrUnknownResolutionCode, "no code for %dx%d", r.Width, r.Height)
}

// Pixels returns Width*Height.
func (r Resolution) Pixels() int {
	return r.Width * r.Height
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Fragment (also known as a meta-frame) places one image, in one of the legal
// resolutions, with one sub-palette, at an offset from the frame's origin.
type Fragment struct {
	ImageIndex int
	// ImageReused is set when the record said "same image as the previous
	// fragment" instead of naming it; ImageIndex is resolved either way.
	// When encoding it asks for the same shorthand.
	ImageReused bool

	Resolution   Resolution
	PaletteIndex int
	OffsetX      int
	OffsetY      int
	HFlip        bool
	VFlip        bool
	Mosaic       bool
	// Priority is the hardware draw priority (0 is frontmost).
	Priority int
	// IsLast marks the final fragment of a frame group in the file.
	IsLast bool

	TileNum uint16
	Unk1    uint16
	Unk3    bool
}

// Offset returns the top-left corner of the fragment relative to the origin
// of the frame it is drawn in.
func (f Fragment) Offset() image.Point {
	return image.Pt(f.OffsetX, f.OffsetY)
}

const (
	fragmentRecordSize = 10

	attr0OffsetY = 0x00FF
	attr0Unk3    = 0x0100
	attr0Mosaic  = 0x1000
	attr1OffsetX = 0x01FF
	attr1IsLast  = 0x0800
	attr1HFlip   = 0x1000
	attr1VFlip   = 0x2000
	attr2TileNum = 0x03FF

	offsetXBias = 256
)

// decodeFragment decodes one 10-byte record. previousImage is the image of
// the previous fragment in the same group, or -1.
func decodeFragment(rec []byte, previousImage int) (Fragment, error) {
	imageIndex := int(int16(binary.LittleEndian.Uint16(rec[0:])))
	unk1 := binary.LittleEndian.Uint16(rec[2:])
	attr0 := binary.LittleEndian.Uint16(rec[4:])
	attr1 := binary.LittleEndian.Uint16(rec[6:])
	attr2 := binary.LittleEndian.Uint16(rec[8:])

	res, err := ResolutionFor(Shape(attr0>>14), uint8(attr1>>14))
	if err != nil {
		return Fragment{}, err
	}

	f := Fragment{
		ImageIndex:   imageIndex,
		Resolution:   res,
		PaletteIndex: int(attr2 >> 12),
		OffsetX:      int(attr1&attr1OffsetX) - offsetXBias,
		OffsetY:      int(int8(attr0 & attr0OffsetY)),
		HFlip:        attr1&attr1HFlip != 0,
		VFlip:        attr1&attr1VFlip != 0,
		Mosaic:       attr0&attr0Mosaic != 0,
		Priority:     int(attr2>>10) & 0x3,
		IsLast:       attr1&attr1IsLast != 0,
		TileNum:      attr2 & attr2TileNum,
		Unk1:         unk1,
		Unk3:         attr0&attr0Unk3 != 0,
	}
	if imageIndex == -1 {
		if previousImage < 0 {
			return Fragment{}, errors.WithStack(ErrDanglingImageReuse)
		}
		f.ImageIndex = previousImage
		f.ImageReused = true
	}
	return f, nil
}

// FragmentStore holds every fragment of a sprite, in file order.
type FragmentStore struct {
	fragments []Fragment
}

// Len returns the number of fragments.
func (s *FragmentStore) Len() int {
	return len(s.fragments)
}

// Get returns fragment id.
func (s *FragmentStore) Get(id int) (Fragment, error) {
	if id < 0 || id >= len(s.fragments) {
		return Fragment{}, indexError("fragment", id, len(s.fragments))
	}
	return s.fragments[id], nil
}

// CopiedOnPrevious returns, per fragment, whether it is stored as "same image
// as the previous fragment". MarshalBinary keeps the hint wherever the
// previous fragment of the group does show the same image.
func (s *FragmentStore) CopiedOnPrevious() []bool {
	out := make([]bool, len(s.fragments))
	for i, f := range s.fragments {
		out[i] = f.ImageReused
	}
	return out
}

// ParseFragments reads the fragment run at each frame group pointer. A run
// ends with the record flagged as last; a null pointer is an empty group.
//
// Fragments are numbered in file order across all groups. The returned runs
// list, per group, the ids of its fragments.
func ParseFragments(c *cursor.Cursor, groupPointers []uint32) (FragmentStore, [][]int, error) {
	var s FragmentStore
	runs := make([][]int, len(groupPointers))
	for g, ptr := range groupPointers {
		if ptr == 0 {
			continue
		}
		previousImage := -1
		for at := int(ptr); ; at += fragmentRecordSize {
			rec, err := c.BytesAt(at, fragmentRecordSize)
			if err != nil {
				return FragmentStore{}, nil, errors.Wrapf(err, "frame group %d: reading fragment at 0x%x", g, at)
			}
			if (len(s.fragments)+1)*fragmentRecordSize > c.Len() {
				return FragmentStore{}, nil, errors.Wrapf(ErrMalformedHeader, "frame group %d: more fragments than a %d byte file holds", g, c.Len())
			}
			f, err := decodeFragment(rec, previousImage)
			if err != nil {
				return FragmentStore{}, nil, errors.Wrapf(err, "frame group %d: fragment at 0x%x", g, at)
			}
			previousImage = f.ImageIndex
			runs[g] = append(runs[g], len(s.fragments))
			s.fragments = append(s.fragments, f)
			if f.IsLast {
				break
			}
		}
		glog.V(3).Infof("frame group %d: %d fragments", g, len(runs[g]))
	}
	return s, runs, nil
}

// encodeFragment is the inverse of decodeFragment. isLast overrides f.IsLast.
func encodeFragment(f Fragment, isLast bool) ([]byte, error) {
	shape, size, err := f.Resolution.Codes()
	if err != nil {
		return nil, err
	}
	if f.OffsetX < -offsetXBias || f.OffsetX > attr1OffsetX-offsetXBias {
		return nil, errors.Errorf("wan: x offset %d does not fit 9 bits", f.OffsetX)
	}
	if f.OffsetY < -128 || f.OffsetY > 127 {
		return nil, errors.Errorf("wan: y offset %d does not fit 8 bits", f.OffsetY)
	}
	if f.PaletteIndex < 0 || f.PaletteIndex > 0xF {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "palette index %d does not fit 4 bits", f.PaletteIndex)
	}

	imageIndex := uint16(int16(f.ImageIndex))
	if f.ImageReused {
		imageIndex = 0xFFFF
	}

	attr0 := uint16(uint8(int8(f.OffsetY))) | uint16(shape)<<14
	if f.Unk3 {
		attr0 |= attr0Unk3
	}
	if f.Mosaic {
		attr0 |= attr0Mosaic
	}
	attr1 := uint16(f.OffsetX+offsetXBias) | uint16(size)<<14
	if isLast {
		attr1 |= attr1IsLast
	}
	if f.HFlip {
		attr1 |= attr1HFlip
	}
	if f.VFlip {
		attr1 |= attr1VFlip
	}
	attr2 := f.TileNum&attr2TileNum | uint16(f.Priority&0x3)<<10 | uint16(f.PaletteIndex)<<12

	rec := make([]byte, fragmentRecordSize)
	binary.LittleEndian.PutUint16(rec[0:], imageIndex)
	binary.LittleEndian.PutUint16(rec[2:], f.Unk1)
	binary.LittleEndian.PutUint16(rec[4:], attr0)
	binary.LittleEndian.PutUint16(rec[6:], attr1)
	binary.LittleEndian.PutUint16(rec[8:], attr2)
	return rec, nil
}
