package wan

// This file contains the WanImage aggregate and the parsing of the container
// headers that tie the stores together.

import (
	"encoding/binary"
	"io"
	"io/ioutil"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/cursor"
	"badc0de.net/pkg/go-pmdwan/sir0"
)

// SpriteType is stored in the WAN header.
type SpriteType uint16

const (
	PropsUI SpriteType = 0
	Chara   SpriteType = 1
	Unknown SpriteType = 3
)

func (t SpriteType) String() string {
	switch t {
	case PropsUI:
		return "PropsUI"
	case Chara:
		return "Chara"
	case Unknown:
		return "Unknown"
	default:
		return "SpriteType(" + strconv.Itoa(int(t)) + ")"
	}
}

// WanImage is a fully decoded WAN sprite. It is immutable once Parse returns,
// so it can be rendered from any number of goroutines at once.
type WanImage struct {
	palette     Palette
	images      ImageStore
	fragments   FragmentStore
	frameGroups FrameGroupStore
	animations  AnimationStore
	particles   []byte

	spriteType SpriteType
	unk1       uint32
	unk2       uint16
}

const (
	wanHeaderSize       = 12
	animInfoSize        = 26
	imageDataInfoSize   = 16
	paletteHeaderSize   = 16
	animGroupCountAt    = 12
	animInfoAllocHintAt = 14
)

// Parse decodes a whole WAN file. buf must already be decompressed from any
// outer container. Parse either fully succeeds or returns an error; no
// partial sprite is ever returned.
func Parse(buf []byte) (*WanImage, error) {
	f, err := sir0.Parse(buf)
	if err != nil {
		return nil, err
	}
	c := cursor.New(buf)

	animInfoPtr, err := c.U32At(f.Content)
	if err != nil {
		return nil, errors.Wrap(err, "wan: reading header")
	}
	imageInfoPtr, err := c.U32At(f.Content + 4)
	if err != nil {
		return nil, errors.Wrap(err, "wan: reading header")
	}
	spriteType, err := c.U16At(f.Content + 8)
	if err != nil {
		return nil, errors.Wrap(err, "wan: reading header")
	}
	unk2, err := c.U16At(f.Content + 10)
	if err != nil {
		return nil, errors.Wrap(err, "wan: reading header")
	}

	w := &WanImage{
		spriteType: SpriteType(spriteType),
		unk2:       unk2,
	}
	switch w.spriteType {
	case PropsUI, Chara, Unknown:
	default:
		return nil, errors.Wrapf(ErrUnknownSpriteType, "type %d", spriteType)
	}
	glog.V(2).Infof("wan: %s sprite, anim info at 0x%x, image data info at 0x%x", w.spriteType, animInfoPtr, imageInfoPtr)

	if imageInfoPtr == 0 {
		return nil, errors.Wrap(ErrMalformedHeader, "no image data info")
	}
	if err := w.parseImageData(c, int(imageInfoPtr)); err != nil {
		return nil, err
	}
	if animInfoPtr != 0 {
		if err := w.parseAnimInfo(c, int(animInfoPtr)); err != nil {
			return nil, err
		}
	}
	glog.V(2).Infof("wan: %d colors, %d images, %d fragments, %d frame groups, %d animation groups",
		w.palette.Len(), w.images.Len(), w.fragments.Len(), w.frameGroups.Len(), w.animations.Len())
	return w, nil
}

// DecodeWAN reads r to the end and parses the result.
func DecodeWAN(r io.Reader) (*WanImage, error) {
	buf, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "wan: reading input")
	}
	return Parse(buf)
}

func (w *WanImage) parseImageData(c *cursor.Cursor, at int) error {
	hdr, err := c.BytesAt(at, imageDataInfoSize)
	if err != nil {
		return errors.Wrap(err, "wan: reading image data info")
	}
	imageTablePtr := int(binary.LittleEndian.Uint32(hdr[0:]))
	palettePtr := int(binary.LittleEndian.Uint32(hdr[4:]))
	is256Color := binary.LittleEndian.Uint16(hdr[10:]) != 0
	imageCount := int(binary.LittleEndian.Uint16(hdr[14:]))

	if palettePtr == 0 {
		return errors.Wrap(ErrMalformedPalette, "wan: no palette")
	}
	palHdr, err := c.BytesAt(palettePtr, paletteHeaderSize)
	if err != nil {
		return withKind(ErrMalformedPalette, err, "wan: reading palette header")
	}
	w.palette, err = ParsePalette(c, int(binary.LittleEndian.Uint32(palHdr[0:])), int(binary.LittleEndian.Uint16(palHdr[6:])))
	if err != nil {
		return errors.Wrap(err, "wan: parsing palette")
	}

	pointers, err := readPointerTable(c, imageTablePtr, imageCount)
	if err != nil {
		return errors.Wrap(err, "wan: reading image pointer table")
	}
	w.images, err = ParseImageStore(c, pointers, is256Color)
	if err != nil {
		return errors.Wrap(err, "wan: parsing image store")
	}
	return nil
}

func (w *WanImage) parseAnimInfo(c *cursor.Cursor, at int) error {
	hdr, err := c.BytesAt(at, animInfoSize)
	if err != nil {
		return errors.Wrap(err, "wan: reading animation info")
	}
	groupsPtr := int(binary.LittleEndian.Uint32(hdr[0:]))
	particlesPtr := int(binary.LittleEndian.Uint32(hdr[4:]))
	animGroupsPtr := int(binary.LittleEndian.Uint32(hdr[8:]))
	animGroupCount := int(binary.LittleEndian.Uint16(hdr[animGroupCountAt:]))
	w.unk1 = binary.LittleEndian.Uint32(hdr[animInfoAllocHintAt:])

	// The frame group table has no count of its own; it runs up to whichever
	// table follows it.
	groupCount := 0
	if groupsPtr != 0 {
		end := particlesPtr
		if end == 0 {
			end = animGroupsPtr
		}
		if end < groupsPtr || (end-groupsPtr)%4 != 0 {
			return errors.Wrapf(ErrMalformedHeader, "frame group table 0x%x ends at 0x%x", groupsPtr, end)
		}
		groupCount = (end - groupsPtr) / 4
	}
	groupPointers, err := readPointerTable(c, groupsPtr, groupCount)
	if err != nil {
		return errors.Wrap(err, "wan: reading frame group table")
	}
	w.fragments, w.frameGroups, err = ParseFrameGroups(c, groupPointers)
	if err != nil {
		return errors.Wrap(err, "wan: parsing frame groups")
	}

	if particlesPtr != 0 {
		if animGroupsPtr < particlesPtr {
			return errors.Wrapf(ErrMalformedHeader, "particle table 0x%x ends at 0x%x", particlesPtr, animGroupsPtr)
		}
		p, err := c.BytesAt(particlesPtr, animGroupsPtr-particlesPtr)
		if err != nil {
			return errors.Wrap(err, "wan: reading particle table")
		}
		w.particles = append([]byte(nil), p...)
	}

	if animGroupsPtr != 0 {
		w.animations, err = parseAnimations(c, animGroupsPtr, animGroupCount, w.frameGroups.Len())
		if err != nil {
			return errors.Wrap(err, "wan: parsing animations")
		}
	}
	return nil
}

// readPointerTable reads n u32 pointers at at. The whole table is bounds
// checked before anything is allocated, so a bogus count cannot force a huge
// allocation.
func readPointerTable(c *cursor.Cursor, at, n int) ([]uint32, error) {
	if n > c.Len()/4 {
		return nil, errors.WithStack(&cursor.OutOfBoundsError{Offset: at, Width: n * 4, Len: c.Len()})
	}
	table, err := c.BytesAt(at, n*4)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(table[i*4:])
	}
	return out, nil
}

func (w *WanImage) Palette() *Palette { return &w.palette }
func (w *WanImage) Images() *ImageStore { return &w.images }
func (w *WanImage) Fragments() *FragmentStore { return &w.fragments }
func (w *WanImage) FrameGroups() *FrameGroupStore { return &w.frameGroups }
func (w *WanImage) Animations() *AnimationStore { return &w.animations }
func (w *WanImage) SpriteType() SpriteType { return w.spriteType }
func (w *WanImage) Is256Color() bool { return w.images.is256Color }
func (w *WanImage) Unk1() uint32 { return w.unk1 }
func (w *WanImage) Unk2() uint16 { return w.unk2 }

// Particles returns a copy of the raw particle offset table.
func (w *WanImage) Particles() []byte {
	return append([]byte(nil), w.particles...)
}
