package wan

import (
	"encoding/binary"
	"image"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/sir0"
)

// builder accumulates a SIR0 payload. Offsets are relative to the start of
// the payload; sir0.Wrap rebases them.
type builder struct {
	buf      []byte
	pointers []uint32
}

func (b *builder) pos() uint32 {
	return uint32(len(b.buf))
}

func (b *builder) bytes(p []byte) {
	b.buf = append(b.buf, p...)
}

func (b *builder) u8(v uint8) {
	b.buf = append(b.buf, v)
}

func (b *builder) u16(v uint16) {
	b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
}

func (b *builder) i16(v int) {
	b.u16(uint16(int16(v)))
}

func (b *builder) u32(v uint32) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

// ptr writes a pointer and records it for relocation.
func (b *builder) ptr(v uint32) {
	b.pointers = append(b.pointers, b.pos())
	b.u32(v)
}

// optPtr writes a null pointer when ok is false.
func (b *builder) optPtr(v uint32, ok bool) {
	if !ok {
		b.u32(0)
		return
	}
	b.ptr(v)
}

func (b *builder) align(n int) {
	for len(b.buf)%n != 0 {
		b.buf = append(b.buf, 0)
	}
}

// MarshalBinary encodes the sprite as a SIR0-wrapped WAN file that Parse
// decodes back into an equivalent WanImage.
//
// Fragments must be laid out as in a file: every fragment in exactly one
// frame group, ids ascending across the groups. Otherwise ErrFragmentLayout
// is returned.
func (w *WanImage) MarshalBinary() ([]byte, error) {
	if w.palette.Len() == 0 || w.palette.Len()%SubPaletteSize != 0 {
		return nil, errors.Wrapf(ErrMalformedPalette, "cannot encode %d palette entries", w.palette.Len())
	}
	if err := checkFragmentLayout(w.frameGroups.groups, w.fragments.Len()); err != nil {
		return nil, errors.Wrap(err, "wan: cannot encode")
	}
	b := &builder{}

	// Literal tile data.
	chunkSize := TilePixels / 2
	if w.images.is256Color {
		chunkSize = TilePixels
	}
	imageRuns := make([][]TileRun, w.images.Len())
	literalAt := make([][]uint32, w.images.Len())
	for i, img := range w.images.images {
		raw, err := packPixels(img.pixels, w.images.is256Color)
		if err != nil {
			return nil, errors.Wrapf(err, "wan: encoding image %d", i)
		}
		imageRuns[i] = CompressTiles(raw, chunkSize)
		literalAt[i] = make([]uint32, len(imageRuns[i]))
		for r, run := range imageRuns[i] {
			if run.Literal != nil {
				literalAt[i][r] = b.pos()
				b.bytes(run.Literal)
			}
		}
	}

	// Palette colors.
	b.align(4)
	paletteDataAt := b.pos()
	for i, c := range w.palette.colors {
		a := uint8(opaqueAlpha)
		if i < len(w.palette.alpha) {
			a = w.palette.alpha[i]
		}
		b.bytes([]byte{c.R, c.G, c.B, a})
	}

	// Fragment runs.
	groupAt := make([]uint32, w.frameGroups.Len())
	for g, grp := range w.frameGroups.groups {
		if len(grp.fragmentIDs) == 0 {
			continue
		}
		groupAt[g] = b.pos()
		previousImage := -1
		for pos, id := range grp.fragmentIDs {
			f, err := w.fragments.Get(id)
			if err != nil {
				return nil, errors.Wrapf(err, "wan: encoding frame group %d", g)
			}
			f.ImageReused = f.ImageReused && previousImage >= 0 && previousImage == f.ImageIndex
			rec, err := encodeFragment(f, pos == len(grp.fragmentIDs)-1)
			if err != nil {
				return nil, errors.Wrapf(err, "wan: encoding frame group %d fragment %d", g, id)
			}
			b.bytes(rec)
			previousImage = f.ImageIndex
		}
	}

	// Animation sequences.
	b.align(4)
	animAt := make([][]uint32, w.animations.Len())
	for g, anims := range w.animations.groups {
		animAt[g] = make([]uint32, len(anims))
		for a, anim := range anims {
			if len(anim.Frames) == 0 {
				continue
			}
			animAt[g][a] = b.pos()
			for n, fr := range anim.Frames {
				if fr.Duration == 0 {
					return nil, errors.Errorf("wan: animation %d/%d frame %d has zero duration", g, a, n)
				}
				if fr.FrameGroup < 0 || fr.FrameGroup >= w.frameGroups.Len() {
					return nil, errors.Wrapf(ErrDanglingFrameGroupReference, "animation %d/%d frame %d: frame group %d", g, a, n, fr.FrameGroup)
				}
				b.u8(fr.Duration)
				b.u8(fr.Flag)
				b.u16(uint16(fr.FrameGroup))
				writePoint(b, fr.Offset)
				writePoint(b, fr.ShadowOffset)
			}
			b.bytes(make([]byte, animFrameSize))
		}
	}

	// Animation lists.
	listAt := make([]uint32, w.animations.Len())
	for g := range w.animations.groups {
		if len(animAt[g]) == 0 {
			continue
		}
		listAt[g] = b.pos()
		for _, at := range animAt[g] {
			b.optPtr(at, at != 0)
		}
	}

	// Tile token tables.
	tokensAt := make([]uint32, w.images.Len())
	for i, runs := range imageRuns {
		tokensAt[i] = b.pos()
		z := w.images.images[i].zIndex
		for r, run := range runs {
			if run.Literal != nil {
				b.ptr(literalAt[i][r])
			} else {
				b.u32(0)
			}
			b.u16(uint16(run.Len()))
			b.u16(0)
			b.u32(z)
		}
		b.bytes(make([]byte, tokenSize))
	}

	imageTableAt := b.pos()
	for _, at := range tokensAt {
		b.ptr(at)
	}

	paletteHeaderAt := b.pos()
	b.ptr(paletteDataAt)
	b.u16(0)
	b.u16(uint16(w.palette.Len()))
	b.u32(0)
	b.u32(0)

	// The frame group table is sized by whatever follows it, so the particle
	// table and the animation group table must come right after it.
	groupsAt := b.pos()
	for _, at := range groupAt {
		b.optPtr(at, at != 0)
	}
	particlesAt := b.pos()
	b.bytes(w.particles)
	animGroupsAt := b.pos()
	for g, anims := range w.animations.groups {
		b.optPtr(listAt[g], len(anims) != 0)
		b.u16(uint16(len(anims)))
		b.u16(0)
	}

	b.align(4)
	animInfoAt := b.pos()
	b.ptr(groupsAt)
	b.optPtr(particlesAt, len(w.particles) != 0)
	b.ptr(animGroupsAt)
	b.u16(uint16(w.animations.Len()))
	b.u32(w.unk1)
	b.bytes(make([]byte, 8))

	imageInfoAt := b.pos()
	b.ptr(imageTableAt)
	b.ptr(paletteHeaderAt)
	b.u16(0)
	if w.images.is256Color {
		b.u16(1)
	} else {
		b.u16(0)
	}
	b.u16(0)
	b.u16(uint16(w.images.Len()))

	contentAt := b.pos()
	b.ptr(animInfoAt)
	b.ptr(imageInfoAt)
	b.u16(uint16(w.spriteType))
	b.u16(w.unk2)

	glog.V(2).Infof("wan: encoded %d byte payload with %d pointers", len(b.buf), len(b.pointers))
	return sir0.Wrap(b.buf, contentAt, b.pointers), nil
}

func writePoint(b *builder, p image.Point) {
	b.i16(p.X)
	b.i16(p.Y)
}
