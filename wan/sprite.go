package wan

import (
	"github.com/pkg/errors"
)

// Sprite is the editable form of a WanImage, used to assemble new sprites.
type Sprite struct {
	Type       SpriteType
	Palette    []Color
	Is256Color bool
	// Images hold one palette index per pixel, tile after tile.
	Images [][]byte
	// Fragments are laid out as in a file: FrameGroups must list every
	// fragment exactly once, ids ascending. IsLast is derived from the frame
	// groups.
	Fragments   []Fragment
	FrameGroups [][]int
	// CopyOnPrevious marks every fragment showing the same image as the one
	// before it in its frame group as ImageReused. Otherwise each fragment's
	// ImageReused is kept where it can apply.
	CopyOnPrevious bool
	// Animations are grouped like AnimationStore.
	Animations [][]Animation
	Particles  []byte
}

// New validates s and builds an immutable WanImage from it. The result
// satisfies the same invariants as one returned by Parse, and encodes to a
// file that parses back into an equal WanImage.
func New(s Sprite) (*WanImage, error) {
	if len(s.Palette) == 0 || len(s.Palette)%SubPaletteSize != 0 {
		return nil, errors.Wrapf(ErrMalformedPalette, "%d entries is not a positive multiple of %d", len(s.Palette), SubPaletteSize)
	}
	w := &WanImage{
		palette:    Palette{colors: append([]Color(nil), s.Palette...)},
		images:     ImageStore{images: make([]storedImage, len(s.Images)), is256Color: s.Is256Color},
		fragments:  FragmentStore{fragments: append([]Fragment(nil), s.Fragments...)},
		particles:  append([]byte(nil), s.Particles...),
		spriteType: s.Type,
	}
	for i, px := range s.Images {
		if len(px)%TilePixels != 0 || len(px) > MaxImagePixels {
			return nil, errors.Wrapf(ErrImageLengthMismatch, "image %d: %d pixels", i, len(px))
		}
		w.images.images[i] = storedImage{pixels: append([]byte(nil), px...)}
	}
	for i, f := range w.fragments.fragments {
		if _, _, err := f.Resolution.Codes(); err != nil {
			return nil, errors.Wrapf(err, "fragment %d", i)
		}
	}

	var err error
	w.frameGroups, err = NewFrameGroupStore(s.FrameGroups, len(s.Fragments))
	if err != nil {
		return nil, err
	}
	if err := checkFragmentLayout(w.frameGroups.groups, w.fragments.Len()); err != nil {
		return nil, err
	}
	for _, g := range w.frameGroups.groups {
		for pos, id := range g.fragmentIDs {
			f := &w.fragments.fragments[id]
			f.IsLast = pos == len(g.fragmentIDs)-1
			canReuse := pos > 0 && w.fragments.fragments[id-1].ImageIndex == f.ImageIndex
			f.ImageReused = canReuse && (f.ImageReused || s.CopyOnPrevious)
		}
	}

	w.animations.groups = make([][]Animation, len(s.Animations))
	for g, anims := range s.Animations {
		for a, anim := range anims {
			for n, fr := range anim.Frames {
				if fr.FrameGroup < 0 || fr.FrameGroup >= w.frameGroups.Len() {
					return nil, errors.Wrapf(ErrDanglingFrameGroupReference, "animation %d/%d frame %d: frame group %d", g, a, n, fr.FrameGroup)
				}
				if fr.Duration == 0 {
					return nil, errors.Errorf("wan: animation %d/%d frame %d has zero duration", g, a, n)
				}
			}
			w.animations.groups[g] = append(w.animations.groups[g], Animation{Frames: append([]AnimationFrame(nil), anim.Frames...)})
		}
	}
	return w, nil
}
