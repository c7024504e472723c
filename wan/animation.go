package wan

import (
	"encoding/binary"
	"image"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/cursor"
)

// AnimationFrame shows one frame group for Duration ticks (the game runs at
// 60 ticks per second).
type AnimationFrame struct {
	Duration     uint8
	Flag         uint8
	FrameGroup   int
	Offset       image.Point
	ShadowOffset image.Point
}

// Animation is a sequence of frames.
type Animation struct {
	Frames []AnimationFrame
}

// AnimationStore holds the animation groups of a sprite. For character
// sprites there is usually one group per action, and one animation per
// facing direction inside a group.
type AnimationStore struct {
	groups [][]Animation
}

const (
	animGroupEntrySize = 8
	animFrameSize      = 12
)

// parseAnimations reads count animation groups at tablePtr. Lists and
// animations referenced more than once are decoded once and shared. The
// total number of list slots and of distinct frames is limited by what the
// file can hold, so overlapping tables cannot blow up memory.
func parseAnimations(c *cursor.Cursor, tablePtr, count, frameGroupCount int) (AnimationStore, error) {
	if count > c.Len()/animGroupEntrySize {
		return AnimationStore{}, errors.Wrapf(&cursor.OutOfBoundsError{Offset: tablePtr, Width: count * animGroupEntrySize, Len: c.Len()}, "animation group table")
	}
	s := AnimationStore{groups: make([][]Animation, count)}
	parsed := map[uint32]Animation{}
	slots, frames := 0, 0
	for g := 0; g < count; g++ {
		at := tablePtr + g*animGroupEntrySize
		listPtr, err := c.U32At(at)
		if err != nil {
			return AnimationStore{}, errors.Wrapf(err, "animation group %d", g)
		}
		n, err := c.U16At(at + 4)
		if err != nil {
			return AnimationStore{}, errors.Wrapf(err, "animation group %d", g)
		}
		if listPtr == 0 || n == 0 {
			continue
		}
		slots += int(n)
		if slots > c.Len()/4 {
			return AnimationStore{}, errors.Wrapf(ErrMalformedHeader, "animation group %d: %d animation slots in a %d byte file", g, slots, c.Len())
		}
		ptrs, err := readPointerTable(c, int(listPtr), int(n))
		if err != nil {
			return AnimationStore{}, errors.Wrapf(err, "animation group %d: reading animation list", g)
		}
		anims := make([]Animation, n)
		for a, ptr := range ptrs {
			if ptr == 0 {
				continue
			}
			if anim, ok := parsed[ptr]; ok {
				anims[a] = anim
				continue
			}
			anims[a], err = parseAnimation(c, int(ptr), frameGroupCount)
			if err != nil {
				return AnimationStore{}, errors.Wrapf(err, "animation group %d animation %d", g, a)
			}
			frames += len(anims[a].Frames) + 1
			if frames > c.Len()/animFrameSize {
				return AnimationStore{}, errors.Wrapf(ErrMalformedHeader, "animation group %d animation %d: %d frames in a %d byte file", g, a, frames, c.Len())
			}
			parsed[ptr] = anims[a]
		}
		s.groups[g] = anims
		glog.V(3).Infof("animation group %d: %d animations", g, len(anims))
	}
	return s, nil
}

func parseAnimation(c *cursor.Cursor, ptr, frameGroupCount int) (Animation, error) {
	var anim Animation
	for at := ptr; ; at += animFrameSize {
		rec, err := c.BytesAt(at, animFrameSize)
		if err != nil {
			return Animation{}, err
		}
		if rec[0] == 0 {
			return anim, nil
		}
		fr := AnimationFrame{
			Duration:     rec[0],
			Flag:         rec[1],
			FrameGroup:   int(binary.LittleEndian.Uint16(rec[2:])),
			Offset:       image.Pt(int(int16(binary.LittleEndian.Uint16(rec[4:]))), int(int16(binary.LittleEndian.Uint16(rec[6:])))),
			ShadowOffset: image.Pt(int(int16(binary.LittleEndian.Uint16(rec[8:]))), int(int16(binary.LittleEndian.Uint16(rec[10:])))),
		}
		if fr.FrameGroup >= frameGroupCount {
			return Animation{}, errors.Wrapf(ErrDanglingFrameGroupReference, "frame %d: frame group %d (have %d)", len(anim.Frames), fr.FrameGroup, frameGroupCount)
		}
		anim.Frames = append(anim.Frames, fr)
	}
}

// Len returns the number of animation groups.
func (s *AnimationStore) Len() int {
	return len(s.groups)
}

// GroupLen returns the number of animations in group g.
func (s *AnimationStore) GroupLen(g int) (int, error) {
	if g < 0 || g >= len(s.groups) {
		return 0, indexError("animation group", g, len(s.groups))
	}
	return len(s.groups[g]), nil
}

// Animation returns animation a of group g.
func (s *AnimationStore) Animation(g, a int) (Animation, error) {
	n, err := s.GroupLen(g)
	if err != nil {
		return Animation{}, err
	}
	if a < 0 || a >= n {
		return Animation{}, indexError("animation", a, n)
	}
	return Animation{Frames: append([]AnimationFrame(nil), s.groups[g][a].Frames...)}, nil
}

// TotalDuration returns the sum of all frame durations, in ticks.
func (a Animation) TotalDuration() int {
	total := 0
	for _, fr := range a.Frames {
		total += int(fr.Duration)
	}
	return total
}
