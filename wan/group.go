package wan

import (
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/cursor"
)

// FrameGroup is one composed frame: an ordered list of fragment ids. The
// first fragment paints first and is the backmost layer.
type FrameGroup struct {
	fragmentIDs []int
}

// FragmentIDs returns a copy of the fragment ids in paint order.
func (g FrameGroup) FragmentIDs() []int {
	return append([]int(nil), g.fragmentIDs...)
}

// Len returns the number of fragments in the group.
func (g FrameGroup) Len() int {
	return len(g.fragmentIDs)
}

// FrameGroupStore holds all frame groups of a sprite.
type FrameGroupStore struct {
	groups []FrameGroup
}

// NewFrameGroupStore builds a store from per-group fragment id runs. Every id
// must be below fragmentCount.
func NewFrameGroupStore(runs [][]int, fragmentCount int) (FrameGroupStore, error) {
	s := FrameGroupStore{groups: make([]FrameGroup, len(runs))}
	for g, run := range runs {
		for pos, id := range run {
			if id < 0 || id >= fragmentCount {
				return FrameGroupStore{}, errors.Wrapf(ErrDanglingFragmentReference, "frame group %d position %d: fragment %d (have %d)", g, pos, id, fragmentCount)
			}
		}
		s.groups[g] = FrameGroup{fragmentIDs: append([]int(nil), run...)}
	}
	return s, nil
}

// checkFragmentLayout checks that the groups list every fragment exactly once
// and in ascending order. That is the layout of a file, where each frame group
// owns the next run of fragment records, and the only one MarshalBinary can
// write without renumbering fragments.
func checkFragmentLayout(groups []FrameGroup, fragmentCount int) error {
	next := 0
	for g, grp := range groups {
		for pos, id := range grp.fragmentIDs {
			if id != next {
				return errors.Wrapf(ErrFragmentLayout, "frame group %d position %d: fragment %d, want %d", g, pos, id, next)
			}
			next++
		}
	}
	if next != fragmentCount {
		return errors.Wrapf(ErrFragmentLayout, "%d of %d fragments are in no frame group", fragmentCount-next, fragmentCount)
	}
	return nil
}

// ParseFrameGroups reads the fragments of every group pointer and builds both
// stores.
func ParseFrameGroups(c *cursor.Cursor, groupPointers []uint32) (FragmentStore, FrameGroupStore, error) {
	frags, runs, err := ParseFragments(c, groupPointers)
	if err != nil {
		return FragmentStore{}, FrameGroupStore{}, err
	}
	groups, err := NewFrameGroupStore(runs, frags.Len())
	if err != nil {
		return FragmentStore{}, FrameGroupStore{}, err
	}
	return frags, groups, nil
}

// Len returns the number of frame groups.
func (s *FrameGroupStore) Len() int {
	return len(s.groups)
}

// Get returns frame group idx.
func (s *FrameGroupStore) Get(idx int) (FrameGroup, error) {
	if idx < 0 || idx >= len(s.groups) {
		return FrameGroup{}, indexError("frame group", idx, len(s.groups))
	}
	return s.groups[idx], nil
}
