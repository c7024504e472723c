package wan

import (
	"bytes"
	"image"
	"testing"
)

// grayRamp returns n sub-palettes; entry i of sub-palette s is gray level
// i*16+s.
func grayRamp(n int) Palette {
	p := Palette{colors: make([]Color, n*SubPaletteSize)}
	for i := range p.colors {
		v := uint8((i%SubPaletteSize)*16 + i/SubPaletteSize)
		p.colors[i] = Color{R: v, G: v, B: v}
	}
	return p
}

func solidTiles(idx byte, tiles int) []byte {
	return bytes.Repeat([]byte{idx}, tiles*TilePixels)
}

func square8(image int) Fragment {
	return Fragment{ImageIndex: image, Resolution: Resolution{8, 8}, IsLast: true}
}

// oneFragmentSprite has one 8x8 image, one fragment showing it and one frame
// group holding that fragment.
func oneFragmentSprite(is256Color bool, pixels []byte) *WanImage {
	return &WanImage{
		palette:     grayRamp(1),
		images:      ImageStore{images: []storedImage{{pixels: pixels}}, is256Color: is256Color},
		fragments:   FragmentStore{fragments: []Fragment{square8(0)}},
		frameGroups: FrameGroupStore{groups: []FrameGroup{{fragmentIDs: []int{0}}}},
		spriteType:  Chara,
	}
}

// richSprite exercises every part of the format: two sub-palettes, 16-color
// images with zero and literal runs, image reuse, an empty frame group,
// particles and animations.
func richSprite() *WanImage {
	striped := append(solidTiles(0, 1), solidTiles(3, 1)...)
	checker := make([]byte, 4*TilePixels)
	for i := range checker {
		checker[i] = byte(i % 16)
	}
	return &WanImage{
		palette: grayRamp(2),
		images: ImageStore{
			images: []storedImage{
				{pixels: striped, zIndex: 1},
				{pixels: checker, zIndex: 2},
			},
		},
		fragments: FragmentStore{fragments: []Fragment{
			{ImageIndex: 1, Resolution: Resolution{16, 16}, OffsetX: -8, OffsetY: -16, Priority: 3, TileNum: 4},
			{ImageIndex: 1, ImageReused: true, Resolution: Resolution{16, 16}, OffsetX: 8, OffsetY: -16, HFlip: true, PaletteIndex: 1, IsLast: true},
			{ImageIndex: 0, Resolution: Resolution{16, 8}, OffsetX: -8, OffsetY: 0, VFlip: true, Mosaic: true, Unk1: 0x55, Unk3: true, IsLast: true},
		}},
		frameGroups: FrameGroupStore{groups: []FrameGroup{
			{fragmentIDs: []int{0, 1}},
			{},
			{fragmentIDs: []int{2}},
		}},
		animations: AnimationStore{groups: [][]Animation{
			{
				{Frames: []AnimationFrame{
					{Duration: 4, FrameGroup: 0, Offset: image.Pt(1, -2), ShadowOffset: image.Pt(0, 4)},
					{Duration: 6, Flag: 1, FrameGroup: 2, Offset: image.Pt(-3, 0)},
				}},
				{},
			},
			nil,
			{
				{Frames: []AnimationFrame{{Duration: 60, FrameGroup: 2}}},
			},
		}},
		particles:  []byte{0x10, 0x00, 0xF8, 0xFF},
		spriteType: Chara,
		unk1:       0x1234,
		unk2:       7,
	}
}

func mustMarshal(t *testing.T, w *WanImage) []byte {
	t.Helper()
	buf, err := w.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return buf
}

func mustParse(t *testing.T, buf []byte) *WanImage {
	t.Helper()
	w, err := Parse(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return w
}
