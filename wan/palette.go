package wan

import (
	"image/color"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/cursor"
)

// SubPaletteSize is the number of entries in each sub-palette. A fragment
// selects one sub-palette with its palette index.
const SubPaletteSize = 16

// opaqueAlpha is what the game stores in the fourth byte of every color.
const opaqueAlpha = 0x80

// Color is one palette entry.
//
// Entry 0 of every sub-palette is drawn transparent regardless of its stored
// color; see RenderFragment.
type Color struct {
	R, G, B uint8
}

// RGBA implements color.Color. Palette colors are always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}.RGBA()
}

// Palette is the table of all sub-palettes of one sprite.
type Palette struct {
	colors []Color
	alpha  []uint8 // as stored; only kept for re-encoding
}

// ParsePalette reads entryCount colors of 4 bytes each (R, G, B, alpha)
// starting at tableOffset.
func ParsePalette(c *cursor.Cursor, tableOffset, entryCount int) (Palette, error) {
	if entryCount <= 0 || entryCount%SubPaletteSize != 0 {
		return Palette{}, errors.Wrapf(ErrMalformedPalette, "%d entries is not a positive multiple of %d", entryCount, SubPaletteSize)
	}
	raw, err := c.BytesAt(tableOffset, entryCount*4)
	if err != nil {
		return Palette{}, withKind(ErrMalformedPalette, err, "reading %d palette entries at 0x%x", entryCount, tableOffset)
	}

	p := Palette{
		colors: make([]Color, entryCount),
		alpha:  make([]uint8, entryCount),
	}
	for i := range p.colors {
		p.colors[i] = Color{R: raw[i*4], G: raw[i*4+1], B: raw[i*4+2]}
		p.alpha[i] = raw[i*4+3]
	}
	return p, nil
}

// Len returns the total number of entries.
func (p *Palette) Len() int {
	return len(p.colors)
}

// SubPaletteCount returns the number of sub-palettes.
func (p *Palette) SubPaletteCount() int {
	return len(p.colors) / SubPaletteSize
}

// ColorAt returns entry local of sub-palette sub.
func (p *Palette) ColorAt(sub, local int) (Color, error) {
	if sub < 0 || sub >= p.SubPaletteCount() {
		return Color{}, indexError("sub-palette", sub, p.SubPaletteCount())
	}
	if local < 0 || local >= SubPaletteSize {
		return Color{}, indexError("palette entry", local, SubPaletteSize)
	}
	return p.colors[sub*SubPaletteSize+local], nil
}

// Colors returns a copy of all entries, sub-palette after sub-palette.
func (p *Palette) Colors() []Color {
	return append([]Color(nil), p.colors...)
}

// SubPalette returns sub-palette sub as a color.Palette usable with
// image.Paletted. Entry 0 is color.Transparent.
func (p *Palette) SubPalette(sub int) (color.Palette, error) {
	if sub < 0 || sub >= p.SubPaletteCount() {
		return nil, indexError("sub-palette", sub, p.SubPaletteCount())
	}
	pal := make(color.Palette, SubPaletteSize)
	pal[0] = color.Transparent
	for i := 1; i < SubPaletteSize; i++ {
		pal[i] = p.colors[sub*SubPaletteSize+i]
	}
	return pal, nil
}
