package wan

// This file contains the rasterizer. Palettes are applied here and only here:
// the image store keeps palette-agnostic indices.

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// RenderFragment rasterizes one fragment. The result is exactly
// f.Resolution in size. Pixels with index 0 are fully transparent, all others
// fully opaque.
//
// The image must hold exactly Width*Height indices, otherwise
// ErrImageLengthMismatch is returned. Flip flags are applied when reading
// source pixels.
func RenderFragment(f Fragment, images *ImageStore, pal *Palette) (*image.RGBA, error) {
	px, err := images.pixels(f.ImageIndex)
	if err != nil {
		return nil, err
	}
	w, h := f.Resolution.Width, f.Resolution.Height
	if len(px) != w*h {
		return nil, errors.Wrapf(ErrImageLengthMismatch, "image %d has %d pixels, fragment wants %s", f.ImageIndex, len(px), f.Resolution)
	}
	if f.PaletteIndex < 0 || f.PaletteIndex >= pal.SubPaletteCount() {
		return nil, indexError("sub-palette", f.PaletteIndex, pal.SubPaletteCount())
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	tilesPerRow := w / TileSize
	for y := 0; y < h; y++ {
		sy := y
		if f.VFlip {
			sy = h - 1 - y
		}
		for x := 0; x < w; x++ {
			sx := x
			if f.HFlip {
				sx = w - 1 - x
			}
			tile := (sy/TileSize)*tilesPerRow + sx/TileSize
			idx := int(px[tile*TilePixels+(sy%TileSize)*TileSize+sx%TileSize])
			if idx == 0 {
				continue
			}
			// 256-color images address the sub-palettes following the
			// selected one.
			c, err := pal.ColorAt(f.PaletteIndex+idx/SubPaletteSize, idx%SubPaletteSize)
			if err != nil {
				return nil, err
			}
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
		}
	}
	return img, nil
}

// Layer is one rendered fragment of a frame group. Exactly one of Image and
// Err is set.
type Layer struct {
	FragmentID int
	Image      *image.RGBA
	Offset     image.Point
	Err        error
}

// RenderGroup renders every fragment of g, in paint order (first is
// backmost). A fragment that fails to render does not stop the others; its
// Layer carries the error instead.
func RenderGroup(g FrameGroup, frags *FragmentStore, images *ImageStore, pal *Palette) []Layer {
	layers := make([]Layer, len(g.fragmentIDs))
	for i, id := range g.fragmentIDs {
		layers[i].FragmentID = id
		f, err := frags.Get(id)
		if err != nil {
			layers[i].Err = err
			continue
		}
		layers[i].Offset = f.Offset()
		layers[i].Image, layers[i].Err = RenderFragment(f, images, pal)
	}
	return layers
}

// Composite draws the successfully rendered layers, in order, onto a canvas
// just large enough for all of them. It returns the canvas and the position
// of the frame origin inside it. Layers with errors are skipped.
func Composite(layers []Layer) (*image.RGBA, image.Point) {
	var bounds image.Rectangle
	for _, l := range layers {
		if l.Err != nil || l.Image == nil {
			continue
		}
		bounds = bounds.Union(l.Image.Bounds().Add(l.Offset))
	}
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	origin := image.Point{}.Sub(bounds.Min)
	for _, l := range layers {
		if l.Err != nil || l.Image == nil {
			continue
		}
		dst := l.Image.Bounds().Add(l.Offset).Add(origin)
		draw.Draw(canvas, dst, l.Image, image.Point{}, draw.Over)
	}
	return canvas, origin
}

// RenderFragment renders fragment id with the sprite's own palette.
func (w *WanImage) RenderFragment(id int) (*image.RGBA, error) {
	f, err := w.fragments.Get(id)
	if err != nil {
		return nil, err
	}
	return RenderFragment(f, &w.images, &w.palette)
}

// RenderGroup renders every fragment of frame group idx.
func (w *WanImage) RenderGroup(idx int) ([]Layer, error) {
	g, err := w.frameGroups.Get(idx)
	if err != nil {
		return nil, err
	}
	return RenderGroup(g, &w.fragments, &w.images, &w.palette), nil
}

// CompositeGroup renders frame group idx onto a single canvas and returns it
// with the frame origin's position inside it. Fragments that fail to render
// are logged and left out.
func (w *WanImage) CompositeGroup(idx int) (*image.RGBA, image.Point, error) {
	layers, err := w.RenderGroup(idx)
	if err != nil {
		return nil, image.Point{}, err
	}
	for _, l := range layers {
		if l.Err != nil {
			glog.Warningf("frame group %d: skipping fragment %d: %v", idx, l.FragmentID, l.Err)
		}
	}
	img, origin := Composite(layers)
	return img, origin, nil
}

// RenderAnimationFrame composites the frame group shown by fr, and returns
// the position of the animation origin inside the result (the frame group is
// drawn at fr.Offset from it).
func (w *WanImage) RenderAnimationFrame(fr AnimationFrame) (*image.RGBA, image.Point, error) {
	img, origin, err := w.CompositeGroup(fr.FrameGroup)
	if err != nil {
		return nil, image.Point{}, err
	}
	return img, origin.Sub(fr.Offset), nil
}
