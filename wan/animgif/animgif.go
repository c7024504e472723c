// Package animgif turns WAN animations into animated GIFs.
package animgif

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/golang/glog"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/wan"
)

// TicksPerSecond is the rate at which the game advances animation frames.
const TicksPerSecond = 60

var ErrEmptyAnimation = errors.New("animgif: animation has no frames")

type Options struct {
	// LoopCount is passed to gif.GIF: 0 loops forever, -1 plays once.
	LoopCount int
	// Scale enlarges every frame by an integer factor. 0 and 1 keep the
	// original size.
	Scale int
}

// Delay converts a frame duration in game ticks to GIF delay units
// (hundredths of a second). Very short frames still last one unit.
func Delay(ticks uint8) int {
	d := int(ticks) * 100 / TicksPerSecond
	if d < 1 {
		d = 1
	}
	return d
}

// Build renders every frame of animation anim in animation group group. All
// frames share one canvas, aligned on the animation origin.
func Build(s *wan.WanImage, group, anim int, o *Options) (*gif.GIF, error) {
	if o == nil {
		o = &Options{}
	}
	a, err := s.Animations().Animation(group, anim)
	if err != nil {
		return nil, err
	}
	if len(a.Frames) == 0 {
		return nil, errors.Wrapf(ErrEmptyAnimation, "animation %d/%d", group, anim)
	}

	frames := make([]*image.RGBA, len(a.Frames))
	// Each frame's bounds relative to the animation origin.
	placed := make([]image.Rectangle, len(a.Frames))
	var canvas image.Rectangle
	for i, fr := range a.Frames {
		img, origin, err := s.RenderAnimationFrame(fr)
		if err != nil {
			return nil, errors.Wrapf(err, "animation %d/%d frame %d", group, anim, i)
		}
		frames[i] = img
		placed[i] = img.Bounds().Sub(origin)
		canvas = canvas.Union(placed[i])
	}
	glog.V(2).Infof("animgif: animation %d/%d: %d frames on a %dx%d canvas", group, anim, len(frames), canvas.Dx(), canvas.Dy())

	g := &gif.GIF{LoopCount: o.LoopCount}
	for i, img := range frames {
		full := image.NewRGBA(image.Rect(0, 0, canvas.Dx(), canvas.Dy()))
		draw.Draw(full, placed[i].Sub(canvas.Min), img, image.Point{}, draw.Src)

		g.Image = append(g.Image, paletted(scale(full, o.Scale)))
		g.Delay = append(g.Delay, Delay(a.Frames[i].Duration))
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	g.BackgroundIndex = 0 // color.Transparent
	return g, nil
}

// Encode writes animation anim of animation group group to w as a GIF.
func Encode(w io.Writer, s *wan.WanImage, group, anim int, o *Options) error {
	g, err := Build(s, group, anim, o)
	if err != nil {
		return err
	}
	return gif.EncodeAll(w, g)
}

func scale(img *image.RGBA, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	return resize.Resize(uint(b.Dx()*factor), uint(b.Dy()*factor), img, resize.NearestNeighbor)
}

// paletted quantizes img to at most 255 colors, and puts color.Transparent
// first so that untouched pixels of the result are transparent.
func paletted(img image.Image) *image.Paletted {
	q := quantize.MedianCutQuantizer{}
	pal := q.Quantize(make(color.Palette, 0, 255), img)

	out := image.NewPaletted(img.Bounds(), append(color.Palette{color.Transparent}, pal...))
	draw.Draw(out, img.Bounds(), img, img.Bounds().Min, draw.Over)
	return out
}

// SubPaletteSwatch draws sub-palette sub as a row of cell-sized squares.
// Entry 0 is transparent.
func SubPaletteSwatch(p *wan.Palette, sub, cell int) (*image.Paletted, error) {
	pal, err := p.SubPalette(sub)
	if err != nil {
		return nil, err
	}
	if cell < 1 {
		cell = 1
	}
	img := image.NewPaletted(image.Rect(0, 0, len(pal)*cell, cell), pal)
	for i := range pal {
		draw.Draw(img, image.Rect(i*cell, 0, (i+1)*cell, cell), &image.Uniform{C: pal[i]}, image.Point{}, draw.Src)
	}
	return img, nil
}
