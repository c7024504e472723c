//go:build go1.13 && !windows
// +build go1.13,!windows

package imageprint

import (
	"fmt"
	"image"

	"github.com/BourgeoisBear/rasterm"
	"github.com/andybons/gogif"
	"github.com/pkg/errors"
)

func rasterCapable() bool {
	if rasterm.IsTermKitty() || rasterm.IsTermItermWez() {
		return true
	}
	capable, err := rasterm.IsSixelCapable()
	return capable && err == nil
}

// printRasTerm draws an image using the RasTerm library: the kitty or iTerm
// protocols where available, sixels otherwise.
func (p *Printer) printRasTerm(i image.Image) error {
	if rasterm.IsTermKitty() {
		if err := (rasterm.Settings{}).KittyWriteImage(p.Out, i); err != nil {
			return errors.Wrap(err, "imageprint: kitty")
		}
		fmt.Fprint(p.Out, "\n")
		return nil
	}
	if rasterm.IsTermItermWez() {
		if err := (rasterm.Settings{}).ItermWriteImage(p.Out, i); err != nil {
			return errors.Wrap(err, "imageprint: iterm")
		}
		fmt.Fprint(p.Out, "\n")
		return nil
	}
	if capable, err := rasterm.IsSixelCapable(); capable && err == nil {
		palettedImage := image.NewPaletted(i.Bounds(), nil)
		quantizer := gogif.MedianCutQuantizer{NumColor: 64}
		quantizer.Quantize(palettedImage, i.Bounds(), i, image.Point{})

		if err := (rasterm.Settings{}).SixelWriteImage(p.Out, palettedImage); err != nil {
			return errors.Wrap(err, "imageprint: sixel")
		}
		fmt.Fprint(p.Out, "\n")
		return nil
	}
	return errors.New("imageprint: terminal supports neither kitty, iterm nor sixel images")
}
