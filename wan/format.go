package wan

// This file contains the wan package's functions related to implementing
// image.Image and related interfaces. Anything related to the file actually
// having multiple frames lives on WanImage.

import (
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/sir0"
)

func init() {
	image.RegisterFormat("wan", sir0.Magic, Decode, DecodeConfig)
}

// DecodeConfig returns the image.Config of the image Decode would return.
func DecodeConfig(r io.Reader) (image.Config, error) {
	img, err := Decode(r)
	if err != nil {
		return image.Config{}, err
	}
	b := img.Bounds()
	return image.Config{Width: b.Dx(), Height: b.Dy(), ColorModel: color.RGBAModel}, nil
}

// Decode returns frame group 0 of a WAN file, composited.
func Decode(r io.Reader) (image.Image, error) {
	w, err := DecodeWAN(r)
	if err != nil {
		return nil, err
	}
	if w.frameGroups.Len() == 0 {
		return nil, errors.Wrap(ErrIndexOutOfRange, "wan: sprite has no frame groups")
	}
	img, _, err := w.CompositeGroup(0)
	if err != nil {
		return nil, err
	}
	return img, nil
}
