// Package imageprint prints sprite previews on a terminal.
//
// This package has an API with no stability guarantees.
package imageprint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	ic "image/color"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Mode selects how pixels reach the terminal.
type Mode int

const (
	ModeAuto Mode = iota
	ModeTrueColor
	Mode256Color
	ModeNoColor
	ModeITerm
	ModeRasTerm
)

var modeNames = []string{
	ModeAuto:      "auto",
	ModeTrueColor: "24bit",
	Mode256Color:  "256color",
	ModeNoColor:   "nocolor",
	ModeITerm:     "iterm",
	ModeRasTerm:   "rasterm",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode maps a mode name, as printed by Mode.String, back to a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(m), nil
		}
	}
	return ModeAuto, errors.Errorf("imageprint: unknown mode %q (want one of %s)", s, strings.Join(modeNames, ", "))
}

// Detect picks the best mode the terminal seems to support.
func Detect() Mode {
	if rasterCapable() {
		return ModeRasTerm
	}
	switch os.Getenv("COLORTERM") {
	case "truecolor", "24bit":
		return ModeTrueColor
	}
	return Mode256Color
}

// Printer writes images to Out.
type Printer struct {
	Out io.Writer
	// Blanks prints every pixel as colored spaces instead of shaded
	// characters.
	Blanks bool
	// Scale enlarges images by an integer factor before printing.
	Scale int
	// MaxWidth and MaxHeight, if set, shrink larger images to fit.
	MaxWidth, MaxHeight uint
}

// New returns a printer writing to out.
func New(out io.Writer) *Printer {
	return &Printer{Out: out}
}

// Print draws img. name is only used by the iTerm protocol.
func (p *Printer) Print(img image.Image, m Mode, name string) error {
	img = p.resize(img)
	if m == ModeAuto {
		m = Detect()
	}
	switch m {
	case ModeTrueColor, Mode256Color, ModeNoColor:
		p.printCells(img, m)
		return nil
	case ModeITerm:
		return p.printITerm(img, name)
	case ModeRasTerm:
		return p.printRasTerm(img)
	default:
		return errors.Errorf("imageprint: cannot print in mode %s", m)
	}
}

func (p *Printer) resize(img image.Image) image.Image {
	if p.Scale > 1 {
		b := img.Bounds()
		img = resize.Resize(uint(b.Dx()*p.Scale), uint(b.Dy()*p.Scale), img, resize.NearestNeighbor)
	}
	if p.MaxWidth > 0 && p.MaxHeight > 0 {
		b := img.Bounds()
		if uint(b.Dx()) > p.MaxWidth || uint(b.Dy()) > p.MaxHeight {
			img = resize.Thumbnail(p.MaxWidth, p.MaxHeight, img, resize.Lanczos3)
		}
	}
	return img
}

func (p *Printer) printCells(img image.Image, m Mode) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p.shade(img.At(x, y), m)
		}
		if m != ModeNoColor {
			fmt.Fprint(p.Out, "\x1b[0m")
		}
		fmt.Fprint(p.Out, "\n")
	}
}

func (p *Printer) shade(col ic.Color, m Mode) {
	cR, cG, cB, cA := col.RGBA()
	if cA == 0 {
		if m == ModeNoColor {
			fmt.Fprint(p.Out, "  ")
		} else {
			fmt.Fprint(p.Out, "\x1b[0m  ")
		}
		return
	}

	cell := "  "
	if !p.Blanks {
		a := ((cR + cG + cB) / 3) >> 8
		switch {
		case a < 32:
			cell = ".."
		case a < 64:
			cell = "--"
		case a < 128:
			cell = "=="
		default:
			cell = "##"
		}
	}

	switch m {
	case ModeTrueColor:
		fmt.Fprintf(p.Out, "\x1b[48;2;%d;%d;%dm%s\x1b[0m", uint8(cR>>8), uint8(cG>>8), uint8(cB>>8), cell)
	case Mode256Color:
		fmt.Fprint(p.Out, color.C256(Nearest256(col), true).Sprint(cell))
	default:
		fmt.Fprint(p.Out, cell)
	}
}

// printITerm draws an image using iTerm2's inline image escape sequence.
//
// https://www.iterm2.com/documentation-images.html
func (p *Printer) printITerm(img image.Image, fn string) error {
	name := base64.StdEncoding.EncodeToString([]byte(fn))
	b := &bytes.Buffer{}
	bEnc := base64.NewEncoder(base64.StdEncoding, b)
	if err := png.Encode(bEnc, img); err != nil {
		return errors.Wrap(err, "imageprint: encoding png")
	}
	bEnc.Close()
	_, err := fmt.Fprintf(p.Out, "\n\033]1337;File=name=%s;inline=1;size=%d;width=%dpx;height=%dpx:%s\a\n", name, b.Len(), img.Bounds().Dx(), img.Bounds().Dy(), b.String())
	return err
}
