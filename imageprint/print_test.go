package imageprint

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"badc0de.net/pkg/go-pmdwan/ttesting"
)

func twoPixels() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(1, 0, color.RGBA{R: 255, A: 255})
	return img
}

func TestPrintTrueColor(t *testing.T) {
	var buf bytes.Buffer
	err := New(&buf).Print(twoPixels(), ModeTrueColor, "")
	ttesting.AssertNoError(t, "print", err)

	want := "\x1b[0m  " + "\x1b[48;2;255;0;0m==\x1b[0m" + "\x1b[0m\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q; want %q", got, want)
	}
}

func TestPrintNoColorBlanks(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.Blanks = true
	p.Scale = 2
	err := p.Print(twoPixels(), ModeNoColor, "")
	ttesting.AssertNoError(t, "print", err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	ttesting.AssertEqualInt(t, "rows", len(lines), 2)
	ttesting.AssertEqualInt(t, "columns", len(lines[0]), 8)
}

func TestPrintShrinksToFit(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.MaxWidth, p.MaxHeight = 4, 4
	err := p.Print(image.NewRGBA(image.Rect(0, 0, 16, 8)), ModeNoColor, "")
	ttesting.AssertNoError(t, "print", err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	ttesting.AssertEqualInt(t, "rows", len(lines), 2)
}

func TestPrintITerm(t *testing.T) {
	var buf bytes.Buffer
	err := New(&buf).Print(twoPixels(), ModeITerm, "x.png")
	ttesting.AssertNoError(t, "print", err)
	if !strings.Contains(buf.String(), "\033]1337;File=name=eC5wbmc=;inline=1;") {
		t.Errorf("missing iTerm escape in %q", buf.String())
	}
}

func TestNearest256(t *testing.T) {
	ttesting.AssertEqualInt(t, "red", int(Nearest256(color.RGBA{R: 255, A: 255})), 196)
	ttesting.AssertEqualInt(t, "black", int(Nearest256(color.RGBA{A: 255})), 16)
	ttesting.AssertEqualInt(t, "gray", int(Nearest256(color.RGBA{R: 128, G: 128, B: 128, A: 255})), 244)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeAuto, ModeTrueColor, Mode256Color, ModeNoColor, ModeITerm, ModeRasTerm} {
		got, err := ParseMode(m.String())
		ttesting.AssertNoError(t, m.String(), err)
		ttesting.AssertEqualInt(t, m.String(), int(got), int(m))
	}
	if _, err := ParseMode("braille"); err == nil {
		t.Errorf("ParseMode(braille) succeeded")
	}
}
