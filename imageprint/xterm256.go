package imageprint

import (
	ic "image/color"

	"github.com/bradfitz/iter"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// cubeLevels are the channel intensities of the xterm 6x6x6 color cube.
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// xterm256 holds entries 16 to 255 of the xterm palette. The 16 system colors
// are left out; terminals disagree on them.
var xterm256 = buildXterm256()

func buildXterm256() []colorful.Color {
	pal := make([]colorful.Color, 0, 240)
	for r := range iter.N(6) {
		for g := range iter.N(6) {
			for b := range iter.N(6) {
				pal = append(pal, colorful.Color{
					R: float64(cubeLevels[r]) / 255,
					G: float64(cubeLevels[g]) / 255,
					B: float64(cubeLevels[b]) / 255,
				})
			}
		}
	}
	for i := range iter.N(24) {
		v := float64(8+10*i) / 255
		pal = append(pal, colorful.Color{R: v, G: v, B: v})
	}
	return pal
}

// Nearest256 returns the xterm-256 color index perceptually closest to c.
func Nearest256(c ic.Color) uint8 {
	want, _ := colorful.MakeColor(c)
	best, bestDist := 0, -1.0
	for i, candidate := range xterm256 {
		if d := want.DistanceLab(candidate); bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return uint8(16 + best)
}
