package wan

import (
	"fmt"
)

// ExampleParse decodes a sprite and renders its first frame group.
func ExampleParse() {
	buf, err := richSprite().MarshalBinary()
	if err != nil {
		fmt.Printf("failed to encode: %s", err)
		return
	}

	w, err := Parse(buf)
	if err != nil {
		fmt.Printf("failed to parse: %s", err)
		return
	}
	img, origin, err := w.CompositeGroup(0)
	if err != nil {
		fmt.Printf("failed to render: %s", err)
		return
	}
	fmt.Printf("%s sprite, %d frame groups\n", w.SpriteType(), w.FrameGroups().Len())
	fmt.Printf("group 0: %dx%d, origin at %v\n", img.Bounds().Dx(), img.Bounds().Dy(), origin)
	// Output:
	// Chara sprite, 3 frame groups
	// group 0: 32x16, origin at (8,16)
}
