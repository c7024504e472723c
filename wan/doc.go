// Package wan implements a reader for WAN sprite containers, as used by
// Pokémon Mystery Dungeon: Explorers of Sky for characters, props and UI.
//
// A WAN file is SIR0-wrapped. It holds a palette split into 16-color
// sub-palettes, a store of tile-compressed images, fragments (one image placed
// at an offset with a sub-palette and flip flags), frame groups (ordered lists
// of fragments forming one frame) and animations (timed sequences of frame
// groups).
//
// Parse decodes the whole file up front; afterwards a WanImage is read-only
// and safe for concurrent rendering. Decoded sprites can be re-encoded with
// MarshalBinary.
//
// Importing the package also registers the "wan" format with the image
// package, so image.Decode returns the first frame group of a sprite.
package wan
