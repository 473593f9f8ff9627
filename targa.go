/*
Package targa implements a streaming codec for uncompressed, unmapped
Targa (TGA) raster images.

The file is written as a fixed 18 byte header followed by the pixel data;
an optional image id and colormap may sit between the two. The pixel data
is height rows of width pixels with no padding between rows and no trailer,
stored top-to-bottom or bottom-to-top depending on the origin bit of the
image descriptor. Because every row has the same size and a known offset,
any row can be read or written in isolation and an image never needs to be
held in memory whole.

Four pixel layouts are supported: 15-bit (5-5-5), 16-bit (5-5-5 plus a
single alpha bit), 24-bit (8-8-8) and 32-bit (8-8-8-8). Run-length encoded
and color-mapped images are not.
*/
package targa

import "fmt"

// Origin is the corner of the image stored first on disk. It only affects
// the on-disk row order; rows exposed by an Image are always addressed from
// the top down.
type Origin uint8

const (
	// UpperLeft images store the top row first
	UpperLeft Origin = iota
	// LowerLeft images store the bottom row first
	LowerLeft
)

func (o Origin) String() string {
	switch o {
	case LowerLeft:
		return "lower-left"
	case UpperLeft:
		return "upper-left"
	}
	return fmt.Sprintf("origin(%d)", uint8(o))
}

// Spec describes the shape of an image. The Spec returned by Image.Spec is
// sufficient to create a new image with the same layout.
type Spec struct {
	Width      int
	Height     int
	ColorDepth int
	HasAlpha   bool
	Origin     Origin
}

func (s Spec) validate() error {
	if s.Width < 0 || s.Width > 0xffff {
		return ArgumentError(fmt.Sprintf("width %d out of range", s.Width))
	}
	if s.Height < 0 || s.Height > 0xffff {
		return ArgumentError(fmt.Sprintf("height %d out of range", s.Height))
	}
	if s.Origin != LowerLeft && s.Origin != UpperLeft {
		return ArgumentError(fmt.Sprintf("invalid origin %d", s.Origin))
	}
	return nil
}
