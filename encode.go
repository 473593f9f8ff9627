package targa

import (
	"fmt"
	"image"
	"image/color"
	"io"
)

// Encode writes m to w as an uncompressed Targa image with the given color
// depth and alpha handling, one row buffer at a time from the top down.
// The supported combinations are those of Create: 15 or 24 bit color with
// alpha, 16 or 24 bit color without.
func Encode(w io.Writer, m image.Image, colorDepth int, hasAlpha bool) error {
	b := m.Bounds()
	if b.Dx() > 0xffff || b.Dy() > 0xffff {
		return ArgumentError(fmt.Sprintf("%dx%d image does not fit in a Targa file", b.Dx(), b.Dy()))
	}

	bitsPerPixel, alphaDepth, err := headerDepth(colorDepth, hasAlpha)
	if err != nil {
		return err
	}
	format, err := pickFormat(int(bitsPerPixel), int(alphaDepth))
	if err != nil {
		return err
	}

	if err := encodeHeader(w, b.Dx(), b.Dy(), bitsPerPixel, alphaDepth|descOriginBit); err != nil {
		return err
	}

	stride := format.bytesPerPixel()
	buf := make([]byte, stride*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			format.encode(buf[(x-b.Min.X)*stride:], format.colorFromRGBA(c.R, c.G, c.B, c.A))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}

	return nil
}
