package targa

import (
	"image"
	"image/color"
	"io"
	"io/ioutil"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Decode reads a Targa image from r and returns it as an image.Image. The
// whole image is read sequentially; r does not need to support seeking.
func Decode(r io.Reader) (image.Image, error) {
	res, format, err := decodeStream(r)
	if err != nil {
		return nil, err
	}

	m := image.NewNRGBA(image.Rect(0, 0, res.width, res.height))

	stride := format.bytesPerPixel()
	buf := make([]byte, stride*res.width)
	for i := 0; i < res.height; i++ {
		if err := readFull(r, buf); err != nil {
			return nil, err
		}

		y := i
		if res.origin == LowerLeft {
			y = res.height - 1 - i
		}
		for x := 0; x < res.width; x++ {
			cr, cg, cb, ca := format.rgbaFromColor(format.decode(buf[x*stride:]))
			m.SetNRGBA(x, y, color.NRGBA{cr, cg, cb, ca})
		}
	}

	return m, nil
}

// DecodeConfig returns the color model and dimensions of a Targa image
// without decoding the pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	_, res, err := decodeHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	if _, err := pickFormat(res.bitsPerPixel, res.alphaDepth); err != nil {
		return image.Config{}, err
	}

	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      res.width,
		Height:     res.height,
	}, nil
}

// decodeStream reads past the header, image id and colormap leaving r
// positioned at the pixel data.
func decodeStream(r io.Reader) (*resolved, pixelFormat, error) {
	_, res, err := decodeHeader(r)
	if err != nil {
		return nil, nil, err
	}

	format, err := pickFormat(res.bitsPerPixel, res.alphaDepth)
	if err != nil {
		return nil, nil, err
	}

	if skip := res.dataOffset - headerLen; skip > 0 {
		if _, err := io.CopyN(ioutil.Discard, r, skip); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, nil, err
		}
	}

	return res, format, nil
}

func init() {
	// Targa has no magic bytes so an empty prefix is registered; the
	// format only matches once everything else has been ruled out.
	image.RegisterFormat("tga", "", Decode, DecodeConfig)
}
