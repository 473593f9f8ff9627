package targa

import (
	"encoding/binary"
	"io"
)

const headerLen = 18

// dataUncompressedRGB is the only data type code supported; everything else
// is either color-mapped, monochrome or run-length encoded.
const dataUncompressedRGB = 2

const (
	descAlphaMask      = 0x0f
	descOriginBit      = 0x20
	descInterleaveMask = 0xc0
)

// rawHeader is the fixed 18 byte header at the start of every Targa file.
// All multi-byte fields are little-endian.
type rawHeader struct {
	IDLength        uint8
	ColorMapType    uint8
	DataTypeCode    uint8
	ColorMapOrigin  uint16
	ColorMapLength  uint16
	ColorMapDepth   uint8
	XOrigin         uint16
	YOrigin         uint16
	Width           uint16
	Height          uint16
	BitsPerPixel    uint8
	ImageDescriptor uint8
}

// resolved is the view of a decoded header the rest of the codec works from.
// It is computed once and never modified afterwards.
type resolved struct {
	width        int
	height       int
	bitsPerPixel int
	alphaDepth   int
	colorDepth   int
	origin       Origin
	dataOffset   int64
}

// decodeHeader reads and validates the header at the current position of r.
func decodeHeader(r io.Reader) (*rawHeader, *resolved, error) {
	var raw rawHeader
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, nil, err
	}

	if raw.DataTypeCode != dataUncompressedRGB {
		return nil, nil, FormatError("only uncompressed, unmapped RGB/RGBA images are supported")
	}
	if raw.ImageDescriptor&descInterleaveMask != 0 {
		return nil, nil, FormatError("interleaved data is not supported")
	}

	res := &resolved{
		width:        int(raw.Width),
		height:       int(raw.Height),
		bitsPerPixel: int(raw.BitsPerPixel),
		alphaDepth:   int(raw.ImageDescriptor & descAlphaMask),
		origin:       LowerLeft,
		dataOffset:   int64(headerLen) + int64(raw.IDLength) + int64(raw.ColorMapLength),
	}
	res.colorDepth = res.bitsPerPixel - res.alphaDepth
	if raw.ImageDescriptor&descOriginBit != 0 {
		res.origin = UpperLeft
	}

	return &raw, res, nil
}

// encodeHeader writes a header with no image id, no colormap and a zero
// screen origin; only the creation path produces headers so nothing else is
// ever needed.
func encodeHeader(w io.Writer, width, height int, bitsPerPixel, descriptor uint8) error {
	raw := rawHeader{
		DataTypeCode:    dataUncompressedRGB,
		Width:           uint16(width),
		Height:          uint16(height),
		BitsPerPixel:    bitsPerPixel,
		ImageDescriptor: descriptor,
	}
	return binary.Write(w, binary.LittleEndian, &raw)
}
