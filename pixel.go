package targa

import "fmt"

// pixelFormat converts between the packed on-disk value of one pixel and its
// 8-bit channels. The conversions are pure; any 0-255 channel value and any
// packed color round through without error. A variant is picked once when an
// image is opened and never changes.
type pixelFormat interface {
	bytesPerPixel() int
	alphaDepth() int

	rgbFromColor(c uint32) (r, g, b uint8)
	rgbaFromColor(c uint32) (r, g, b, a uint8)
	colorFromRGB(r, g, b uint8) uint32
	colorFromRGBA(r, g, b, a uint8) uint32

	// decode and encode map between a packed color and its little-endian
	// on-disk bytes. Both expect p to hold at least bytesPerPixel bytes.
	decode(p []byte) uint32
	encode(p []byte, c uint32)
}

// pickFormat selects the variant matching a decoded header.
func pickFormat(bitsPerPixel, alphaDepth int) (pixelFormat, error) {
	switch {
	case bitsPerPixel == 16 && alphaDepth == 0:
		return format15{}, nil
	case bitsPerPixel == 16 && alphaDepth == 1:
		return format16{}, nil
	case bitsPerPixel == 24 && alphaDepth == 0:
		return format24{stride: 3}, nil
	case bitsPerPixel == 32 && alphaDepth == 0:
		// Three stored channels padded to four bytes; the high byte is
		// unused.
		return format24{stride: 4}, nil
	case bitsPerPixel == 32 && alphaDepth == 8:
		return format32{}, nil
	}
	return nil, FormatError(fmt.Sprintf("%d bpp with %d-bit alpha channel not supported", bitsPerPixel, alphaDepth))
}

// headerDepth maps a create spec onto the header bits-per-pixel and the
// alpha depth stored in the image descriptor.
func headerDepth(colorDepth int, hasAlpha bool) (bitsPerPixel, alphaDepth uint8, err error) {
	switch {
	case colorDepth == 15 && hasAlpha:
		return 16, 1, nil
	case colorDepth == 16 && !hasAlpha:
		return 16, 0, nil
	case colorDepth == 24 && !hasAlpha:
		return 24, 0, nil
	case colorDepth == 24 && hasAlpha:
		return 32, 8, nil
	}
	return 0, 0, ArgumentError(fmt.Sprintf("%d-bit color with alpha %t not supported", colorDepth, hasAlpha))
}

// scale5 widens a five bit channel to eight bits; 31 maps back to 255
// exactly.
func scale5(c uint32) uint8 {
	return uint8((c & 0x1f) * 255 / 31)
}

// pack555 quantizes each channel to five bits, truncating the low three
// bits rather than rounding, with red in bits 10-14 and blue in bits 0-4.
func pack555(r, g, b uint8) uint32 {
	return uint32(r)>>3<<10 | uint32(g)>>3<<5 | uint32(b)>>3
}

// format15 is 5-5-5 in a two byte field; the top bit is unused.
type format15 struct{}

func (format15) bytesPerPixel() int { return 2 }
func (format15) alphaDepth() int    { return 0 }

func (format15) rgbFromColor(c uint32) (r, g, b uint8) {
	return scale5(c >> 10), scale5(c >> 5), scale5(c)
}

func (f format15) rgbaFromColor(c uint32) (r, g, b, a uint8) {
	r, g, b = f.rgbFromColor(c)
	return r, g, b, 0xff
}

func (format15) colorFromRGB(r, g, b uint8) uint32 {
	return pack555(r, g, b)
}

func (f format15) colorFromRGBA(r, g, b, _ uint8) uint32 {
	return f.colorFromRGB(r, g, b)
}

func (format15) decode(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8
}

func (format15) encode(p []byte, c uint32) {
	p[0] = byte(c)
	p[1] = byte(c >> 8)
}

// format16 is 5-5-5-1; bit 15 carries the single alpha bit.
type format16 struct{}

func (format16) bytesPerPixel() int { return 2 }
func (format16) alphaDepth() int    { return 1 }

func (format16) rgbFromColor(c uint32) (r, g, b uint8) {
	return scale5(c >> 10), scale5(c >> 5), scale5(c)
}

func (f format16) rgbaFromColor(c uint32) (r, g, b, a uint8) {
	r, g, b = f.rgbFromColor(c)
	if c>>15&1 != 0 {
		a = 0xff
	}
	return
}

func (f format16) colorFromRGB(r, g, b uint8) uint32 {
	return f.colorFromRGBA(r, g, b, 0xff)
}

func (format16) colorFromRGBA(r, g, b, a uint8) uint32 {
	return uint32(a)>>7<<15 | pack555(r, g, b)
}

func (format16) decode(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8
}

func (format16) encode(p []byte, c uint32) {
	p[0] = byte(c)
	p[1] = byte(c >> 8)
}

// format24 is 8-8-8 with no stored alpha. A stride of four covers the
// 32 bpp zero-alpha layout; the extra byte is ignored on read and written
// as zero.
type format24 struct {
	stride int
}

func (f format24) bytesPerPixel() int { return f.stride }
func (format24) alphaDepth() int      { return 0 }

func (format24) rgbFromColor(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

func (f format24) rgbaFromColor(c uint32) (r, g, b, a uint8) {
	r, g, b = f.rgbFromColor(c)
	return r, g, b, 0xff
}

func (format24) colorFromRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func (f format24) colorFromRGBA(r, g, b, _ uint8) uint32 {
	return f.colorFromRGB(r, g, b)
}

func (format24) decode(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
}

func (f format24) encode(p []byte, c uint32) {
	p[0] = byte(c)
	p[1] = byte(c >> 8)
	p[2] = byte(c >> 16)
	if f.stride == 4 {
		p[3] = 0
	}
}

// format32 is 8-8-8-8.
type format32 struct{}

func (format32) bytesPerPixel() int { return 4 }
func (format32) alphaDepth() int    { return 8 }

func (f format32) rgbFromColor(c uint32) (r, g, b uint8) {
	r, g, b, _ = f.rgbaFromColor(c)
	return
}

func (format32) rgbaFromColor(c uint32) (r, g, b, a uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c), uint8(c >> 24)
}

func (f format32) colorFromRGB(r, g, b uint8) uint32 {
	return f.colorFromRGBA(r, g, b, 0xff)
}

func (format32) colorFromRGBA(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func (format32) decode(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}

func (format32) encode(p []byte, c uint32) {
	p[0] = byte(c)
	p[1] = byte(c >> 8)
	p[2] = byte(c >> 16)
	p[3] = byte(c >> 24)
}
