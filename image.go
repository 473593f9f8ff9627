package targa

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Image is a handle onto one open Targa image. Rows are addressed by their
// visual position: row 0 is always the topmost row regardless of the
// storage order on disk.
//
// An Image may be used from multiple goroutines; every row transfer runs
// under an internal lock because seeking and transferring on the shared
// stream is not atomic. Close must not race with an in-flight row
// operation on the same handle.
type Image struct {
	mu     sync.Mutex
	rws    io.ReadWriteSeeker
	res    resolved
	format pixelFormat
	closed bool
}

// Open decodes the header at the start of rws and returns a handle onto the
// image. The stream must be positioned at the start; row offsets are
// computed from the absolute beginning of the stream.
func Open(rws io.ReadWriteSeeker) (*Image, error) {
	_, res, err := decodeHeader(rws)
	if err != nil {
		return nil, err
	}

	format, err := pickFormat(res.bitsPerPixel, res.alphaDepth)
	if err != nil {
		return nil, err
	}

	return &Image{
		rws:    rws,
		res:    *res,
		format: format,
	}, nil
}

// OpenFile opens the named file for reading and writing and decodes it as a
// Targa image.
func OpenFile(name string) (*Image, error) {
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	img, err := Open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return img, nil
}

// Create writes a fresh header for spec to rws, seeks back to the start and
// opens the result, so the write and read paths always agree on the layout.
// The pixel data is left to the caller; rows not yet written read back as
// whatever the underlying storage holds.
func Create(rws io.ReadWriteSeeker, spec Spec) (*Image, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	bitsPerPixel, alphaDepth, err := headerDepth(spec.ColorDepth, spec.HasAlpha)
	if err != nil {
		return nil, err
	}

	descriptor := alphaDepth
	if spec.Origin == UpperLeft {
		descriptor |= descOriginBit
	}

	if err := encodeHeader(rws, spec.Width, spec.Height, bitsPerPixel, descriptor); err != nil {
		return nil, err
	}
	if _, err := rws.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	return Open(rws)
}

// CreateFile creates or truncates the named file and writes a fresh image
// header for spec to it.
func CreateFile(name string, spec Spec) (*Image, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}

	img, err := Create(f, spec)
	if err != nil {
		f.Close()
		return nil, err
	}
	return img, nil
}

// Spec returns the shape of the image; passing it to Create produces an
// image with an identical layout.
func (img *Image) Spec() Spec {
	return Spec{
		Width:      img.res.width,
		Height:     img.res.height,
		ColorDepth: img.res.colorDepth,
		HasAlpha:   img.res.alphaDepth > 0,
		Origin:     img.res.origin,
	}
}

// Close releases the underlying stream, closing it if it implements
// io.Closer. Any further operation on the handle returns ErrClosed.
func (img *Image) Close() error {
	img.mu.Lock()
	defer img.mu.Unlock()

	if img.closed {
		return ErrClosed
	}
	img.closed = true

	if c, ok := img.rws.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (img *Image) rowSize() int {
	return img.format.bytesPerPixel() * img.res.width
}

// rowOffset maps a visual row index onto its absolute file offset. This is
// the only place the vertical flip for lower-left images happens.
func (img *Image) rowOffset(y int) (int64, error) {
	if y < 0 || y >= img.res.height {
		return 0, RangeError(fmt.Sprintf("row %d out of range 0..%d", y, img.res.height-1))
	}
	if img.res.origin == LowerLeft {
		y = img.res.height - 1 - y
	}
	return img.res.dataOffset + int64(img.rowSize())*int64(y), nil
}

func (img *Image) readRow(y int, p []byte) error {
	img.mu.Lock()
	defer img.mu.Unlock()

	if img.closed {
		return ErrClosed
	}

	off, err := img.rowOffset(y)
	if err != nil {
		return err
	}

	if _, err := img.rws.Seek(off, io.SeekStart); err != nil {
		return err
	}
	return readFull(img.rws, p)
}

func (img *Image) writeRow(y int, p []byte) error {
	img.mu.Lock()
	defer img.mu.Unlock()

	if img.closed {
		return ErrClosed
	}

	if len(p) != img.rowSize() {
		return ArgumentError(fmt.Sprintf("row is %d bytes, want %d", len(p), img.rowSize()))
	}

	off, err := img.rowOffset(y)
	if err != nil {
		return err
	}

	if _, err := img.rws.Seek(off, io.SeekStart); err != nil {
		return err
	}
	_, err = img.rws.Write(p)
	return err
}

// RowRGB reads row y and returns it as red, green, blue triples. Any alpha
// stored in the image is dropped.
func (img *Image) RowRGB(y int) ([][3]uint8, error) {
	buf := make([]byte, img.rowSize())
	if err := img.readRow(y, buf); err != nil {
		return nil, err
	}

	stride := img.format.bytesPerPixel()
	row := make([][3]uint8, img.res.width)
	for x := range row {
		r, g, b := img.format.rgbFromColor(img.format.decode(buf[x*stride:]))
		row[x] = [3]uint8{r, g, b}
	}
	return row, nil
}

// RowRGBA reads row y and returns it as red, green, blue, alpha quads.
// Formats without a stored alpha channel report every pixel as opaque.
func (img *Image) RowRGBA(y int) ([][4]uint8, error) {
	buf := make([]byte, img.rowSize())
	if err := img.readRow(y, buf); err != nil {
		return nil, err
	}

	stride := img.format.bytesPerPixel()
	row := make([][4]uint8, img.res.width)
	for x := range row {
		r, g, b, a := img.format.rgbaFromColor(img.format.decode(buf[x*stride:]))
		row[x] = [4]uint8{r, g, b, a}
	}
	return row, nil
}

// PutRowRGB writes row y from red, green, blue triples. The row must hold
// exactly one pixel per image column.
func (img *Image) PutRowRGB(y int, row [][3]uint8) error {
	if len(row) != img.res.width {
		return ArgumentError(fmt.Sprintf("row has %d pixels, want %d", len(row), img.res.width))
	}

	stride := img.format.bytesPerPixel()
	buf := make([]byte, img.rowSize())
	for x, p := range row {
		img.format.encode(buf[x*stride:], img.format.colorFromRGB(p[0], p[1], p[2]))
	}
	return img.writeRow(y, buf)
}

// PutRowRGBA writes row y from red, green, blue, alpha quads. Formats
// without a stored alpha channel ignore the alpha values.
func (img *Image) PutRowRGBA(y int, row [][4]uint8) error {
	if len(row) != img.res.width {
		return ArgumentError(fmt.Sprintf("row has %d pixels, want %d", len(row), img.res.width))
	}

	stride := img.format.bytesPerPixel()
	buf := make([]byte, img.rowSize())
	for x, p := range row {
		img.format.encode(buf[x*stride:], img.format.colorFromRGBA(p[0], p[1], p[2], p[3]))
	}
	return img.writeRow(y, buf)
}

// EachRowRGB calls f once per row from the top down. Every call rereads the
// image from row 0, so iteration can be restarted at any time and observes
// writes made since the last pass. A non-nil error from f stops the
// iteration and is returned.
func (img *Image) EachRowRGB(f func(row [][3]uint8, y int) error) error {
	for y := 0; y < img.res.height; y++ {
		row, err := img.RowRGB(y)
		if err != nil {
			return err
		}
		if err := f(row, y); err != nil {
			return err
		}
	}
	return nil
}

// EachRowRGBA is EachRowRGB with alpha.
func (img *Image) EachRowRGBA(f func(row [][4]uint8, y int) error) error {
	for y := 0; y < img.res.height; y++ {
		row, err := img.RowRGBA(y)
		if err != nil {
			return err
		}
		if err := f(row, y); err != nil {
			return err
		}
	}
	return nil
}
