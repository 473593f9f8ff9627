package targa

import "errors"

// FormatError reports that the on-disk data is not a valid or supported
// Targa image.
type FormatError string

func (e FormatError) Error() string { return "targa: " + string(e) }

// ArgumentError reports invalid caller input, such as an unsupported create
// spec or a row of the wrong length.
type ArgumentError string

func (e ArgumentError) Error() string { return "targa: " + string(e) }

// RangeError reports a row index outside the image.
type RangeError string

func (e RangeError) Error() string { return "targa: " + string(e) }

// ErrClosed is returned by any operation on a closed Image.
var ErrClosed = errors.New("targa: image is closed")
