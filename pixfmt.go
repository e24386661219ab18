/*
Package pixfmt converts between packed byte rows of 8-bit raster data and a typed
in-memory image.

A raster codec hands over (or accepts) one packed byte slice per scanline, channel
bytes interleaved per pixel without padding. The stride depends on the color model:
one byte per pixel for Index and Gray, three for RGB and four for RGBA. Index images
also carry a palette of up to 256 RGB triples.

Decode turns a Raster into an Image and Encode turns an Image back into a Raster.
Both are pure transforms; they never retain or mutate their input and are safe to
call concurrently on independent values.
*/
package pixfmt

import (
	"errors"
	"fmt"
)

// ColorModel identifies the pixel representation of an image.
type ColorModel int

const (
	// Index is a palette index per pixel.
	Index ColorModel = iota
	// Gray is a single intensity per pixel.
	Gray
	// RGB is three channels per pixel, always opaque.
	RGB
	// RGBA is four channels per pixel.
	RGBA
)

// MaxPalette is the largest number of entries an Index image can reference.
const MaxPalette = 256

// Largest pixel buffer, in bytes, that will be allocated for a single image
const maxAlloc = 1 << 30

// Cost of one entry in a row table, so empty rows still count
const rowHeader = 24

var modelNames = [...]string{
	Index: "index",
	Gray:  "gray",
	RGB:   "rgb",
	RGBA:  "rgba",
}

// Valid reports whether m is one of the four supported color models.
func (m ColorModel) Valid() bool {
	return m >= Index && m <= RGBA
}

// Stride returns the number of bytes each pixel occupies in a packed row, or
// zero for an unsupported model.
func (m ColorModel) Stride() int {
	switch m {
	case Index, Gray:
		return 1
	case RGB:
		return 3
	case RGBA:
		return 4
	}
	return 0
}

func (m ColorModel) String() string {
	if !m.Valid() {
		return fmt.Sprintf("ColorModel(%d)", int(m))
	}
	return modelNames[m]
}

// ParseColorModel returns the color model with the given name as returned by
// String.
func ParseColorModel(s string) (ColorModel, error) {
	for m, name := range modelNames {
		if name == s {
			return ColorModel(m), nil
		}
	}
	return 0, fmt.Errorf("pixfmt: unknown color model %q", s)
}

var (
	// ErrAllocation is returned when an image or row buffer cannot be
	// allocated, for example because of negative or oversized dimensions.
	ErrAllocation = errors.New("pixfmt: allocation failed")
	// ErrUnsupportedFormat is returned for a color model outside Index,
	// Gray, RGB and RGBA.
	ErrUnsupportedFormat = errors.New("pixfmt: unsupported color model")
	// ErrRowLength is returned when the number or length of rows does not
	// match the declared dimensions and stride.
	ErrRowLength = errors.New("pixfmt: row length mismatch")
	// ErrPaletteSize is returned when a palette has more than MaxPalette
	// entries.
	ErrPaletteSize = errors.New("pixfmt: palette too large")
	// ErrNilImage is returned when Encode or Decode is passed nil.
	ErrNilImage = errors.New("pixfmt: nil image")
)

// DecodeError wraps any failure of Decode.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError wraps any failure of Encode.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return "encode: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// rowSize returns the packed row length for width pixels of model m, failing
// if the pixels and row table of the whole image would exceed maxAlloc.
func rowSize(width, height int, m ColorModel) (int, error) {
	stride := m.Stride()
	if stride == 0 {
		return 0, ErrUnsupportedFormat
	}
	if width < 0 || height < 0 {
		return 0, ErrAllocation
	}
	if width > maxAlloc/stride {
		return 0, ErrAllocation
	}
	if height > maxAlloc/(width*stride+rowHeader) {
		return 0, ErrAllocation
	}
	return width * stride, nil
}
