/*
Package codec reads and writes rasters in real image file formats.

It is the transport side of pixfmt: it validates the format signature, runs
the format decoder or encoder and hands packed rows to, or takes them from,
pixfmt.Decode and pixfmt.Encode. PNG, BMP, TIFF and raw containers are
supported, all at 8 bits per channel.
*/
package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/pixfmt"
	"github.com/bodgit/pixfmt/raw"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format names a supported file format.
type Format string

// Supported formats.
const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	Raw  Format = "raw"
)

var (
	// ErrUnknownFormat is returned when the signature or name of a format
	// isn't recognised.
	ErrUnknownFormat = errors.New("codec: unknown format")
	// ErrBitDepth is returned for images with more than 8 bits per
	// channel.
	ErrBitDepth = errors.New("codec: unsupported bit depth")
)

type format struct {
	format     Format
	extensions []string
	magic      []string
	decode     func(io.Reader) (*pixfmt.Raster, error)
	encode     func(io.Writer, *pixfmt.Raster) error
}

var formats = []format{
	{
		format:     PNG,
		extensions: []string{".png"},
		magic:      []string{pngSignature},
		decode:     decodeWith(png.Decode),
		encode:     encodePNG,
	},
	{
		format:     BMP,
		extensions: []string{".bmp"},
		magic:      []string{"BM"},
		decode:     decodeWith(bmp.Decode),
		encode:     encodeWith(bmp.Encode),
	},
	{
		format:     TIFF,
		extensions: []string{".tif", ".tiff"},
		magic:      []string{"II*\x00", "MM\x00*"},
		decode:     decodeWith(tiff.Decode),
		encode: encodeWith(func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Uncompressed})
		}),
	},
	{
		format:     Raw,
		extensions: []string{".pxr", ".raw"},
		magic:      []string{raw.Magic},
		decode:     raw.Decode,
		encode:     raw.Encode,
	},
}

// Longest signature of any format
const sniffLen = 8

func lookup(f Format) (format, error) {
	for _, x := range formats {
		if x.format == f {
			return x, nil
		}
	}
	return format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// ParseFormat returns the format with the given name.
func ParseFormat(s string) (Format, error) {
	x, err := lookup(Format(strings.ToLower(s)))
	if err != nil {
		return "", err
	}
	return x.format, nil
}

// FormatFromPath guesses the format of a file from its extension.
func FormatFromPath(file string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(file))
	for _, x := range formats {
		for _, e := range x.extensions {
			if e == ext {
				return x.format, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

// Extension returns the preferred file extension for f.
func (f Format) Extension() string {
	x, err := lookup(f)
	if err != nil {
		return ""
	}
	return x.extensions[0]
}

func sniff(r *bufio.Reader) (format, error) {
	b, err := r.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return format{}, err
	}
	for _, x := range formats {
		for _, m := range x.magic {
			if bytes.HasPrefix(b, []byte(m)) {
				return x, nil
			}
		}
	}
	return format{}, ErrUnknownFormat
}

// Sniff returns the format of the data in r by looking at its signature. The
// bytes consumed from r are lost; use Read to sniff and decode in one pass.
func Sniff(r io.Reader) (Format, error) {
	x, err := sniff(bufio.NewReaderSize(r, sniffLen))
	if err != nil {
		return "", err
	}
	return x.format, nil
}

// Read decodes the image in r, detecting its format from the signature.
func Read(r io.Reader) (*pixfmt.Raster, Format, error) {
	br := bufio.NewReader(r)
	x, err := sniff(br)
	if err != nil {
		return nil, "", err
	}
	raster, err := x.decode(br)
	if err != nil {
		return nil, "", err
	}
	return raster, x.format, nil
}

// Write encodes the raster to w in format f.
func Write(w io.Writer, r *pixfmt.Raster, f Format) error {
	x, err := lookup(f)
	if err != nil {
		return err
	}
	return x.encode(w, r)
}

// ReadFile opens and decodes the image in file.
func ReadFile(file string) (*pixfmt.Raster, Format, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	raster, format, err := Read(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", file, err)
	}
	return raster, format, nil
}

// WriteFile encodes the raster to file in format f. The file is removed if
// encoding fails.
func WriteFile(file string, r *pixfmt.Raster, f Format) error {
	w, err := os.Create(file)
	if err != nil {
		return err
	}

	if err := Write(w, r, f); err != nil {
		w.Close()
		os.Remove(file)
		return fmt.Errorf("%s: %w", file, err)
	}

	return w.Close()
}

// DecodeImage reads an image from r and unpacks it into a typed image.
func DecodeImage(r io.Reader) (*pixfmt.Image, Format, error) {
	raster, f, err := Read(r)
	if err != nil {
		return nil, "", err
	}
	m, err := pixfmt.Decode(raster)
	if err != nil {
		return nil, "", err
	}
	return m, f, nil
}

// EncodeImage packs m and writes it to w in format f.
func EncodeImage(w io.Writer, m *pixfmt.Image, f Format) error {
	raster, err := pixfmt.Encode(m)
	if err != nil {
		return err
	}
	return Write(w, raster, f)
}
