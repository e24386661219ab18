/*
Package raw implements a decoder and encoder for raw raster containers.

A container stores a pixfmt.Raster verbatim so it can be persisted or moved
between processes without another codec. All integers are little endian:

	magic     4 bytes  "PXFR"
	version   1 byte   currently 1
	model     1 byte   pixfmt.ColorModel
	width     4 bytes
	height    4 bytes
	colors    2 bytes  palette entries, at most 256
	palette   colors * 3 bytes of red, green, blue
	rows      height * width * stride bytes
	checksum  4 bytes  CRC-32 of everything before it

There is no compression so the size of a container is fully determined by its
header.
*/
package raw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/ioutil"

	"github.com/bodgit/pixfmt"
	"github.com/bodgit/pixfmt/crc32"
)

const (
	// Magic is the signature at the start of every container.
	Magic      = "PXFR"
	version    = 1
	headerSize = len(Magic) + 1 + 1 + 4 + 4 + 2
	entrySize  = 3
	crcSize    = crc32.Size
	maxPixels  = 1 << 30
)

var (
	errNotEnough   = errors.New("raw: not enough image data")
	errTooMuch     = errors.New("raw: too much image data")
	errBadMagic    = errors.New("raw: invalid signature")
	errBadVersion  = errors.New("raw: unsupported version")
	errBadModel    = errors.New("raw: unsupported color model")
	errBadPalette  = errors.New("raw: invalid palette size")
	errBadChecksum = errors.New("raw: checksum mismatch")
	errBadSize     = errors.New("raw: invalid dimensions")
)

// Config holds the header fields of a container.
type Config struct {
	Width, Height int
	Model         pixfmt.ColorModel
	Colors        int
}

func (c Config) size() int64 {
	return int64(headerSize) + int64(c.Colors)*entrySize + int64(c.Width)*int64(c.Height)*int64(c.Model.Stride()) + crcSize
}

func parseHeader(b []byte) (Config, error) {
	if len(b) < headerSize {
		return Config{}, errNotEnough
	}
	if string(b[:len(Magic)]) != Magic {
		return Config{}, errBadMagic
	}
	b = b[len(Magic):]
	if b[0] != version {
		return Config{}, errBadVersion
	}
	c := Config{
		Model:  pixfmt.ColorModel(b[1]),
		Width:  int(binary.LittleEndian.Uint32(b[2:])),
		Height: int(binary.LittleEndian.Uint32(b[6:])),
		Colors: int(binary.LittleEndian.Uint16(b[10:])),
	}
	if !c.Model.Valid() {
		return Config{}, errBadModel
	}
	// Rows without pixels would let a tiny file allocate an arbitrary row table
	if c.Width == 0 && c.Height > 0 {
		return Config{}, errBadSize
	}
	if c.Width > 0 && c.Height > maxPixels/c.Model.Stride()/c.Width {
		return Config{}, errBadSize
	}
	if c.Colors > pixfmt.MaxPalette || (c.Colors > 0 && c.Model != pixfmt.Index) {
		return Config{}, errBadPalette
	}
	return c, nil
}

// Container wraps a raster. It implements the encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler interfaces.
type Container struct {
	Raster *pixfmt.Raster
}

// MarshalBinary encodes the raster into binary form and returns the result
func (c *Container) MarshalBinary() ([]byte, error) {
	r := c.Raster
	if r == nil || !r.Model.Valid() {
		return nil, errBadModel
	}
	if len(r.Palette) > pixfmt.MaxPalette || (len(r.Palette) > 0 && r.Model != pixfmt.Index) {
		return nil, errBadPalette
	}
	if r.Width < 0 || r.Height < 0 || (r.Width == 0 && r.Height > 0) {
		return nil, errBadSize
	}
	if len(r.Rows) != r.Height {
		return nil, errNotEnough
	}
	stride := r.Stride()
	for _, row := range r.Rows {
		if len(row) != stride {
			return nil, errNotEnough
		}
	}

	b := new(bytes.Buffer)
	b.Grow(int(Config{r.Width, r.Height, r.Model, len(r.Palette)}.size()))

	b.WriteString(Magic)
	b.WriteByte(version)
	b.WriteByte(byte(r.Model))

	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(r.Width))
	b.Write(tmp[:])
	binary.LittleEndian.PutUint32(tmp[:], uint32(r.Height))
	b.Write(tmp[:])
	binary.LittleEndian.PutUint16(tmp[:2], uint16(len(r.Palette)))
	b.Write(tmp[:2])

	for _, e := range r.Palette {
		b.Write([]byte{e.Red, e.Green, e.Blue})
	}

	for _, row := range r.Rows {
		b.Write(row)
	}

	binary.LittleEndian.PutUint32(tmp[:], crc32.Checksum(b.Bytes()))
	b.Write(tmp[:])

	return b.Bytes(), nil
}

// UnmarshalBinary decodes the raster from binary form
func (c *Container) UnmarshalBinary(b []byte) error {
	cfg, err := parseHeader(b)
	if err != nil {
		return err
	}

	switch size := cfg.size(); {
	case int64(len(b)) < size:
		return errNotEnough
	case int64(len(b)) > size:
		return errTooMuch
	}

	body, sum := b[:len(b)-crcSize], b[len(b)-crcSize:]
	if crc32.Checksum(body) != binary.LittleEndian.Uint32(sum) {
		return errBadChecksum
	}

	r := &pixfmt.Raster{
		Width:  cfg.Width,
		Height: cfg.Height,
		Model:  cfg.Model,
	}

	p := body[headerSize:]
	if cfg.Model == pixfmt.Index {
		r.Palette = make([]pixfmt.Entry, cfg.Colors)
		for i := range r.Palette {
			r.Palette[i] = pixfmt.Entry{Red: p[0], Green: p[1], Blue: p[2]}
			p = p[entrySize:]
		}
	}

	stride := r.Stride()
	pix := make([]byte, len(p))
	copy(pix, p)
	r.Rows = make([][]byte, cfg.Height)
	for y := range r.Rows {
		r.Rows[y] = pix[y*stride : (y+1)*stride : (y+1)*stride]
	}

	c.Raster = r
	return nil
}

// Decode reads a raw container from r.
func Decode(r io.Reader) (*pixfmt.Raster, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var c Container
	if err := c.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return c.Raster, nil
}

// DecodeConfig returns the dimensions, color model and palette size of a
// container without reading the pixel data.
func DecodeConfig(r io.Reader) (Config, error) {
	var b [headerSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Config{}, errNotEnough
		}
		return Config{}, err
	}
	return parseHeader(b[:])
}

// Encode writes the raster r to w as a raw container.
func Encode(w io.Writer, r *pixfmt.Raster) error {
	c := Container{Raster: r}
	b, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
