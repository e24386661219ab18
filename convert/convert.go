/*
Package convert changes the color model of typed images.

Conversions towards more channels are exact. Conversions towards fewer are
lossy: alpha is dropped going to RGB, intensity is computed with the ITU-R
BT.601 weights going to Gray, and colors are reduced with a median cut
quantizer going to Index.
*/
package convert

import (
	"image"
	"image/color"

	"github.com/bodgit/pixfmt"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

// Options controls conversion to the Index model.
type Options struct {
	// Colors is the largest palette to produce, zero meaning
	// pixfmt.MaxPalette.
	Colors int
	// Dither enables Floyd-Steinberg error diffusion.
	Dither bool
}

func (o Options) colors() int {
	if o.Colors <= 0 || o.Colors > pixfmt.MaxPalette {
		return pixfmt.MaxPalette
	}
	return o.Colors
}

func luma(c pixfmt.Color) uint8 {
	return uint8((19595*uint32(c.R) + 38470*uint32(c.G) + 7471*uint32(c.B) + 1<<15) >> 16)
}

// colorAt returns the pixel at (x, y) as a Color whatever the model, with
// RGB pixels reported opaque.
func colorAt(m *pixfmt.Image, x, y int) pixfmt.Color {
	switch m.Model {
	case pixfmt.Index:
		return m.Palette[m.Index[y][x]]
	case pixfmt.Gray:
		g := m.Gray[y][x]
		return pixfmt.Color{R: g, G: g, B: g, A: 0xff}
	case pixfmt.RGB:
		c := m.Pix[y][x]
		c.A = 0xff
		return c
	}
	return m.Pix[y][x]
}

func prepare(m *pixfmt.Image, model pixfmt.ColorModel) (*pixfmt.Image, error) {
	if m == nil {
		return nil, pixfmt.ErrNilImage
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return pixfmt.NewImage(m.Width, m.Height, model)
}

// ToGray converts m to the Gray model. Alpha is ignored.
func ToGray(m *pixfmt.Image) (*pixfmt.Image, error) {
	dst, err := prepare(m, pixfmt.Gray)
	if err != nil {
		return nil, err
	}
	for y := range dst.Gray {
		for x := range dst.Gray[y] {
			if m.Model == pixfmt.Gray {
				dst.Gray[y][x] = m.Gray[y][x]
				continue
			}
			dst.Gray[y][x] = luma(colorAt(m, x, y))
		}
	}
	return dst, nil
}

func toColor(m *pixfmt.Image, model pixfmt.ColorModel) (*pixfmt.Image, error) {
	dst, err := prepare(m, model)
	if err != nil {
		return nil, err
	}
	for y := range dst.Pix {
		for x := range dst.Pix[y] {
			c := colorAt(m, x, y)
			if model == pixfmt.RGB {
				c.A = 0xff
			}
			dst.Pix[y][x] = c
		}
	}
	return dst, nil
}

// ToRGB converts m to the RGB model, dropping any alpha.
func ToRGB(m *pixfmt.Image) (*pixfmt.Image, error) {
	return toColor(m, pixfmt.RGB)
}

// ToRGBA converts m to the RGBA model. Pixels without alpha become opaque.
func ToRGBA(m *pixfmt.Image) (*pixfmt.Image, error) {
	return toColor(m, pixfmt.RGBA)
}

// ToIndex converts m to the Index model. An Index image whose palette
// already fits is copied unchanged, anything else is quantized.
func ToIndex(m *pixfmt.Image, o Options) (*pixfmt.Image, error) {
	dst, err := prepare(m, pixfmt.Index)
	if err != nil {
		return nil, err
	}

	if m.Model == pixfmt.Index && len(m.Palette) <= o.colors() {
		dst.Palette = append(pixfmt.Palette{}, m.Palette...)
		for y := range dst.Index {
			copy(dst.Index[y], m.Index[y])
		}
		return dst, nil
	}

	if m.Width == 0 || m.Height == 0 {
		dst.Palette = pixfmt.Palette{}
		return dst, nil
	}

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, o.colors()), m)

	b := m.Bounds()
	pm := image.NewPaletted(b, p)
	if o.Dither {
		draw.FloydSteinberg.Draw(pm, b, m, b.Min)
	} else {
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	dst.Palette = make(pixfmt.Palette, len(p))
	for i, c := range p {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		dst.Palette[i] = pixfmt.Color{R: n.R, G: n.G, B: n.B, A: 0xff}
	}
	for y := range dst.Index {
		copy(dst.Index[y], pm.Pix[y*pm.Stride:])
	}
	return dst, nil
}

// Convert converts m to the given model.
func Convert(m *pixfmt.Image, model pixfmt.ColorModel, o Options) (*pixfmt.Image, error) {
	switch model {
	case pixfmt.Index:
		return ToIndex(m, o)
	case pixfmt.Gray:
		return ToGray(m)
	case pixfmt.RGB:
		return ToRGB(m)
	case pixfmt.RGBA:
		return ToRGBA(m)
	}
	return nil, pixfmt.ErrUnsupportedFormat
}
