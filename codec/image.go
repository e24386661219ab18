package codec

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/pixfmt"
	"golang.org/x/image/draw"
)

func decodeWith(decode func(io.Reader) (image.Image, error)) func(io.Reader) (*pixfmt.Raster, error) {
	return func(r io.Reader) (*pixfmt.Raster, error) {
		m, err := decode(r)
		if err != nil {
			return nil, err
		}
		return fromImage(m)
	}
}

func encodeWith(encode func(io.Writer, image.Image) error) func(io.Writer, *pixfmt.Raster) error {
	return func(w io.Writer, r *pixfmt.Raster) error {
		m, err := toImage(r)
		if err != nil {
			return err
		}
		return encode(w, m)
	}
}

func newRaster(b image.Rectangle, model pixfmt.ColorModel) *pixfmt.Raster {
	r := &pixfmt.Raster{
		Width:  b.Dx(),
		Height: b.Dy(),
		Model:  model,
		Rows:   make([][]byte, b.Dy()),
	}
	stride := r.Stride()
	buf := make([]byte, stride*r.Height)
	for y := range r.Rows {
		r.Rows[y] = buf[y*stride : (y+1)*stride : (y+1)*stride]
	}
	return r
}

// copyRows copies the rows of a format image with pix, stride and offset
// into r. Only valid when both share the same byte layout.
func copyRows(r *pixfmt.Raster, pix []uint8, stride, offset int) {
	for y, row := range r.Rows {
		i := offset + y*stride
		copy(row, pix[i:i+len(row)])
	}
}

func isOpaque(m *image.RGBA) bool {
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := m.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			if m.Pix[i+x*4+3] != 0xff {
				return false
			}
		}
	}
	return true
}

func toNRGBA(m image.Image) *image.NRGBA {
	b := m.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), m, b.Min, draw.Src)
	return n
}

func fromImage(m image.Image) (*pixfmt.Raster, error) {
	b := m.Bounds()

	switch m := m.(type) {
	case *image.Paletted:
		if len(m.Palette) > pixfmt.MaxPalette {
			return nil, fmt.Errorf("codec: %d color palette", len(m.Palette))
		}
		r := newRaster(b, pixfmt.Index)
		r.Palette = make([]pixfmt.Entry, len(m.Palette))
		for i, c := range m.Palette {
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			r.Palette[i] = pixfmt.Entry{Red: n.R, Green: n.G, Blue: n.B}
		}
		copyRows(r, m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y))
		return r, nil
	case *image.Gray:
		r := newRaster(b, pixfmt.Gray)
		copyRows(r, m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y))
		return r, nil
	case *image.RGBA:
		if !isOpaque(m) {
			return fromImage(toNRGBA(m))
		}
		r := newRaster(b, pixfmt.RGB)
		for y, row := range r.Rows {
			i := m.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < r.Width; x++ {
				copy(row[x*3:x*3+3], m.Pix[i+x*4:i+x*4+3])
			}
		}
		return r, nil
	case *image.NRGBA:
		r := newRaster(b, pixfmt.RGBA)
		copyRows(r, m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y))
		return r, nil
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return nil, ErrBitDepth
	}

	n := toNRGBA(m)
	if m.ColorModel() == color.NRGBAModel || !n.Opaque() {
		return fromImage(n)
	}
	rgba := image.NewRGBA(n.Bounds())
	draw.Draw(rgba, rgba.Bounds(), n, image.Point{}, draw.Src)
	return fromImage(rgba)
}

func checkRaster(r *pixfmt.Raster) error {
	if r == nil {
		return pixfmt.ErrNilImage
	}
	if !r.Model.Valid() {
		return pixfmt.ErrUnsupportedFormat
	}
	if r.Width < 0 || r.Height < 0 {
		return pixfmt.ErrAllocation
	}
	if len(r.Rows) != r.Height {
		return pixfmt.ErrRowLength
	}
	for _, row := range r.Rows {
		if len(row) != r.Stride() {
			return pixfmt.ErrRowLength
		}
	}
	return nil
}

func toImage(r *pixfmt.Raster) (image.Image, error) {
	if err := checkRaster(r); err != nil {
		return nil, err
	}

	rect := image.Rect(0, 0, r.Width, r.Height)

	switch r.Model {
	case pixfmt.Index:
		p := make(color.Palette, len(r.Palette))
		for i, e := range r.Palette {
			p[i] = color.RGBA{e.Red, e.Green, e.Blue, 0xff}
		}
		m := image.NewPaletted(rect, p)
		for y, row := range r.Rows {
			copy(m.Pix[y*m.Stride:], row)
		}
		return m, nil
	case pixfmt.Gray:
		m := image.NewGray(rect)
		for y, row := range r.Rows {
			copy(m.Pix[y*m.Stride:], row)
		}
		return m, nil
	case pixfmt.RGB:
		m := image.NewRGBA(rect)
		for y, row := range r.Rows {
			i := y * m.Stride
			for x := 0; x < r.Width; x++ {
				copy(m.Pix[i+x*4:], row[x*3:x*3+3])
				m.Pix[i+x*4+3] = 0xff
			}
		}
		return m, nil
	}

	m := image.NewNRGBA(rect)
	for y, row := range r.Rows {
		copy(m.Pix[y*m.Stride:], row)
	}
	return m, nil
}
