package pixfmt

import (
	"fmt"
	"image"
	"image/color"
)

// Color is a single RGB or RGBA pixel, or a palette entry.
type Color struct {
	R, G, B, A uint8
}

// RGBA implements the color.Color interface. Channels are not premultiplied.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{c.R, c.G, c.B, c.A}.RGBA()
}

// Entry is a palette triple as exchanged with a raster codec.
type Entry struct {
	Red, Green, Blue uint8
}

// Palette is the ordered color table of an Index image. Its length is the
// number of valid entries.
type Palette []Color

// ColorFromEntry converts a codec palette triple into an opaque Color.
func ColorFromEntry(e Entry) Color {
	return Color{e.Red, e.Green, e.Blue, 0xff}
}

// EntryFromColor converts a Color into a codec palette triple, discarding
// alpha.
func EntryFromColor(c Color) Entry {
	return Entry{c.R, c.G, c.B}
}

// Image is a width by height grid of pixels in a single color model. Only the
// grid belonging to Model is allocated:
//
//	Index      Index, with colors looked up in Palette
//	Gray       Gray
//	RGB, RGBA  Pix
//
// Rows are indexed first, so Gray[y][x] is the pixel at column x of row y.
type Image struct {
	Width, Height int
	Model         ColorModel
	Palette       Palette

	Index [][]uint8
	Gray  [][]uint8
	Pix   [][]Color
}

// NewImage allocates an image of the given size and color model with every
// pixel zeroed. A zero width or height yields an empty grid.
func NewImage(width, height int, m ColorModel) (*Image, error) {
	if _, err := rowSize(width, height, m); err != nil {
		return nil, err
	}

	img := &Image{
		Width:  width,
		Height: height,
		Model:  m,
	}

	switch m {
	case Index:
		img.Index = newGrid(width, height)
	case Gray:
		img.Gray = newGrid(width, height)
	case RGB, RGBA:
		// Rows share one backing array
		buf := make([]Color, width*height)
		img.Pix = make([][]Color, height)
		for y := range img.Pix {
			img.Pix[y] = buf[y*width : (y+1)*width : (y+1)*width]
		}
	}

	return img, nil
}

func newGrid(width, height int) [][]uint8 {
	buf := make([]uint8, width*height)
	g := make([][]uint8, height)
	for y := range g {
		g[y] = buf[y*width : (y+1)*width : (y+1)*width]
	}
	return g
}

func (m *Image) mustBe(models ...ColorModel) {
	for _, model := range models {
		if m.Model == model {
			return
		}
	}
	panic(fmt.Sprintf("pixfmt: %v access on %v image", models, m.Model))
}

// IndexAt returns the palette index at (x, y). It panics unless the image
// uses the Index model.
func (m *Image) IndexAt(x, y int) uint8 {
	m.mustBe(Index)
	return m.Index[y][x]
}

// SetIndex sets the palette index at (x, y).
func (m *Image) SetIndex(x, y int, i uint8) {
	m.mustBe(Index)
	m.Index[y][x] = i
}

// GrayAt returns the intensity at (x, y). It panics unless the image uses
// the Gray model.
func (m *Image) GrayAt(x, y int) uint8 {
	m.mustBe(Gray)
	return m.Gray[y][x]
}

// SetGray sets the intensity at (x, y).
func (m *Image) SetGray(x, y int, g uint8) {
	m.mustBe(Gray)
	m.Gray[y][x] = g
}

// ColorAt returns the color at (x, y). It panics unless the image uses the
// RGB or RGBA model.
func (m *Image) ColorAt(x, y int) Color {
	m.mustBe(RGB, RGBA)
	return m.Pix[y][x]
}

// SetColor sets the color at (x, y). RGB images store the alpha channel but
// it is not encoded.
func (m *Image) SetColor(x, y int, c Color) {
	m.mustBe(RGB, RGBA)
	m.Pix[y][x] = c
}

// Validate checks that the grid matches the declared dimensions and, for
// Index images, that the palette fits and every index refers to an entry.
func (m *Image) Validate() error {
	if _, err := rowSize(m.Width, m.Height, m.Model); err != nil {
		return err
	}

	switch m.Model {
	case Index:
		if len(m.Palette) > MaxPalette {
			return ErrPaletteSize
		}
		if err := checkGrid(len(m.Index), m.Width, m.Height, func(y int) int { return len(m.Index[y]) }); err != nil {
			return err
		}
		for y, row := range m.Index {
			for x, i := range row {
				if int(i) >= len(m.Palette) {
					return fmt.Errorf("pixfmt: index %d at (%d, %d) outside palette of %d entries", i, x, y, len(m.Palette))
				}
			}
		}
		return nil
	case Gray:
		return checkGrid(len(m.Gray), m.Width, m.Height, func(y int) int { return len(m.Gray[y]) })
	default:
		return checkGrid(len(m.Pix), m.Width, m.Height, func(y int) int { return len(m.Pix[y]) })
	}
}

func checkGrid(rows, width, height int, rowLen func(int) int) error {
	if rows != height {
		return ErrRowLength
	}
	for y := 0; y < rows; y++ {
		if rowLen(y) != width {
			return ErrRowLength
		}
	}
	return nil
}

// ColorModel implements the image.Image interface.
func (m *Image) ColorModel() color.Model {
	switch m.Model {
	case Index:
		p := make(color.Palette, len(m.Palette))
		for i, c := range m.Palette {
			p[i] = c
		}
		return p
	case Gray:
		return color.GrayModel
	}
	return color.NRGBAModel
}

// Bounds implements the image.Image interface.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At implements the image.Image interface. RGB pixels are reported as
// opaque regardless of their stored alpha.
func (m *Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(m.Bounds())) {
		return color.NRGBA{}
	}
	switch m.Model {
	case Index:
		i := int(m.Index[y][x])
		if i >= len(m.Palette) {
			return color.NRGBA{}
		}
		return m.Palette[i]
	case Gray:
		return color.Gray{Y: m.Gray[y][x]}
	case RGB:
		c := m.Pix[y][x]
		return color.NRGBA{c.R, c.G, c.B, 0xff}
	}
	c := m.Pix[y][x]
	return color.NRGBA{c.R, c.G, c.B, c.A}
}
