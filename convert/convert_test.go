package convert

import (
	"testing"

	"github.com/bodgit/pixfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = pixfmt.Color{R: 0xff, A: 0xff}
	blue  = pixfmt.Color{B: 0xff, A: 0xff}
	white = pixfmt.Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func twoColor(t *testing.T, model pixfmt.ColorModel) *pixfmt.Image {
	m, err := pixfmt.NewImage(4, 2, model)
	require.NoError(t, err)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			c := red
			if x >= 2 {
				c = blue
			}
			m.SetColor(x, y, c)
		}
	}
	return m
}

func TestToRGBA(t *testing.T) {
	m, err := pixfmt.NewImage(2, 1, pixfmt.Index)
	require.NoError(t, err)
	m.Palette = pixfmt.Palette{red, blue}
	m.SetIndex(1, 0, 1)

	out, err := ToRGBA(m)
	require.NoError(t, err)
	assert.Equal(t, pixfmt.RGBA, out.Model)
	assert.Equal(t, [][]pixfmt.Color{{red, blue}}, out.Pix)

	g, err := pixfmt.NewImage(1, 1, pixfmt.Gray)
	require.NoError(t, err)
	g.SetGray(0, 0, 0x40)

	out, err = ToRGBA(g)
	require.NoError(t, err)
	assert.Equal(t, pixfmt.Color{R: 0x40, G: 0x40, B: 0x40, A: 0xff}, out.ColorAt(0, 0))

	// RGB pixels are promoted as opaque whatever alpha they hold
	rgb, err := pixfmt.NewImage(1, 1, pixfmt.RGB)
	require.NoError(t, err)
	rgb.SetColor(0, 0, pixfmt.Color{R: 1, G: 2, B: 3})

	out, err = ToRGBA(rgb)
	require.NoError(t, err)
	assert.Equal(t, pixfmt.Color{R: 1, G: 2, B: 3, A: 0xff}, out.ColorAt(0, 0))
}

func TestToRGB(t *testing.T) {
	m, err := pixfmt.NewImage(1, 1, pixfmt.RGBA)
	require.NoError(t, err)
	m.SetColor(0, 0, pixfmt.Color{R: 9, G: 8, B: 7, A: 6})

	out, err := ToRGB(m)
	require.NoError(t, err)
	assert.Equal(t, pixfmt.RGB, out.Model)
	assert.Equal(t, pixfmt.Color{R: 9, G: 8, B: 7, A: 0xff}, out.ColorAt(0, 0))
}

func TestToGray(t *testing.T) {
	m, err := pixfmt.NewImage(3, 1, pixfmt.RGB)
	require.NoError(t, err)
	m.SetColor(0, 0, white)
	m.SetColor(1, 0, red)

	out, err := ToGray(m)
	require.NoError(t, err)
	assert.Equal(t, [][]uint8{{0xff, 76, 0}}, out.Gray)

	again, err := ToGray(out)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestToIndex(t *testing.T) {
	for _, dither := range []bool{false, true} {
		m := twoColor(t, pixfmt.RGB)

		out, err := ToIndex(m, Options{Dither: dither})
		require.NoError(t, err)
		assert.Equal(t, pixfmt.Index, out.Model)
		assert.True(t, len(out.Palette) >= 2 && len(out.Palette) <= pixfmt.MaxPalette)
		require.NoError(t, out.Validate())

		back, err := ToRGB(out)
		require.NoError(t, err)
		assert.Equal(t, m, back)
	}
}

func TestToIndexLimit(t *testing.T) {
	m, err := pixfmt.NewImage(16, 16, pixfmt.Gray)
	require.NoError(t, err)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			m.SetGray(x, y, uint8(y*16+x))
		}
	}

	out, err := ToIndex(m, Options{Colors: 16})
	require.NoError(t, err)
	assert.True(t, len(out.Palette) <= 16)
	assert.NoError(t, out.Validate())
}

func TestToIndexPassthrough(t *testing.T) {
	m, err := pixfmt.NewImage(2, 1, pixfmt.Index)
	require.NoError(t, err)
	m.Palette = pixfmt.Palette{red, blue}
	m.SetIndex(0, 0, 1)

	out, err := ToIndex(m, Options{})
	require.NoError(t, err)
	assert.Equal(t, m, out)

	out.Palette[0] = white
	assert.Equal(t, red, m.Palette[0])
}

func TestToIndexEmpty(t *testing.T) {
	m, err := pixfmt.NewImage(3, 0, pixfmt.RGBA)
	require.NoError(t, err)

	out, err := ToIndex(m, Options{})
	require.NoError(t, err)
	assert.Len(t, out.Index, 0)
	assert.Len(t, out.Palette, 0)
}

func TestConvertErrors(t *testing.T) {
	_, err := Convert(nil, pixfmt.RGB, Options{})
	assert.Equal(t, pixfmt.ErrNilImage, err)

	m := twoColor(t, pixfmt.RGBA)
	_, err = Convert(m, pixfmt.ColorModel(12), Options{})
	assert.Equal(t, pixfmt.ErrUnsupportedFormat, err)

	bad, err := pixfmt.NewImage(1, 1, pixfmt.Index)
	require.NoError(t, err)
	_, err = Convert(bad, pixfmt.RGBA, Options{})
	assert.Error(t, err)

	for _, model := range []pixfmt.ColorModel{pixfmt.Index, pixfmt.Gray, pixfmt.RGB, pixfmt.RGBA} {
		out, err := Convert(m, model, Options{})
		require.NoError(t, err)
		assert.Equal(t, model, out.Model)
	}
}
