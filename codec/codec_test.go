package codec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/pixfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRasters() []*pixfmt.Raster {
	return []*pixfmt.Raster{
		{
			Width:   3,
			Height:  2,
			Model:   pixfmt.Index,
			Rows:    [][]byte{{0, 1, 2}, {2, 1, 0}},
			Palette: []pixfmt.Entry{{Red: 255, Green: 0, Blue: 0}, {Red: 0, Green: 255, Blue: 0}, {Red: 0, Green: 0, Blue: 255}},
		},
		{Width: 2, Height: 2, Model: pixfmt.Gray, Rows: [][]byte{{0, 64}, {128, 255}}},
		{Width: 2, Height: 1, Model: pixfmt.RGB, Rows: [][]byte{{10, 20, 30, 40, 50, 60}}},
		{Width: 1, Height: 2, Model: pixfmt.RGBA, Rows: [][]byte{{1, 2, 3, 4}, {5, 6, 7, 255}}},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{PNG, Raw} {
		for _, r := range testRasters() {
			b := new(bytes.Buffer)
			require.NoError(t, Write(b, r, f), string(f))

			got, format, err := Read(b)
			require.NoError(t, err, string(f))
			assert.Equal(t, f, format)
			assert.Equal(t, r, got, "%s %s", f, r.Model)
		}
	}
}

func TestRoundTripLossless(t *testing.T) {
	tables := []struct {
		format Format
		raster *pixfmt.Raster
	}{
		{TIFF, testRasters()[1]},
		{TIFF, testRasters()[2]},
		{BMP, testRasters()[2]},
	}

	for _, table := range tables {
		b := new(bytes.Buffer)
		require.NoError(t, Write(b, table.raster, table.format))

		got, format, err := Read(b)
		require.NoError(t, err)
		assert.Equal(t, table.format, format)
		assert.Equal(t, table.raster, got, string(table.format))
	}
}

func TestOpaqueRGBA(t *testing.T) {
	opaque := &pixfmt.Raster{Width: 1, Height: 1, Model: pixfmt.RGBA, Rows: [][]byte{{1, 2, 3, 255}}}

	tables := []struct {
		format Format
		want   *pixfmt.Raster
	}{
		{PNG, opaque},
		{TIFF, opaque},
		{Raw, opaque},
		// BMP has no way to mark 32 bits as alpha when every pixel is opaque
		{BMP, &pixfmt.Raster{Width: 1, Height: 1, Model: pixfmt.RGB, Rows: [][]byte{{1, 2, 3}}}},
	}

	for _, table := range tables {
		b := new(bytes.Buffer)
		require.NoError(t, Write(b, opaque, table.format))

		got, _, err := Read(b)
		require.NoError(t, err, string(table.format))
		assert.Equal(t, table.want, got, string(table.format))
	}
}

func TestPNGEmptyRGBA(t *testing.T) {
	err := Write(ioutil.Discard, &pixfmt.Raster{Width: 2, Height: 0, Model: pixfmt.RGBA, Rows: [][]byte{}}, PNG)
	assert.Error(t, err)
}

func TestImageRoundTrip(t *testing.T) {
	m, err := pixfmt.NewImage(1, 1, pixfmt.RGB)
	require.NoError(t, err)
	m.SetColor(0, 0, pixfmt.Color{R: 10, G: 20, B: 30})

	b := new(bytes.Buffer)
	require.NoError(t, EncodeImage(b, m, PNG))

	got, f, err := DecodeImage(b)
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, pixfmt.Color{R: 10, G: 20, B: 30, A: 255}, got.ColorAt(0, 0))
}

func TestSniff(t *testing.T) {
	tables := []struct {
		in     string
		format Format
		err    error
	}{
		{"\x89PNG\r\n\x1a\nxxxx", PNG, nil},
		{"BM", BMP, nil},
		{"II*\x00", TIFF, nil},
		{"MM\x00*", TIFF, nil},
		{"PXFR\x01", Raw, nil},
		{"GIF89a", "", ErrUnknownFormat},
		{"", "", ErrUnknownFormat},
	}

	for _, table := range tables {
		f, err := Sniff(bytes.NewReader([]byte(table.in)))
		assert.Equal(t, table.format, f, table.in)
		assert.Equal(t, table.err, err, table.in)
	}
}

func TestFormats(t *testing.T) {
	f, err := FormatFromPath("/tmp/x.TIF")
	require.NoError(t, err)
	assert.Equal(t, TIFF, f)

	_, err = FormatFromPath("x.jpg")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	f, err = ParseFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, ".png", f.Extension())
	assert.Equal(t, ".pxr", Raw.Extension())
	assert.Equal(t, "", Format("gif").Extension())

	_, err = ParseFormat("gif")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	assert.True(t, errors.Is(Write(ioutil.Discard, testRasters()[0], "gif"), ErrUnknownFormat))
}

func TestFromImage(t *testing.T) {
	_, err := fromImage(image.NewGray16(image.Rect(0, 0, 1, 1)))
	assert.Equal(t, ErrBitDepth, err)

	// Sub-images keep their own origin
	g := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range g.Pix {
		g.Pix[i] = uint8(i)
	}
	r, err := fromImage(g.SubImage(image.Rect(1, 2, 3, 4)))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{9, 10}, {13, 14}}, r.Rows)

	// Translucent premultiplied pixels become RGBA
	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgba.Set(0, 0, color.NRGBA{200, 100, 50, 0x80})
	r, err = fromImage(rgba)
	require.NoError(t, err)
	assert.Equal(t, pixfmt.RGBA, r.Model)
	assert.Equal(t, uint8(0x80), r.Rows[0][3])

	// Anything else goes through NRGBA
	cmyk := image.NewCMYK(image.Rect(0, 0, 1, 1))
	cmyk.Set(0, 0, color.CMYK{0, 0, 0, 0})
	r, err = fromImage(cmyk)
	require.NoError(t, err)
	assert.Equal(t, pixfmt.RGB, r.Model)
	assert.Equal(t, [][]byte{{255, 255, 255}}, r.Rows)
}

func TestToImageErrors(t *testing.T) {
	tables := []struct {
		r   *pixfmt.Raster
		err error
	}{
		{nil, pixfmt.ErrNilImage},
		{&pixfmt.Raster{Model: pixfmt.ColorModel(8)}, pixfmt.ErrUnsupportedFormat},
		{&pixfmt.Raster{Width: -1, Model: pixfmt.Gray}, pixfmt.ErrAllocation},
		{&pixfmt.Raster{Width: 2, Height: 1, Model: pixfmt.RGB, Rows: [][]byte{{1, 2, 3}}}, pixfmt.ErrRowLength},
	}

	for _, table := range tables {
		_, err := toImage(table.r)
		assert.Equal(t, table.err, err)
	}
}

func TestFiles(t *testing.T) {
	dir, err := ioutil.TempDir("", "codec")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "test.png")
	r := testRasters()[0]
	require.NoError(t, WriteFile(file, r, PNG))

	got, f, err := ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, r, got)

	// PNG can't hold an empty palette so the file must not be left behind
	bad := filepath.Join(dir, "bad.png")
	err = WriteFile(bad, &pixfmt.Raster{Width: 1, Height: 1, Model: pixfmt.Index, Rows: [][]byte{{0}}}, PNG)
	assert.Error(t, err)
	_, err = os.Stat(bad)
	assert.True(t, os.IsNotExist(err))

	_, _, err = ReadFile(filepath.Join(dir, "missing.png"))
	assert.True(t, os.IsNotExist(err))

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, ioutil.WriteFile(garbage, []byte("not an image"), 0644))
	_, _, err = ReadFile(garbage)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}
