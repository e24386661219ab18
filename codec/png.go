package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/bodgit/pixfmt"
	"github.com/klauspost/compress/zlib"
)

const (
	pngSignature      = "\x89PNG\r\n\x1a\n"
	pngTrueColorAlpha = 6
	pngFilterNone     = 0
)

var encodeImagePNG = encodeWith(func(w io.Writer, m image.Image) error {
	e := png.Encoder{CompressionLevel: png.DefaultCompression}
	return e.Encode(w, m)
})

// encodePNG writes RGBA rasters as 8-bit truecolor with alpha even when
// every pixel is opaque, image/png would store those as RGB.
func encodePNG(w io.Writer, r *pixfmt.Raster) error {
	if r == nil || r.Model != pixfmt.RGBA {
		return encodeImagePNG(w, r)
	}
	if err := checkRaster(r); err != nil {
		return err
	}
	if r.Width == 0 || r.Height == 0 || r.Width > math.MaxInt32 || r.Height > math.MaxInt32 {
		return fmt.Errorf("codec: invalid png size %dx%d", r.Width, r.Height)
	}

	pw := pngWriter{w: w}

	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:], uint32(r.Width))
	binary.BigEndian.PutUint32(ihdr[4:], uint32(r.Height))
	ihdr[8] = 8
	ihdr[9] = pngTrueColorAlpha

	pw.write([]byte(pngSignature))
	pw.chunk("IHDR", ihdr[:])
	pw.chunk("IDAT", pw.compress(r.Rows))
	pw.chunk("IEND", nil)

	return pw.err
}

type pngWriter struct {
	w   io.Writer
	err error
}

func (pw *pngWriter) write(b []byte) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.w.Write(b)
}

func (pw *pngWriter) chunk(name string, b []byte) {
	var tmp [8]byte
	binary.BigEndian.PutUint32(tmp[:4], uint32(len(b)))
	copy(tmp[4:], name)

	crc := crc32.NewIEEE()
	crc.Write(tmp[4:])
	crc.Write(b)

	pw.write(tmp[:])
	pw.write(b)
	binary.BigEndian.PutUint32(tmp[:4], crc.Sum32())
	pw.write(tmp[:4])
}

func (pw *pngWriter) compress(rows [][]byte) []byte {
	if pw.err != nil {
		return nil
	}

	b := new(bytes.Buffer)
	zw := zlib.NewWriter(b)
	for _, row := range rows {
		if _, pw.err = zw.Write([]byte{pngFilterNone}); pw.err != nil {
			return nil
		}
		if _, pw.err = zw.Write(row); pw.err != nil {
			return nil
		}
	}
	if pw.err = zw.Close(); pw.err != nil {
		return nil
	}

	return b.Bytes()
}
