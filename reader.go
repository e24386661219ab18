package pixfmt

// Raster is the packed form of an image as exchanged with a raster codec.
// Rows holds Height slices of exactly Width*Model.Stride() bytes each and
// Palette is only meaningful for Index rasters.
type Raster struct {
	Width, Height int
	Model         ColorModel
	Rows          [][]byte
	Palette       []Entry
}

// Stride returns the packed length of each row.
func (r *Raster) Stride() int {
	return r.Width * r.Model.Stride()
}

type decoder struct {
	r   *Raster
	img *Image
}

func (d *decoder) checkRows() error {
	if len(d.r.Rows) != d.r.Height {
		return ErrRowLength
	}
	stride := d.r.Stride()
	for _, row := range d.r.Rows {
		if len(row) != stride {
			return ErrRowLength
		}
	}
	return nil
}

func (d *decoder) decodeIndex() {
	d.img.Palette = make(Palette, len(d.r.Palette))
	for i, e := range d.r.Palette {
		d.img.Palette[i] = ColorFromEntry(e)
	}
	// Indices aren't checked against the palette, the codec only emits
	// indices that fit its own palette
	for y, row := range d.r.Rows {
		copy(d.img.Index[y], row)
	}
}

func (d *decoder) decodeGray() {
	for y, row := range d.r.Rows {
		copy(d.img.Gray[y], row)
	}
}

func (d *decoder) decodeRGB() {
	for y, row := range d.r.Rows {
		for x := range d.img.Pix[y] {
			d.img.Pix[y][x] = Color{
				row[x*3+0],
				row[x*3+1],
				row[x*3+2],
				0xff,
			}
		}
	}
}

func (d *decoder) decodeRGBA() {
	for y, row := range d.r.Rows {
		for x := range d.img.Pix[y] {
			d.img.Pix[y][x] = Color{
				row[x*4+0],
				row[x*4+1],
				row[x*4+2],
				row[x*4+3],
			}
		}
	}
}

func (d *decoder) decode() error {
	if !d.r.Model.Valid() {
		return ErrUnsupportedFormat
	}
	if len(d.r.Palette) > MaxPalette {
		return ErrPaletteSize
	}

	if _, err := rowSize(d.r.Width, d.r.Height, d.r.Model); err != nil {
		return err
	}
	if err := d.checkRows(); err != nil {
		return err
	}

	img, err := NewImage(d.r.Width, d.r.Height, d.r.Model)
	if err != nil {
		return err
	}
	d.img = img

	switch d.r.Model {
	case Index:
		d.decodeIndex()
	case Gray:
		d.decodeGray()
	case RGB:
		d.decodeRGB()
	case RGBA:
		d.decodeRGBA()
	}

	return nil
}

// Decode unpacks the rows of r into a newly allocated Image. RGB pixels are
// given an alpha of 0xff. The returned image shares no memory with r.
func Decode(r *Raster) (*Image, error) {
	if r == nil {
		return nil, &DecodeError{ErrNilImage}
	}
	d := decoder{r: r}
	if err := d.decode(); err != nil {
		return nil, &DecodeError{err}
	}
	return d.img, nil
}

// DecodeRows is Decode with the raster passed as separate values.
func DecodeRows(rows [][]byte, width, height int, m ColorModel, palette []Entry) (*Image, error) {
	return Decode(&Raster{
		Width:   width,
		Height:  height,
		Model:   m,
		Rows:    rows,
		Palette: palette,
	})
}
