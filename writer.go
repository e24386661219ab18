package pixfmt

type encoder struct {
	m *Image
	r *Raster
}

// allocRows builds the row table over a single buffer, so either every row
// exists or none do.
func (e *encoder) allocRows() error {
	stride, err := rowSize(e.m.Width, e.m.Height, e.m.Model)
	if err != nil {
		return err
	}

	buf := make([]byte, stride*e.m.Height)
	rows := make([][]byte, e.m.Height)
	for y := range rows {
		rows[y] = buf[y*stride : (y+1)*stride : (y+1)*stride]
	}

	e.r = &Raster{
		Width:  e.m.Width,
		Height: e.m.Height,
		Model:  e.m.Model,
		Rows:   rows,
	}
	return nil
}

func (e *encoder) encodeIndex() error {
	if len(e.m.Palette) > MaxPalette {
		return ErrPaletteSize
	}
	if err := checkGrid(len(e.m.Index), e.m.Width, e.m.Height, func(y int) int { return len(e.m.Index[y]) }); err != nil {
		return err
	}
	if err := e.allocRows(); err != nil {
		return err
	}

	e.r.Palette = make([]Entry, len(e.m.Palette))
	for i, c := range e.m.Palette {
		e.r.Palette[i] = EntryFromColor(c)
	}
	for y, row := range e.m.Index {
		copy(e.r.Rows[y], row)
	}
	return nil
}

func (e *encoder) encodeGray() error {
	if err := checkGrid(len(e.m.Gray), e.m.Width, e.m.Height, func(y int) int { return len(e.m.Gray[y]) }); err != nil {
		return err
	}
	if err := e.allocRows(); err != nil {
		return err
	}

	for y, row := range e.m.Gray {
		copy(e.r.Rows[y], row)
	}
	return nil
}

func (e *encoder) encodeColor() error {
	if err := checkGrid(len(e.m.Pix), e.m.Width, e.m.Height, func(y int) int { return len(e.m.Pix[y]) }); err != nil {
		return err
	}
	if err := e.allocRows(); err != nil {
		return err
	}

	if e.m.Model == RGB {
		// Alpha is dropped
		for y, row := range e.m.Pix {
			out := e.r.Rows[y]
			for x, c := range row {
				out[x*3+0] = c.R
				out[x*3+1] = c.G
				out[x*3+2] = c.B
			}
		}
		return nil
	}

	for y, row := range e.m.Pix {
		out := e.r.Rows[y]
		for x, c := range row {
			out[x*4+0] = c.R
			out[x*4+1] = c.G
			out[x*4+2] = c.B
			out[x*4+3] = c.A
		}
	}
	return nil
}

func (e *encoder) encode() error {
	switch e.m.Model {
	case Index:
		return e.encodeIndex()
	case Gray:
		return e.encodeGray()
	case RGB, RGBA:
		return e.encodeColor()
	default:
		return ErrUnsupportedFormat
	}
}

// Encode packs m into a Raster ready to be handed to a raster codec. For
// Index images the raster palette holds one entry per palette color. On
// failure no raster is returned.
func Encode(m *Image) (*Raster, error) {
	if m == nil {
		return nil, &EncodeError{ErrNilImage}
	}
	e := encoder{m: m}
	if err := e.encode(); err != nil {
		return nil, &EncodeError{err}
	}
	return e.r, nil
}
