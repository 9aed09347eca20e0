package cipher

// Pixel is one RGB sample. Alpha is never carried.
type Pixel struct {
	R, G, B uint8
}

// Grid is a fixed-size image of Pixels addressed by (column, row). Pixels are
// stored row-major; the transform mutates them in place and never resizes.
type Grid struct {
	Width  int
	Height int
	Pix    []Pixel
}

func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		Width:  width,
		Height: height,
		Pix:    make([]Pixel, width*height),
	}
}

func (g *Grid) In(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// At returns the zero Pixel outside the grid, like image.NRGBA.At.
func (g *Grid) At(x, y int) Pixel {
	if !g.In(x, y) {
		return Pixel{}
	}
	return g.Pix[y*g.Width+x]
}

// Set ignores coordinates outside the grid.
func (g *Grid) Set(x, y int, p Pixel) {
	if !g.In(x, y) {
		return
	}
	g.Pix[y*g.Width+x] = p
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	c := &Grid{Width: g.Width, Height: g.Height, Pix: make([]Pixel, len(g.Pix))}
	copy(c.Pix, g.Pix)
	return c
}

// Equal reports whether both grids have the same bounds and pixel values.
func (g *Grid) Equal(o *Grid) bool {
	if g.Width != o.Width || g.Height != o.Height || len(g.Pix) != len(o.Pix) {
		return false
	}
	for i := range g.Pix {
		if g.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}
