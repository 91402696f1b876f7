// Package pixelate replaces every square tile of an image with the tile's
// average color, on one goroutine or on disjoint bands processed in
// parallel, publishing each finished tile to a Sink as it goes.
package pixelate

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// RGB is a single pixel value.
type RGB struct {
	R, G, B uint8
}

// RGBA converts the pixel to an opaque color.RGBA.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Grid is a dense Width×Height raster stored row-major.
//
// A Grid is not synchronized. The engine writes to it from several
// goroutines at once, but each goroutine only touches the tiles of its own
// band.
type Grid struct {
	Width  int
	Height int
	Pix    []RGB
}

// New allocates a black grid.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid grid size %dx%d", width, height)
	}
	return &Grid{
		Width:  width,
		Height: height,
		Pix:    make([]RGB, width*height),
	}, nil
}

// FromImage copies any image.Image into a new grid. Alpha is dropped.
func FromImage(img image.Image) (*Grid, error) {
	b := img.Bounds()
	g, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < g.Height; y++ {
			row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+g.Width*4]
			for x := 0; x < g.Width; x++ {
				g.Pix[y*g.Width+x] = RGB{R: row[x*4], G: row[x*4+1], B: row[x*4+2]}
			}
		}
		return g, nil
	}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			g.Pix[y*g.Width+x] = RGB{R: c.R, G: c.G, B: c.B}
		}
	}
	return g, nil
}

// Image renders the grid into a new opaque *image.RGBA.
func (g *Grid) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for i, c := range g.Pix {
		img.Pix[i*4+0] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = 255
	}
	return img
}

// Bounds returns the tile covering the whole grid.
func (g *Grid) Bounds() Tile {
	return Tile{W: g.Width, H: g.Height}
}

// At returns the pixel at (x, y). It panics when out of range.
func (g *Grid) At(x, y int) RGB {
	return g.Pix[g.offset(x, y)]
}

// Set writes the pixel at (x, y). It panics when out of range.
func (g *Grid) Set(x, y int, c RGB) {
	g.Pix[g.offset(x, y)] = c
}

// Fill paints every pixel of t with c.
func (g *Grid) Fill(t Tile, c RGB) {
	for y := t.Y; y < t.Y+t.H; y++ {
		row := g.Pix[y*g.Width+t.X : y*g.Width+t.X+t.W]
		for i := range row {
			row[i] = c
		}
	}
}

// Clone returns a deep copy with independent storage.
func (g *Grid) Clone() *Grid {
	pix := make([]RGB, len(g.Pix))
	copy(pix, g.Pix)
	return &Grid{Width: g.Width, Height: g.Height, Pix: pix}
}

// Equal reports whether both grids have the same size and pixels.
func (g *Grid) Equal(o *Grid) bool {
	if g.Width != o.Width || g.Height != o.Height {
		return false
	}
	for i := range g.Pix {
		if g.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

func (g *Grid) offset(x, y int) int {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		panic(errors.Errorf("pixel (%d,%d) outside %dx%d grid", x, y, g.Width, g.Height))
	}
	return y*g.Width + x
}
