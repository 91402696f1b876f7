package pixelate

import "fmt"

// Tile is a rectangle of pixels averaged as one unit.
type Tile struct {
	X, Y int
	W, H int
}

func (t Tile) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d)", t.W, t.H, t.X, t.Y)
}

// Area is the number of pixels in the tile.
func (t Tile) Area() int {
	return t.W * t.H
}

// TileAt returns the tile of nominal size starting at (x, y), shrunk to fit
// inside the grid on the right and bottom edges.
func TileAt(g *Grid, x, y, size int) Tile {
	return Tile{
		X: x,
		Y: y,
		W: min(size, g.Width-x),
		H: min(size, g.Height-y),
	}
}

// Tiles calls fn for every tile of the grid in row-major order. Iteration
// stops at the first error, which is returned.
func Tiles(g *Grid, size int, fn func(Tile) error) error {
	return tilesIn(g, size, Tile{W: g.Width, H: g.Height}, fn)
}

// tilesIn walks the tiles whose origin lies inside area, row-major. area
// must be aligned to size on its left and top edges.
func tilesIn(g *Grid, size int, area Tile, fn func(Tile) error) error {
	for y := area.Y; y < area.Y+area.H; y += size {
		for x := area.X; x < area.X+area.W; x += size {
			if err := fn(TileAt(g, x, y, size)); err != nil {
				return err
			}
		}
	}
	return nil
}

// tileCount is ceil(extent/size).
func tileCount(extent, size int) int {
	return (extent + size - 1) / size
}
