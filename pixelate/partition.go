package pixelate

import "fmt"

// Band is the half-open range [Start, End) along one axis.
type Band struct {
	Start, End int
}

func (b Band) String() string {
	return fmt.Sprintf("[%d,%d)", b.Start, b.End)
}

// Len is the number of units in the band.
func (b Band) Len() int {
	return b.End - b.Start
}

// Empty reports whether the band covers nothing.
func (b Band) Empty() bool {
	return b.End <= b.Start
}

// Partition splits [0, extent) into workers consecutive bands of
// extent/workers units each; the last band also takes the remainder. When
// workers exceeds extent the leading bands are empty.
func Partition(extent, workers int) []Band {
	if workers <= 0 {
		return nil
	}
	step := extent / workers
	bands := make([]Band, workers)
	for i := range bands {
		start := i * step
		end := start + step
		if i == workers-1 {
			end = extent
		}
		bands[i] = Band{Start: start, End: end}
	}
	return bands
}

// Axis selects which coordinate bands are cut along.
type Axis int

const (
	// Columns gives each worker a vertical strip of tile columns.
	Columns Axis = iota
	// Rows gives each worker a horizontal strip of tile rows.
	Rows
)

func (a Axis) String() string {
	switch a {
	case Columns:
		return "columns"
	case Rows:
		return "rows"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// bandAreas partitions the grid's tile columns (or rows) among workers and
// converts each band to the pixel rectangle it owns. Bands are cut on tile
// boundaries so no tile straddles two workers.
func bandAreas(g *Grid, size, workers int, axis Axis) ([]Band, []Tile) {
	extent := g.Width
	if axis == Rows {
		extent = g.Height
	}
	bands := Partition(tileCount(extent, size), workers)
	areas := make([]Tile, len(bands))
	for i, b := range bands {
		lo := b.Start * size
		hi := min(b.End*size, extent)
		if b.Empty() {
			hi = lo
		}
		if axis == Rows {
			areas[i] = Tile{X: 0, Y: lo, W: g.Width, H: hi - lo}
		} else {
			areas[i] = Tile{X: lo, Y: 0, W: hi - lo, H: g.Height}
		}
	}
	return bands, areas
}
