package pixelate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageTruncates(t *testing.T) {
	g, err := New(2, 1)
	require.NoError(t, err)
	g.Set(0, 0, RGB{R: 1, G: 255, B: 0})
	g.Set(1, 0, RGB{R: 2, G: 254, B: 1})

	assert.Equal(t, RGB{R: 1, G: 254, B: 0}, Average(g, g.Bounds()))
}

func TestAverageTileMatchesChannelMeans(t *testing.T) {
	g := makeTestGrid(t, 13, 9)
	for _, tl := range []Tile{
		{0, 0, 4, 4},
		{4, 4, 4, 4},
		{12, 8, 1, 1},
		{8, 0, 5, 3},
		{0, 0, 13, 9},
	} {
		t.Run(tl.String(), func(t *testing.T) {
			var r, gr, b int
			for y := tl.Y; y < tl.Y+tl.H; y++ {
				for x := tl.X; x < tl.X+tl.W; x++ {
					c := g.At(x, y)
					r += int(c.R)
					gr += int(c.G)
					b += int(c.B)
				}
			}
			n := tl.W * tl.H
			want := RGB{R: uint8(r / n), G: uint8(gr / n), B: uint8(b / n)}

			work := g.Clone()
			AverageTile(work, tl)
			for y := 0; y < g.Height; y++ {
				for x := 0; x < g.Width; x++ {
					inside := x >= tl.X && x < tl.X+tl.W && y >= tl.Y && y < tl.Y+tl.H
					if inside {
						assert.Equal(t, want, work.At(x, y), "(%d,%d)", x, y)
					} else {
						assert.Equal(t, g.At(x, y), work.At(x, y), "(%d,%d) outside tile changed", x, y)
					}
				}
			}
		})
	}
}

func TestAverageLargeTileDoesNotOverflow(t *testing.T) {
	g, err := New(4096, 4096)
	require.NoError(t, err)
	white := RGB{R: 255, G: 255, B: 255}
	g.Fill(g.Bounds(), white)
	assert.Equal(t, white, Average(g, g.Bounds()))
}
