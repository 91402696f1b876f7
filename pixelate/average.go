package pixelate

// Average returns the per-channel mean of the pixels in t. Division
// truncates, so a tile with red values 1 and 2 averages to red 1.
func Average(g *Grid, t Tile) RGB {
	var r, gr, b uint64
	for y := t.Y; y < t.Y+t.H; y++ {
		row := g.Pix[y*g.Width+t.X : y*g.Width+t.X+t.W]
		for _, c := range row {
			r += uint64(c.R)
			gr += uint64(c.G)
			b += uint64(c.B)
		}
	}
	n := uint64(t.Area())
	return RGB{R: uint8(r / n), G: uint8(gr / n), B: uint8(b / n)}
}

// AverageTile replaces every pixel of t with the tile's average color.
func AverageTile(g *Grid, t Tile) {
	g.Fill(t, Average(g, t))
}
