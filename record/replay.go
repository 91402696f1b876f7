package record

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/Raimguzhinov/pixelate/pixelate"
)

// Replay decodes a recording onto a black grid, calling sink after each
// tile is applied. sink may be nil. It returns the reconstructed grid.
func Replay(r io.Reader, sink pixelate.Sink) (*pixelate.Grid, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "zstd reader")
	}
	defer dec.Close()

	var h header
	if err := binary.Read(dec, binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	if h.Magic != magic {
		return nil, errors.Errorf("not a recording: magic %q", h.Magic[:])
	}
	g, err := pixelate.New(int(h.Width), int(h.Height))
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = pixelate.NopSink{}
	}

	var buf []byte
	for n := 0; ; n++ {
		var th tileHeader
		if err := binary.Read(dec, binary.LittleEndian, &th); err != nil {
			if err == io.EOF {
				return g, nil
			}
			return g, errors.Wrapf(err, "read tile %d", n)
		}
		t := pixelate.Tile{X: int(th.X), Y: int(th.Y), W: int(th.W), H: int(th.H)}
		if t.W <= 0 || t.H <= 0 || t.X < 0 || t.Y < 0 || t.X+t.W > g.Width || t.Y+t.H > g.Height {
			return g, errors.Errorf("tile %d %v outside %dx%d grid", n, t, g.Width, g.Height)
		}
		size := t.Area() * 3
		if cap(buf) < size {
			buf = make([]byte, size)
		}
		buf = buf[:size]
		if _, err := io.ReadFull(dec, buf); err != nil {
			return g, errors.Wrapf(err, "read tile %d pixels", n)
		}
		i := 0
		for y := t.Y; y < t.Y+t.H; y++ {
			for x := t.X; x < t.X+t.W; x++ {
				g.Set(x, y, pixelate.RGB{R: buf[i], G: buf[i+1], B: buf[i+2]})
				i += 3
			}
		}
		sink.Publish(g, t)
	}
}
