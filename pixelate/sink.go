package pixelate

import "sync"

// Sink receives the grid after each tile has been averaged. In parallel
// runs Publish is called from several goroutines at once, so
// implementations must serialize internally and must not block for long.
//
// dirty is the tile that just changed. Only its pixels are guaranteed to
// be stable while Publish runs; the rest of the grid may be written by
// other workers concurrently.
type Sink interface {
	Publish(g *Grid, dirty Tile)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(g *Grid, dirty Tile)

func (f SinkFunc) Publish(g *Grid, dirty Tile) { f(g, dirty) }

// NopSink discards every update.
type NopSink struct{}

func (NopSink) Publish(*Grid, Tile) {}

// MultiSink forwards every update to each sink in order.
func MultiSink(sinks ...Sink) Sink {
	all := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			all = append(all, s)
		}
	}
	return all
}

type multiSink []Sink

func (m multiSink) Publish(g *Grid, dirty Tile) {
	for _, s := range m {
		s.Publish(g, dirty)
	}
}

// Frame is a Sink holding an RGBA copy of the latest published state. A
// display loop polls it with CopyTo on its own goroutine.
type Frame struct {
	mu      sync.Mutex
	width   int
	height  int
	pix     []byte
	version uint64
	shown   uint64
}

// NewFrame creates a frame initialized from g.
func NewFrame(g *Grid) *Frame {
	f := &Frame{
		width:  g.Width,
		height: g.Height,
		pix:    g.Image().Pix,
	}
	f.version = 1
	return f
}

// Size returns the frame dimensions.
func (f *Frame) Size() (int, int) {
	return f.width, f.height
}

// Publish copies the dirty tile into the frame.
func (f *Frame) Publish(g *Grid, dirty Tile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for y := dirty.Y; y < dirty.Y+dirty.H; y++ {
		src := g.Pix[y*g.Width+dirty.X : y*g.Width+dirty.X+dirty.W]
		dst := f.pix[(y*f.width+dirty.X)*4:]
		for i, c := range src {
			dst[i*4+0] = c.R
			dst[i*4+1] = c.G
			dst[i*4+2] = c.B
			dst[i*4+3] = 255
		}
	}
	f.version++
}

// CopyTo writes the frame into dst, a buffer with the given row pitch in
// bytes, if it changed since the last CopyTo. It reports whether it copied.
func (f *Frame) CopyTo(dst []byte, pitch int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.version == f.shown {
		return false
	}
	row := f.width * 4
	for y := 0; y < f.height; y++ {
		copy(dst[y*pitch:y*pitch+row], f.pix[y*row:(y+1)*row])
	}
	f.shown = f.version
	return true
}
