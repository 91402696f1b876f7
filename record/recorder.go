// Package record streams pixelation progress to a zstd-compressed file
// and plays it back.
//
// Stream layout, little endian, inside one zstd frame:
//
//	header: magic "PXR1", width uint32, height uint32
//	record: x, y, w, h uint32, then w*h RGB triples row-major
package record

import (
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/Raimguzhinov/pixelate/pixelate"
)

var magic = [4]byte{'P', 'X', 'R', '1'}

type header struct {
	Magic  [4]byte
	Width  uint32
	Height uint32
}

type tileHeader struct {
	X, Y, W, H uint32
}

// Recorder is a pixelate.Sink that appends every published tile to a
// compressed stream. Publish is safe for concurrent use. Write errors stop
// the recording and are returned by Close.
type Recorder struct {
	mu     sync.Mutex
	enc    *zstd.Encoder
	closer io.Closer
	buf    []byte
	tiles  int
	err    error
}

// Create records to a new file at path.
func Create(path string, width, height int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create recording")
	}
	r, err := NewRecorder(f, width, height)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewRecorder writes the stream header for a width×height grid to w.
func NewRecorder(w io.Writer, width, height int) (*Recorder, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, errors.Wrap(err, "zstd writer")
	}
	h := header{Magic: magic, Width: uint32(width), Height: uint32(height)}
	if err := binary.Write(enc, binary.LittleEndian, &h); err != nil {
		enc.Close()
		return nil, errors.Wrap(err, "write header")
	}
	return &Recorder{enc: enc}, nil
}

// Publish appends dirty and its pixels to the stream.
func (r *Recorder) Publish(g *pixelate.Grid, dirty pixelate.Tile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	th := tileHeader{X: uint32(dirty.X), Y: uint32(dirty.Y), W: uint32(dirty.W), H: uint32(dirty.H)}
	if err := binary.Write(r.enc, binary.LittleEndian, &th); err != nil {
		r.err = errors.Wrap(err, "write tile header")
		return
	}
	r.buf = r.buf[:0]
	for y := dirty.Y; y < dirty.Y+dirty.H; y++ {
		for _, c := range g.Pix[y*g.Width+dirty.X : y*g.Width+dirty.X+dirty.W] {
			r.buf = append(r.buf, c.R, c.G, c.B)
		}
	}
	if _, err := r.enc.Write(r.buf); err != nil {
		r.err = errors.Wrap(err, "write tile pixels")
		return
	}
	r.tiles++
}

// Tiles returns the number of tiles recorded so far.
func (r *Recorder) Tiles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tiles
}

// Close flushes the stream and closes the file opened by Create. It
// returns the first error seen while recording.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.err
	if cerr := r.enc.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, "flush recording")
	}
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}
	return err
}
