// Package imagestore loads image files into pixel grids and writes them
// back out.
package imagestore

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Raimguzhinov/pixelate/pixelate"
)

// JPEGQuality is used when saving .jpg and .jpeg files.
const JPEGQuality = 90

// LoadError means the file could not be opened or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// SaveError means the grid could not be encoded or written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string { return fmt.Sprintf("save %s: %v", e.Path, e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }

// Load decodes the file at path. When maxWidth or maxHeight is positive and
// the image is larger, it is scaled down to fit, keeping its aspect ratio.
func Load(path string, maxWidth, maxHeight int) (*pixelate.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, &LoadError{Path: path, Err: errors.Wrap(err, "decode")}
	}
	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), maxWidth, maxHeight)
	if w != b.Dx() || h != b.Dy() {
		img = resize.Resize(uint(w), uint(h), img, resize.Bilinear)
	}
	g, err := pixelate.FromImage(img)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	pixelate.Logger().Debug("image loaded", "path", path, "format", format,
		"source", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()), "grid", fmt.Sprintf("%dx%d", w, h))
	return g, nil
}

// Fit returns the size of a width×height image scaled down to fit inside
// maxWidth×maxHeight. Non-positive bounds do not constrain. The result is
// never smaller than 1×1.
func Fit(width, height, maxWidth, maxHeight int) (int, int) {
	w, h := width, height
	if maxWidth > 0 && w > maxWidth {
		w = maxWidth
		h = w * height / width
	}
	if maxHeight > 0 && h > maxHeight {
		h = maxHeight
		w = h * width / height
	}
	return max(w, 1), max(h, 1)
}

// Copy returns a deep copy of g.
func Copy(g *pixelate.Grid) *pixelate.Grid {
	return g.Clone()
}

// Save encodes g by the extension of path: .png, .bmp, .tif/.tiff, or
// JPEG for anything else.
func Save(g *pixelate.Grid, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &SaveError{Path: path, Err: err}
	}
	img := g.Image()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		f.Close()
		return &SaveError{Path: path, Err: errors.Wrap(err, "encode")}
	}
	if err := f.Close(); err != nil {
		return &SaveError{Path: path, Err: err}
	}
	pixelate.Logger().Debug("image saved", "path", path)
	return nil
}
