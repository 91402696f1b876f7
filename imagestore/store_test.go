package imagestore

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raimguzhinov/pixelate/pixelate"
)

func makeTestGrid(t *testing.T, w, h int) *pixelate.Grid {
	t.Helper()
	g, err := pixelate.New(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, pixelate.RGB{R: uint8(x * 9), G: uint8(y * 5), B: uint8(x ^ y)})
		}
	}
	return g
}

func TestFit(t *testing.T) {
	for _, tc := range []struct {
		name         string
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"fits", 100, 50, 200, 200, 100, 50},
		{"unbounded", 4000, 3000, 0, 0, 4000, 3000},
		{"too_wide", 400, 100, 200, 1000, 200, 50},
		{"too_tall", 100, 400, 1000, 200, 50, 200},
		{"both", 1000, 800, 500, 300, 375, 300},
		{"sliver", 1000, 1, 10, 10, 10, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w, h := Fit(tc.w, tc.h, tc.maxW, tc.maxH)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestSaveLoadPNGIsLossless(t *testing.T) {
	g := makeTestGrid(t, 23, 11)
	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, Save(g, path))

	back, err := Load(path, 0, 0)
	require.NoError(t, err)
	assert.True(t, g.Equal(back))
}

func TestSaveFormats(t *testing.T) {
	g := makeTestGrid(t, 8, 6)
	for _, name := range []string{"a.jpg", "b.jpeg", "c.bmp", "d.tiff", "e.tif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(g, path))
			back, err := Load(path, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, 8, back.Width)
			assert.Equal(t, 6, back.Height)
		})
	}
}

func TestLoadResizesToBound(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 80, 40))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	path := filepath.Join(t.TempDir(), "big.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	g, err := Load(path, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, g.Width)
	assert.Equal(t, 10, g.Height)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))

	for _, path := range []string{filepath.Join(dir, "missing.png"), garbage} {
		g, err := Load(path, 0, 0)
		assert.Nil(t, g)
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr), "%s: %v", path, err)
		assert.Equal(t, path, loadErr.Path)
	}
}

func TestSaveErrorIsReported(t *testing.T) {
	g := makeTestGrid(t, 2, 2)
	err := Save(g, filepath.Join(t.TempDir(), "no", "such", "dir.png"))
	var saveErr *SaveError
	assert.True(t, errors.As(err, &saveErr))
}

func TestCopyIsDeep(t *testing.T) {
	g := makeTestGrid(t, 3, 3)
	c := Copy(g)
	c.Set(1, 1, pixelate.RGB{R: 1, G: 1, B: 1})
	assert.NotEqual(t, g.At(1, 1), c.At(1, 1))
	g.Set(0, 0, pixelate.RGB{R: 7})
	assert.NotEqual(t, g.At(0, 0), c.At(0, 0))
}
