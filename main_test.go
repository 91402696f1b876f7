package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raimguzhinov/pixelate/imagestore"
	"github.com/Raimguzhinov/pixelate/pixelate"
	"github.com/Raimguzhinov/pixelate/record"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-w", "3", "--rows", "--pause", "0s", "in.png", "8", "M"})
	require.NoError(t, err)
	assert.Equal(t, "in.png", opts.Args.Image)
	assert.Equal(t, 8, opts.Args.SquareSize)
	assert.Equal(t, pixelate.Multi, opts.mode)
	assert.Equal(t, 3, opts.Workers)
	assert.True(t, opts.Rows)
	assert.Equal(t, time.Duration(0), opts.Pause)
	assert.Equal(t, "result.jpg", opts.Output)

	opts, err = parseOptions([]string{"in.png", "4", "S"})
	require.NoError(t, err)
	assert.Equal(t, pixelate.Single, opts.mode)
	assert.Equal(t, 10*time.Millisecond, opts.Pause)
	assert.Positive(t, opts.Workers)
}

func TestParseOptionsUsage(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
	}{
		{"no_args", nil},
		{"missing_mode", []string{"in.png", "4"}},
		{"zero_size", []string{"in.png", "0", "S"}},
		{"negative_size", []string{"in.png", "-2", "S"}},
		{"not_a_number", []string{"in.png", "big", "S"}},
		{"bad_mode", []string{"in.png", "4", "X"}},
		{"lowercase_mode", []string{"in.png", "4", "m"}},
		{"extra", []string{"in.png", "4", "S", "more"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseOptions(tc.args)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errUsage), "%v", err)
		})
	}
}

func TestParseOptionsHelp(t *testing.T) {
	opts, err := parseOptions([]string{"--help"})
	require.NoError(t, err)
	assert.True(t, opts.Help)
}

func headlessOptions(t *testing.T, mode string) *Options {
	t.Helper()
	dir := t.TempDir()
	opts, err := parseOptions([]string{
		"--headless", "--pause", "0s", "-w", "4",
		"-o", filepath.Join(dir, "result.png"),
		"--record", filepath.Join(dir, "run.pxr"),
		filepath.Join(dir, "in.png"), "3", mode,
	})
	require.NoError(t, err)
	return opts
}

func testGrid(t *testing.T) *pixelate.Grid {
	t.Helper()
	g, err := pixelate.New(20, 11)
	require.NoError(t, err)
	for i := range g.Pix {
		g.Pix[i] = pixelate.RGB{R: uint8(i), G: uint8(i * 5), B: uint8(255 - i)}
	}
	return g
}

func TestRunHeadless(t *testing.T) {
	for _, mode := range []string{"S", "M"} {
		t.Run(mode, func(t *testing.T) {
			opts := headlessOptions(t, mode)
			src := testGrid(t)
			require.NoError(t, imagestore.Save(src, opts.Args.Image))

			require.Equal(t, 0, runHeadless(opts))

			want := src.Clone()
			_, err := pixelate.NewEngine().RunSingle(context.Background(), want, 3)
			require.NoError(t, err)

			got, err := imagestore.Load(opts.Output, 0, 0)
			require.NoError(t, err)
			assert.True(t, want.Equal(got))

			f, err := os.Open(opts.Record)
			require.NoError(t, err)
			defer f.Close()
			replayed, err := record.Replay(f, nil)
			require.NoError(t, err)
			assert.True(t, want.Equal(replayed))
		})
	}
}

func TestRunHeadlessMissingImage(t *testing.T) {
	opts := headlessOptions(t, "S")
	assert.Equal(t, 1, runHeadless(opts))
	_, err := os.Stat(opts.Output)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessCancelledDoesNotSave(t *testing.T) {
	opts := headlessOptions(t, "M")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, 1, process(ctx, opts, testGrid(t), pixelate.NopSink{}))
	_, err := os.Stat(opts.Output)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessSavesPartialResult(t *testing.T) {
	opts := headlessOptions(t, "M")
	opts.Record = ""
	opts.Workers = 2
	broken := pixelate.SinkFunc(func(_ *pixelate.Grid, dirty pixelate.Tile) {
		if dirty.X >= 12 {
			panic("sink failure")
		}
	})

	assert.Equal(t, 1, process(context.Background(), opts, testGrid(t), broken))
	_, err := os.Stat(opts.Output)
	assert.NoError(t, err)
}
