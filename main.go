package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Raimguzhinov/pixelate/imagestore"
	"github.com/Raimguzhinov/pixelate/pixelate"
	"github.com/Raimguzhinov/pixelate/record"
)

type Options struct {
	Output    string        `short:"o" long:"output" default:"result.jpg" description:"Result file"`
	Workers   int           `short:"w" long:"workers" description:"Workers for mode M"`
	Pause     time.Duration `long:"pause" default:"10ms" description:"Delay after each square"`
	Rows      bool          `long:"rows" description:"Cut bands along rows"`
	Headless  bool          `long:"headless" description:"Do not open a window"`
	Record    string        `long:"record" description:"Stream processed squares to a zstd file"`
	MaxWidth  int           `long:"max-width" description:"Maximum image width"`
	MaxHeight int           `long:"max-height" description:"Maximum image height"`
	Verbose   bool          `short:"v" long:"verbose" description:"Debug logging"`
	Version   bool          `long:"version" description:"Print the version and exit"`
	Help      bool          `short:"h" long:"help" description:"Show help"`

	Args struct {
		Image      string `positional-arg-name:"image"`
		SquareSize int    `positional-arg-name:"square-size"`
		Mode       string `positional-arg-name:"mode"`
	} `positional-args:"yes"`

	mode pixelate.Mode
}

var errUsage = errors.New("usage")

// parseOptions parses the command line. errUsage means help should be
// printed and nothing processed.
func parseOptions(args []string) (*Options, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.IgnoreUnknown)
	rest, err := parser.ParseArgs(args)
	if opts.Help || opts.Version {
		return &opts, nil
	}
	if err != nil {
		return nil, errors.Wrap(errUsage, err.Error())
	}
	if len(rest) > 0 {
		return nil, errors.Wrapf(errUsage, "unexpected arguments %v", rest)
	}
	if opts.Args.Image == "" || opts.Args.Mode == "" {
		return nil, errors.Wrap(errUsage, "missing arguments")
	}
	if opts.Args.SquareSize <= 0 {
		return nil, errors.Wrapf(errUsage, "square size must be greater than zero, got %d", opts.Args.SquareSize)
	}
	opts.mode, err = pixelate.ParseMode(opts.Args.Mode)
	if err != nil {
		return nil, errors.Wrap(errUsage, err.Error())
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &opts, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Print(detailedHelp)
		os.Exit(1)
	}
	if opts.Help {
		fmt.Print(detailedHelp)
		return
	}
	if opts.Version {
		fmt.Println(version)
		return
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	pixelate.SetLogger(logger)

	if opts.Headless {
		os.Exit(runHeadless(opts))
	}
	var code int
	sdl.Main(func() { code = runWindowed(opts) })
	os.Exit(code)
}

func runHeadless(opts *Options) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	orig, err := imagestore.Load(opts.Args.Image, opts.MaxWidth, opts.MaxHeight)
	if err != nil {
		slog.Error("cannot load image", "err", err)
		return 1
	}
	return process(ctx, opts, imagestore.Copy(orig), pixelate.NopSink{})
}

// process pixelates grid, saves it to opts.Output and returns the exit code.
// Bands that failed leave their part of the image unprocessed but the rest
// is still saved.
func process(ctx context.Context, opts *Options, grid *pixelate.Grid, sink pixelate.Sink) int {
	sinks := []pixelate.Sink{sink}
	var rec *record.Recorder
	if opts.Record != "" {
		var err error
		rec, err = record.Create(opts.Record, grid.Width, grid.Height)
		if err != nil {
			slog.Error("cannot start recording", "err", err)
			return 1
		}
		sinks = append(sinks, rec)
	}

	axis := pixelate.Columns
	if opts.Rows {
		axis = pixelate.Rows
	}
	engine := pixelate.NewEngine(
		pixelate.WithWorkers(opts.Workers),
		pixelate.WithAxis(axis),
		pixelate.WithPause(opts.Pause),
		pixelate.WithSink(pixelate.MultiSink(sinks...)),
	)
	report, runErr := engine.Run(ctx, grid, opts.Args.SquareSize, opts.mode)

	code := 0
	if rec != nil {
		if err := rec.Close(); err != nil {
			slog.Error("recording failed", "path", opts.Record, "err", err)
			code = 1
		}
	}
	if runErr != nil {
		if ctx.Err() != nil {
			slog.Warn("processing cancelled", "tiles", report.Tiles)
			return 1
		}
		slog.Error("processing incomplete", "err", runErr)
		code = 1
	}
	if err := imagestore.Save(grid, opts.Output); err != nil {
		slog.Error("cannot save result", "err", err)
		return 1
	}
	slog.Info("result saved", "path", opts.Output, "mode", report.Mode,
		"workers", report.Workers, "tiles", report.Tiles, "elapsed", report.Elapsed)
	return code
}
