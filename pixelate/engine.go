package pixelate

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Mode selects single or multi-worker execution.
type Mode int

const (
	Single Mode = iota
	Multi
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "S"
	case Multi:
		return "M"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "S" or "M".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "S":
		return Single, nil
	case "M":
		return Multi, nil
	}
	return 0, errors.Errorf("unknown processing mode %q, want S or M", s)
}

// State is the lifecycle of a single run.
type State int32

const (
	Idle State = iota
	Partitioning
	Dispatched
	AwaitingCompletion
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Partitioning:
		return "partitioning"
	case Dispatched:
		return "dispatched"
	case AwaitingCompletion:
		return "awaiting-completion"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Report summarizes a finished run.
type Report struct {
	Mode    Mode
	Workers int
	Axis    Axis
	Bands   []Band
	Tiles   int
	Elapsed time.Duration
}

// Engine pixelates grids. One Engine runs one grid at a time; the worker
// pool is created per run and sized by WithWorkers.
type Engine struct {
	workers int
	axis    Axis
	pause   time.Duration
	sink    Sink
	state   atomic.Int32
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the pool size for multi-worker runs. Values below 1
// fall back to runtime.NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithAxis chooses whether bands are columns or rows of tiles.
func WithAxis(a Axis) Option {
	return func(e *Engine) { e.axis = a }
}

// WithPause sleeps after every published tile so a display can keep up.
func WithPause(d time.Duration) Option {
	return func(e *Engine) { e.pause = d }
}

// WithSink sets the destination of incremental updates.
func WithSink(s Sink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

// NewEngine returns an engine with NumCPU workers, column bands, no pause
// and no sink.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		workers: runtime.NumCPU(),
		axis:    Columns,
		sink:    NopSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workers returns the multi-worker pool size.
func (e *Engine) Workers() int {
	return e.workers
}

// State returns the state of the current or last run.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// Run pixelates g in place using the given mode.
func (e *Engine) Run(ctx context.Context, g *Grid, size int, mode Mode) (Report, error) {
	switch mode {
	case Single:
		return e.RunSingle(ctx, g, size)
	case Multi:
		return e.RunParallel(ctx, g, size)
	}
	return Report{}, errors.Errorf("unknown mode %v", mode)
}

// RunSingle processes every tile row-major on the calling goroutine.
func (e *Engine) RunSingle(ctx context.Context, g *Grid, size int) (Report, error) {
	if err := validate(g, size); err != nil {
		return Report{}, err
	}
	start := time.Now()
	e.setState(Partitioning)
	band := Band{Start: 0, End: tileCount(g.Height, size)}
	area := g.Bounds()

	Logger().Info("pixelate start", "mode", Single, "size", size,
		"width", g.Width, "height", g.Height)

	e.setState(Dispatched)
	var tiles atomic.Int64
	err := e.processBand(ctx, g, size, area, &tiles)
	e.setState(AwaitingCompletion)

	report := Report{
		Mode:    Single,
		Workers: 1,
		Axis:    Rows,
		Bands:   []Band{band},
		Tiles:   int(tiles.Load()),
		Elapsed: time.Since(start),
	}
	e.setState(Done)
	if err != nil {
		Logger().Warn("band failed", "band", 0, "err", err)
		return report, &RunError{
			Bands:  1,
			Failed: []*BandError{{Index: 0, Band: band, Area: area, Err: err}},
		}
	}
	Logger().Info("pixelate done", "tiles", report.Tiles, "elapsed", report.Elapsed)
	return report, nil
}

// RunParallel cuts the grid into one tile-aligned band per worker and
// processes the bands concurrently. It returns after every band has
// finished; failed bands are collected into a *RunError while the others
// still complete.
func (e *Engine) RunParallel(ctx context.Context, g *Grid, size int) (Report, error) {
	if err := validate(g, size); err != nil {
		return Report{}, err
	}
	start := time.Now()
	e.setState(Partitioning)
	bands, areas := bandAreas(g, size, e.workers, e.axis)

	Logger().Info("pixelate start", "mode", Multi, "size", size,
		"width", g.Width, "height", g.Height, "workers", e.workers, "axis", e.axis)

	var (
		grp      errgroup.Group
		tiles    atomic.Int64
		failures = make([]error, len(bands))
	)
	grp.SetLimit(e.workers)
	e.setState(Dispatched)
	for i := range bands {
		grp.Go(func() error {
			if areas[i].Area() == 0 {
				return nil
			}
			Logger().Debug("band start", "band", i, "area", areas[i])
			failures[i] = e.processBand(ctx, g, size, areas[i], &tiles)
			Logger().Debug("band end", "band", i, "err", failures[i])
			return nil
		})
	}
	e.setState(AwaitingCompletion)
	// Tasks never return an error; outcomes are kept per band in failures.
	_ = grp.Wait()

	report := Report{
		Mode:    Multi,
		Workers: e.workers,
		Axis:    e.axis,
		Bands:   bands,
		Tiles:   int(tiles.Load()),
		Elapsed: time.Since(start),
	}
	e.setState(Done)

	var failed []*BandError
	for i, err := range failures {
		if err == nil {
			continue
		}
		Logger().Warn("band failed", "band", i, "area", areas[i], "err", err)
		failed = append(failed, &BandError{Index: i, Band: bands[i], Area: areas[i], Err: err})
	}
	if len(failed) > 0 {
		return report, &RunError{Bands: len(bands), Failed: failed}
	}
	Logger().Info("pixelate done", "tiles", report.Tiles, "elapsed", report.Elapsed)
	return report, nil
}

// processBand averages and publishes every tile inside area. A panic in
// the averager or the sink is turned into the returned error.
func (e *Engine) processBand(ctx context.Context, g *Grid, size int, area Tile, done *atomic.Int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = errors.Wrap(rerr, "panic")
			} else {
				err = errors.Errorf("panic: %v", r)
			}
		}
	}()
	return tilesIn(g, size, area, func(t Tile) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		AverageTile(g, t)
		e.sink.Publish(g, t)
		done.Add(1)
		return e.wait(ctx)
	})
}

func (e *Engine) wait(ctx context.Context) error {
	if e.pause <= 0 {
		return nil
	}
	timer := time.NewTimer(e.pause)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validate(g *Grid, size int) error {
	if g == nil {
		return errors.New("nil grid")
	}
	if size <= 0 {
		return errors.Errorf("square size must be positive, got %d", size)
	}
	if g.Width <= 0 || g.Height <= 0 || len(g.Pix) != g.Width*g.Height {
		return errors.Errorf("malformed %dx%d grid with %d pixels", g.Width, g.Height, len(g.Pix))
	}
	return nil
}
