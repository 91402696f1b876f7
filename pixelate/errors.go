package pixelate

import (
	"fmt"
	"strings"
)

// BandError reports a band whose tile loop did not finish. Tiles before
// the failure stay averaged; the rest of the band is left untouched.
type BandError struct {
	Index int  // position in the run's band list
	Band  Band // tile indices along the band axis
	Area  Tile // pixels owned by the band
	Err   error
}

func (e *BandError) Error() string {
	return fmt.Sprintf("band %d %s: %v", e.Index, e.Area, e.Err)
}

func (e *BandError) Unwrap() error { return e.Err }

// RunError collects every failed band of one run.
type RunError struct {
	Bands  int
	Failed []*BandError
}

func (e *RunError) Error() string {
	msgs := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%d of %d bands failed: %s", len(e.Failed), e.Bands, strings.Join(msgs, "; "))
}

// Unwrap exposes the band errors to errors.Is and errors.As.
func (e *RunError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f
	}
	return errs
}
