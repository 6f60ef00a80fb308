package bake

import (
	"fmt"
	"math"
)

// MaxFrames bounds the number of frames one bake may walk.
const MaxFrames = 1_000_000

// frameEps absorbs rounding when the last step lands on End.
const frameEps = 1e-9

// Range is an inclusive frame range walked in Step increments.
type Range struct {
	Start float64
	End   float64
	Step  float64

	// Resume seeds the previous live set from the frame before Start, so a
	// bake restarted mid-range still hides particles that die on Start.
	Resume bool
}

// PlaybackRange returns the scene's full playback range with step 1.
func PlaybackRange(sc Scene) Range {
	start, end := sc.PlaybackRange()
	return Range{Start: start, End: end, Step: 1}
}

// Validate checks the bounds, the step and the resulting frame count.
func (r Range) Validate() error {
	if !finite(r.Start) || !finite(r.End) {
		return fmt.Errorf("%w: bounds [%g, %g]", ErrInvalidRange, r.Start, r.End)
	}
	if r.Step <= 0 || !finite(r.Step) {
		return fmt.Errorf("%w: step %g", ErrInvalidRange, r.Step)
	}
	if r.End < r.Start {
		return fmt.Errorf("%w: end %g before start %g", ErrInvalidRange, r.End, r.Start)
	}
	if n := (r.End - r.Start) / r.Step; n >= MaxFrames {
		return fmt.Errorf("%w: step %g over [%g, %g] exceeds %d frames",
			ErrInvalidRange, r.Step, r.Start, r.End, MaxFrames)
	}
	return nil
}

// Len returns the number of frames in a valid range, or 0.
func (r Range) Len() int {
	if r.Validate() != nil {
		return 0
	}
	return int(math.Floor((r.End-r.Start)/r.Step+frameEps)) + 1
}

// Frame returns the i-th frame. Frames are computed from the start rather
// than accumulated so fractional steps do not drift.
func (r Range) Frame(i int) float64 {
	return r.Start + float64(i)*r.Step
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
