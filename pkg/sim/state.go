package sim

import "github.com/chazu/instbake/pkg/xform"

// FrameState is a snapshot of an instancer at one frame, laid out the way
// instancers report it: parallel per-particle arrays plus a flat slot array
// that each particle indexes into from its start offset.
type FrameState struct {
	Frame      float64
	IDs        []int
	Transforms []xform.Transform
	Starts     []int
	Slots      []string
}

// Len returns the number of live particles.
func (fs FrameState) Len() int { return len(fs.IDs) }

// SlotRange returns the half-open slot range [start, end) of particle i.
// A particle's range ends where the next one starts; the last particle's
// range ends at the total slot count. Both ends are clamped to the slot
// array.
func (fs FrameState) SlotRange(i int) (start, end int) {
	n := len(fs.Slots)
	if i < 0 || i >= len(fs.Starts) {
		return 0, 0
	}
	start = clamp(fs.Starts[i], 0, n)
	if i+1 < len(fs.Starts) {
		end = clamp(fs.Starts[i+1], 0, n)
	} else {
		end = n
	}
	if end < start {
		end = start
	}
	return start, end
}

// SlotsOf returns the instanced object paths of particle i.
func (fs FrameState) SlotsOf(i int) []string {
	start, end := fs.SlotRange(i)
	return fs.Slots[start:end]
}

// Transform returns the world transform of particle i.
func (fs FrameState) Transform(i int) xform.Transform {
	if i < len(fs.Transforms) {
		return fs.Transforms[i]
	}
	return xform.Identity()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
