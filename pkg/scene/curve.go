package scene

import "sort"

// Key is a single keyframe.
type Key[T any] struct {
	Frame float64 `json:"frame"`
	Value T       `json:"value"`
}

// Curve is a stepped animation curve kept sorted by frame. Setting a key on
// a frame that already has one replaces its value.
type Curve[T any] struct {
	Keys []Key[T] `json:"keys,omitempty"`
}

// Set inserts or replaces the key at frame.
func (c *Curve[T]) Set(frame float64, v T) {
	i := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Frame >= frame })
	if i < len(c.Keys) && c.Keys[i].Frame == frame {
		c.Keys[i].Value = v
		return
	}
	c.Keys = append(c.Keys, Key[T]{})
	copy(c.Keys[i+1:], c.Keys[i:])
	c.Keys[i] = Key[T]{Frame: frame, Value: v}
}

// InRange returns the keys with from <= frame <= to. An inverted range
// yields no keys.
func (c *Curve[T]) InRange(from, to float64) []Key[T] {
	if from > to {
		return nil
	}
	lo := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Frame >= from })
	hi := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Frame > to })
	if lo >= hi {
		return nil
	}
	out := make([]Key[T], hi-lo)
	copy(out, c.Keys[lo:hi])
	return out
}

// At evaluates the curve at frame. Before the first key the first value
// holds; ok is false when the curve has no keys.
func (c *Curve[T]) At(frame float64) (v T, ok bool) {
	if len(c.Keys) == 0 {
		return v, false
	}
	i := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Frame > frame })
	if i == 0 {
		return c.Keys[0].Value, true
	}
	return c.Keys[i-1].Value, true
}

// Len returns the number of keys.
func (c *Curve[T]) Len() int { return len(c.Keys) }
