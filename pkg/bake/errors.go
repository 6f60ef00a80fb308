package bake

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned for a frame range with a non-positive step or
// an end before its start.
var ErrInvalidRange = errors.New("invalid frame range")

// PreconditionError reports an instancer that cannot be baked. It is
// returned before any frame is processed.
type PreconditionError struct {
	Instancer string
	Reason    string
	Err       error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("bake %s: %s", e.Instancer, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// SceneGraphError reports a scene edit that failed mid-bake. Keys written
// on earlier frames are left in place.
type SceneGraphError struct {
	Op    string
	Path  string
	Frame float64
	Err   error
}

func (e *SceneGraphError) Error() string {
	return fmt.Sprintf("bake: frame %g: %s %s: %v", e.Frame, e.Op, e.Path, e.Err)
}

func (e *SceneGraphError) Unwrap() error { return e.Err }
