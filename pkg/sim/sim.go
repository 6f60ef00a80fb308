// Package sim holds scripted particle systems and the query adapter that
// reports their per-frame instancing state.
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/instbake/pkg/xform"
)

var (
	// ErrObjectIndex is returned when a particle references an object slot
	// its instancer does not have.
	ErrObjectIndex = errors.New("object index out of range")
	// ErrOverlap is returned when two particles with the same ID are alive
	// on a common frame.
	ErrOverlap = errors.New("particle id alive twice")
)

// Forever marks a particle that never dies.
var Forever = math.Inf(1)

// Particle is one scripted particle. It is alive for Born <= frame < Dies
// and moves linearly from At with Velocity (units per frame) while spinning
// by Spin (degrees per frame).
type Particle struct {
	ID       int
	Born     float64
	Dies     float64
	At       xform.Vec3
	Velocity xform.Vec3
	Spin     xform.Vec3
	Scale    xform.Vec3
	Objects  []int // indices into the instancer's object list
}

// Alive reports whether p exists at frame.
func (p Particle) Alive(frame float64) bool {
	return frame >= p.Born && frame < p.Dies
}

// TransformAt returns the world transform of p at frame.
func (p Particle) TransformAt(frame float64) xform.Transform {
	age := frame - p.Born
	return xform.Transform{
		Translate: p.At.Add(p.Velocity.MulScalar(age)),
		Rotate:    p.Spin.MulScalar(age),
		Scale:     p.Scale,
	}
}

// System is a named particle system. The name matches the particle node in
// the scene that an instancer reads its input points from.
type System struct {
	Name      string
	Particles []Particle
}

// NewSystem returns an empty system.
func NewSystem(name string) *System {
	return &System{Name: name}
}

// Add appends a particle. IDs may be reused once the previous holder is dead.
func (s *System) Add(p Particle) error {
	if p.Dies == 0 {
		p.Dies = Forever
	}
	if p.Scale == (xform.Vec3{}) {
		p.Scale = xform.Vec3{X: 1, Y: 1, Z: 1}
	}
	for _, q := range s.Particles {
		if q.ID == p.ID && p.Born < q.Dies && q.Born < p.Dies {
			return fmt.Errorf("sim: %s: particle %d: %w", s.Name, p.ID, ErrOverlap)
		}
	}
	s.Particles = append(s.Particles, p)
	return nil
}

// State evaluates the system at frame against an instancer's object list,
// in particle declaration order.
func (s *System) State(frame float64, objects []string) (FrameState, error) {
	fs := FrameState{Frame: frame}
	for _, p := range s.Particles {
		if !p.Alive(frame) {
			continue
		}
		fs.IDs = append(fs.IDs, p.ID)
		fs.Transforms = append(fs.Transforms, p.TransformAt(frame))
		fs.Starts = append(fs.Starts, len(fs.Slots))
		for _, idx := range p.Objects {
			if idx < 0 || idx >= len(objects) {
				return FrameState{}, fmt.Errorf("sim: %s: particle %d object %d of %d: %w",
					s.Name, p.ID, idx, len(objects), ErrObjectIndex)
			}
			fs.Slots = append(fs.Slots, objects[idx])
		}
	}
	return fs, nil
}
