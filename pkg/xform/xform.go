// Package xform describes node transforms and evaluates them with the
// github.com/deadsy/sdfx matrix library.
package xform

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec3 is a 3D vector.
type Vec3 = v3.Vec

// DefaultTolerance is the component tolerance used by Equal.
const DefaultTolerance = 1e-9

// Transform is a decomposed local transform. Rotation is in degrees and is
// applied in X, Y, Z order.
type Transform struct {
	Translate Vec3 `json:"translate"`
	Rotate    Vec3 `json:"rotate"`
	Scale     Vec3 `json:"scale"`
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Scale: Vec3{X: 1, Y: 1, Z: 1}}
}

// Translation returns an unrotated, unscaled transform at p.
func Translation(p Vec3) Transform {
	t := Identity()
	t.Translate = p
	return t
}

// Matrix returns the 4x4 matrix T * Rz * Ry * Rx * S.
func (t Transform) Matrix() sdf.M44 {
	rx := t.Rotate.X * math.Pi / 180
	ry := t.Rotate.Y * math.Pi / 180
	rz := t.Rotate.Z * math.Pi / 180
	r := sdf.RotateZ(rz).Mul(sdf.RotateY(ry)).Mul(sdf.RotateX(rx))
	return sdf.Translate3d(t.Translate).Mul(r).Mul(sdf.Scale3d(t.Scale))
}

// World composes a chain of local transforms, outermost first.
func World(chain ...Transform) sdf.M44 {
	m := sdf.Identity3d()
	for _, t := range chain {
		m = m.Mul(t.Matrix())
	}
	return m
}

// Origin returns where m places the local origin.
func Origin(m sdf.M44) Vec3 {
	return m.MulPosition(Vec3{})
}

// Equal reports whether all components of t and o differ by at most tol.
func (t Transform) Equal(o Transform, tol float64) bool {
	return vecEqual(t.Translate, o.Translate, tol) &&
		vecEqual(t.Rotate, o.Rotate, tol) &&
		vecEqual(t.Scale, o.Scale, tol)
}

// IsZero reports whether t is the zero value (no scale set).
func (t Transform) IsZero() bool {
	return t == Transform{}
}

func (t Transform) String() string {
	return fmt.Sprintf("T(%.3g %.3g %.3g) R(%.3g %.3g %.3g) S(%.3g %.3g %.3g)",
		t.Translate.X, t.Translate.Y, t.Translate.Z,
		t.Rotate.X, t.Rotate.Y, t.Rotate.Z,
		t.Scale.X, t.Scale.Y, t.Scale.Z)
}

func vecEqual(a, b Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol
}
