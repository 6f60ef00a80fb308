package xform

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestIdentityMatrix(t *testing.T) {
	p := Identity().Matrix().MulPosition(Vec3{X: 1, Y: 2, Z: 3})
	if !near(p.X, 1) || !near(p.Y, 2) || !near(p.Z, 3) {
		t.Errorf("identity moved point: %v", p)
	}
}

func TestTranslationMatrix(t *testing.T) {
	p := Translation(Vec3{X: 10}).Matrix().MulPosition(Vec3{X: 1})
	if !near(p.X, 11) || !near(p.Y, 0) || !near(p.Z, 0) {
		t.Errorf("got %v, want (11, 0, 0)", p)
	}
}

func TestRotateThenTranslate(t *testing.T) {
	tr := Identity()
	tr.Rotate = Vec3{Z: 90}
	tr.Translate = Vec3{Y: 5}

	// (1,0,0) rotated 90 degrees about Z is (0,1,0), then moved up by 5.
	p := tr.Matrix().MulPosition(Vec3{X: 1})
	if !near(p.X, 0) || !near(p.Y, 6) || !near(p.Z, 0) {
		t.Errorf("got %v, want (0, 6, 0)", p)
	}
}

func TestScaleMatrix(t *testing.T) {
	tr := Identity()
	tr.Scale = Vec3{X: 2, Y: 3, Z: 4}
	p := tr.Matrix().MulPosition(Vec3{X: 1, Y: 1, Z: 1})
	if !near(p.X, 2) || !near(p.Y, 3) || !near(p.Z, 4) {
		t.Errorf("got %v, want (2, 3, 4)", p)
	}
}

func TestWorldComposesParentFirst(t *testing.T) {
	parent := Identity()
	parent.Translate = Vec3{X: 10}
	parent.Rotate = Vec3{Z: 90}
	child := Translation(Vec3{X: 1})

	// The child's offset is rotated by the parent before the parent moves it.
	p := Origin(World(parent, child))
	if !near(p.X, 10) || !near(p.Y, 1) || !near(p.Z, 0) {
		t.Errorf("got %v, want (10, 1, 0)", p)
	}
	if o := Origin(World()); !near(o.X, 0) || !near(o.Y, 0) || !near(o.Z, 0) {
		t.Errorf("empty chain origin = %v", o)
	}
}

func TestEqual(t *testing.T) {
	a := Translation(Vec3{X: 1})
	b := Translation(Vec3{X: 1 + 1e-12})
	if !a.Equal(b, DefaultTolerance) {
		t.Error("transforms within tolerance should be equal")
	}
	c := Translation(Vec3{X: 1.1})
	if a.Equal(c, DefaultTolerance) {
		t.Error("transforms outside tolerance should differ")
	}
}

func TestIsZero(t *testing.T) {
	if !(Transform{}).IsZero() {
		t.Error("zero transform should report IsZero")
	}
	if Identity().IsZero() {
		t.Error("identity should not report IsZero")
	}
}
