package bake

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func frames(r Range) []float64 {
	var out []float64
	for i := 0; i < r.Len(); i++ {
		out = append(out, r.Frame(i))
	}
	return out
}

func TestRangeFrames(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, frames(Range{Start: 1, End: 3, Step: 1}))
	assert.Equal(t, []float64{1, 1.5, 2}, frames(Range{Start: 1, End: 2, Step: 0.5}))
	assert.Equal(t, []float64{1, 4}, frames(Range{Start: 1, End: 6, Step: 3}))
	assert.Equal(t, []float64{5}, frames(Range{Start: 5, End: 5, Step: 1}))
	assert.Zero(t, Range{Start: 1, End: 3}.Len())
}

func TestRangeFramesNoDrift(t *testing.T) {
	r := Range{Start: 0, End: 1, Step: 0.1}
	assert.Equal(t, 11, r.Len())
	assert.InDelta(t, 1.0, r.Frame(10), 1e-12)
}

func TestRangeValidate(t *testing.T) {
	assert.NoError(t, Range{Start: 1, End: 1, Step: 1}.Validate())
	assert.NoError(t, Range{Start: 0, End: MaxFrames - 1, Step: 1}.Validate())

	bad := []Range{
		{Start: 1, End: 2, Step: -1},
		{Start: 2, End: 1, Step: 1},
		{Start: 1, End: 2, Step: math.NaN()},
		{Start: 1, End: 2, Step: math.Inf(1)},
		{Start: math.Inf(-1), End: 2, Step: 1},
		{Start: 1, End: math.NaN(), Step: 1},
		{Start: 0, End: 1_000_000, Step: 1e-12},
		{Start: 0, End: MaxFrames, Step: 1},
	}
	for _, r := range bad {
		assert.ErrorIs(t, r.Validate(), ErrInvalidRange, "%+v", r)
		assert.Zero(t, r.Len(), "%+v", r)
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "instancer1_bakedGrp", BakeRootName("instancer1"))
	assert.Equal(t, "instancer1_bakedGrp", BakeRootName("|instancer1"))
	assert.Equal(t, "particle_42_Grp", ParticleGroupName(42))
}
