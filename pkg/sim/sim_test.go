package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/instbake/pkg/scene"
	"github.com/chazu/instbake/pkg/xform"
)

func TestParticleLifetime(t *testing.T) {
	p := Particle{ID: 1, Born: 2, Dies: 5}
	assert.False(t, p.Alive(1))
	assert.True(t, p.Alive(2))
	assert.True(t, p.Alive(4))
	assert.False(t, p.Alive(5))
}

func TestParticleMotion(t *testing.T) {
	p := Particle{
		Born:     2,
		At:       xform.Vec3{X: 1},
		Velocity: xform.Vec3{Y: 2},
		Spin:     xform.Vec3{Z: 10},
		Scale:    xform.Vec3{X: 1, Y: 1, Z: 1},
	}
	got := p.TransformAt(4)
	want := xform.Transform{
		Translate: xform.Vec3{X: 1, Y: 4},
		Rotate:    xform.Vec3{Z: 20},
		Scale:     xform.Vec3{X: 1, Y: 1, Z: 1},
	}
	assert.True(t, got.Equal(want, xform.DefaultTolerance), "got %v", got)
}

func TestAddDefaults(t *testing.T) {
	s := NewSystem("nParticle1")
	require.NoError(t, s.Add(Particle{ID: 7, Born: 1}))
	p := s.Particles[0]
	assert.Equal(t, Forever, p.Dies)
	assert.Equal(t, xform.Vec3{X: 1, Y: 1, Z: 1}, p.Scale)
}

func TestAddRejectsOverlappingIDs(t *testing.T) {
	s := NewSystem("nParticle1")
	require.NoError(t, s.Add(Particle{ID: 7, Born: 1, Dies: 5}))
	assert.ErrorIs(t, s.Add(Particle{ID: 7, Born: 4, Dies: 8}), ErrOverlap)
	// Reuse after death is allowed.
	assert.NoError(t, s.Add(Particle{ID: 7, Born: 5, Dies: 8}))
}

func TestStateLayout(t *testing.T) {
	s := NewSystem("nParticle1")
	require.NoError(t, s.Add(Particle{ID: 1, Born: 1, Objects: []int{0, 1}}))
	require.NoError(t, s.Add(Particle{ID: 2, Born: 3}))
	require.NoError(t, s.Add(Particle{ID: 3, Born: 1, Objects: []int{1}}))

	fs, err := s.State(2, []string{"|pCube1", "|pSphere1"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, fs.IDs)
	assert.Equal(t, []int{0, 2}, fs.Starts)
	assert.Equal(t, []string{"|pCube1", "|pSphere1", "|pSphere1"}, fs.Slots)
	assert.Equal(t, []string{"|pCube1", "|pSphere1"}, fs.SlotsOf(0))
	assert.Equal(t, []string{"|pSphere1"}, fs.SlotsOf(1))

	fs, err = s.State(3, []string{"|pCube1", "|pSphere1"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, fs.IDs)
	assert.Empty(t, fs.SlotsOf(1), "particle without objects is inert")
}

func TestStateObjectIndex(t *testing.T) {
	s := NewSystem("nParticle1")
	require.NoError(t, s.Add(Particle{ID: 1, Born: 1, Objects: []int{2}}))
	_, err := s.State(1, []string{"|pCube1"})
	assert.ErrorIs(t, err, ErrObjectIndex)
}

func TestSlotRangeClampsLastParticle(t *testing.T) {
	fs := FrameState{
		IDs:    []int{1, 2, 3},
		Starts: []int{0, 2, 3},
		Slots:  []string{"a", "b", "c", "d", "e"},
	}
	start, end := fs.SlotRange(2)
	assert.Equal(t, 3, start)
	assert.Equal(t, 5, end)

	// Malformed starts past the slot count never read out of bounds.
	bad := FrameState{
		IDs:    []int{1, 2},
		Starts: []int{1, 9},
		Slots:  []string{"a", "b"},
	}
	start, end = bad.SlotRange(0)
	assert.Equal(t, 1, start)
	assert.Equal(t, 2, end)
	start, end = bad.SlotRange(1)
	assert.Equal(t, 2, start)
	assert.Equal(t, 2, end)
	assert.Empty(t, bad.SlotsOf(1))

	start, end = bad.SlotRange(5)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestSceneSourceQuery(t *testing.T) {
	sc := scene.New()
	cube, err := sc.CreateNode(scene.NodeTransform, "pCube1", "")
	require.NoError(t, err)
	inst, _ := sc.CreateNode(scene.NodeInstancer, "instancer1", "")
	pts, _ := sc.CreateNode(scene.NodeParticles, "nParticle1", "")
	require.NoError(t, sc.SetObjects(inst, []string{cube}))

	sys := NewSystem("nParticle1")
	require.NoError(t, sys.Add(Particle{ID: 42, Born: 2, Dies: 5, Objects: []int{0}}))
	src := NewSceneSource(sc)

	_, err = src.Query(inst, 2)
	assert.ErrorIs(t, err, scene.ErrNoConnection)

	require.NoError(t, sc.Connect(inst, pts))
	_, err = src.Query(inst, 2)
	assert.ErrorIs(t, err, ErrNoSystem)

	src.Register(sys)
	fs, err := src.Query(inst, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, sc.CurrentTime())
	assert.Equal(t, []int{42}, fs.IDs)
	assert.Equal(t, []string{"|pCube1"}, fs.SlotsOf(0))
}

func TestSceneSourceCheck(t *testing.T) {
	sc := scene.New()
	inst, _ := sc.CreateNode(scene.NodeInstancer, "instancer1", "")
	pts, _ := sc.CreateNode(scene.NodeParticles, "nParticle1", "")
	src := NewSceneSource(sc)
	before := sc.CurrentTime()

	assert.ErrorIs(t, src.Check(inst), scene.ErrNoConnection)
	require.NoError(t, sc.Connect(inst, pts))
	assert.ErrorIs(t, src.Check(inst), ErrNoSystem)
	src.Register(NewSystem("nParticle1"))
	assert.NoError(t, src.Check(inst))
	assert.Equal(t, before, sc.CurrentTime())
}
