package bake

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/chazu/instbake/pkg/scene"
	"github.com/chazu/instbake/pkg/sim"
	"github.com/chazu/instbake/pkg/xform"
)

// Report summarizes a finished bake.
type Report struct {
	Instancer string        `json:"instancer"`
	Root      string        `json:"root"`
	Frames    int           `json:"frames"`
	Particles int           `json:"particles"`
	Created   int           `json:"created"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Baker bakes instancers of one scene. A Baker holds no state between
// calls, but bakes move the source's time cursor and must not run
// concurrently on the same scene.
type Baker struct {
	scene  Scene
	source Source
	logger *slog.Logger
}

// Option configures a Baker.
type Option func(*Baker)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Baker) { b.logger = l }
}

// New returns a baker writing into sc and reading from src.
func New(sc Scene, src Source, opts ...Option) *Baker {
	b := &Baker{scene: sc, source: src, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BakePlayback bakes instancer over the scene's full playback range.
func (b *Baker) BakePlayback(instancer string) (*Report, error) {
	return b.Bake(instancer, PlaybackRange(b.scene))
}

// bakeState is the cross-frame state of one Bake call.
type bakeState struct {
	instancer string
	res       *Resolver
	root      string
	playStart float64
	groups    map[int]string
	prev      []int
	seen      map[int]bool
}

// Bake walks r and keys the baked hierarchy of instancer on every frame.
func (b *Baker) Bake(instancer string, r Range) (*Report, error) {
	began := time.Now()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := b.checkInstancer(instancer); err != nil {
		return nil, err
	}

	st := &bakeState{
		instancer: instancer,
		res:       NewResolver(b.scene),
		groups:    make(map[int]string),
		seen:      make(map[int]bool),
	}
	st.playStart, _ = b.scene.PlaybackRange()

	root, err := st.res.BakeRoot(instancer)
	if err != nil {
		return nil, &SceneGraphError{Op: "create bake root", Path: BakeRootName(instancer), Frame: r.Start, Err: err}
	}
	st.root = root

	log := b.logger.With("instancer", instancer, "root", root)
	log.Info("bake started", "start", r.Start, "end", r.End, "step", r.Step)

	if r.Resume {
		fs, err := b.query(instancer, r.Start-r.Step)
		if err != nil {
			return nil, err
		}
		st.prev = append([]int(nil), fs.IDs...)
	}

	n := r.Len()
	for i := 0; i < n; i++ {
		frame := r.Frame(i)
		if err := b.bakeFrame(st, frame, log); err != nil {
			log.Error("bake aborted", "frame", frame, "err", err)
			return nil, err
		}
	}

	rep := &Report{
		Instancer: instancer,
		Root:      root,
		Frames:    n,
		Particles: len(st.seen),
		Created:   st.res.Created,
		Elapsed:   time.Since(began),
	}
	log.Info("bake finished", "frames", rep.Frames, "particles", rep.Particles,
		"created", rep.Created, "elapsed", rep.Elapsed)
	return rep, nil
}

func (b *Baker) checkInstancer(instancer string) error {
	if !b.scene.Exists(instancer) {
		return &PreconditionError{Instancer: instancer, Reason: "object does not exist", Err: scene.ErrNotFound}
	}
	kind, err := b.scene.Kind(instancer)
	if err != nil {
		return &PreconditionError{Instancer: instancer, Reason: "cannot read node type", Err: err}
	}
	if kind != scene.NodeInstancer {
		return &PreconditionError{Instancer: instancer, Reason: fmt.Sprintf("object is a %s, not an instancer", kind), Err: scene.ErrKind}
	}
	if _, err := b.scene.InputPoints(instancer); err != nil {
		return &PreconditionError{Instancer: instancer, Reason: "no particles connected", Err: err}
	}
	if err := b.source.Check(instancer); err != nil {
		return &PreconditionError{Instancer: instancer, Reason: "no simulation data for connected particles", Err: err}
	}
	return nil
}

func (b *Baker) query(instancer string, frame float64) (sim.FrameState, error) {
	fs, err := b.source.Query(instancer, frame)
	if err != nil {
		return sim.FrameState{}, fmt.Errorf("bake %s: frame %g: query: %w", instancer, frame, err)
	}
	return fs, nil
}

func (b *Baker) bakeFrame(st *bakeState, frame float64, log *slog.Logger) error {
	fs, err := b.query(st.instancer, frame)
	if err != nil {
		return err
	}

	live := make(map[int]bool, fs.Len())
	inert := 0
	for i, id := range fs.IDs {
		live[id] = true
		st.seen[id] = true
		sources := lo.Uniq(fs.SlotsOf(i))
		if len(sources) == 0 {
			inert++
			continue
		}
		if err := b.bakeParticle(st, frame, id, fs.Transform(i), sources); err != nil {
			return err
		}
	}

	died := 0
	for _, id := range st.prev {
		if live[id] {
			continue
		}
		group, ok := st.groups[id]
		if !ok {
			if group, ok = st.res.LookupParticleGroup(st.root, id); !ok {
				continue
			}
		}
		if err := b.scene.KeyVisibility(group, frame, false); err != nil {
			return &SceneGraphError{Op: "key visibility", Path: group, Frame: frame, Err: err}
		}
		died++
	}
	st.prev = append(st.prev[:0], fs.IDs...)

	log.Debug("frame baked", "frame", frame, "live", fs.Len(), "inert", inert, "died", died)
	return nil
}

func (b *Baker) bakeParticle(st *bakeState, frame float64, id int, t xform.Transform, sources []string) error {
	group, ok := st.groups[id]
	if !ok {
		var err error
		if group, err = st.res.ParticleGroup(st.root, id); err != nil {
			return &SceneGraphError{Op: "create particle group", Path: ParticleGroupName(id), Frame: frame, Err: err}
		}
		st.groups[id] = group
	}

	if err := b.scene.SetTransform(group, t); err != nil {
		return &SceneGraphError{Op: "set transform", Path: group, Frame: frame, Err: err}
	}
	if err := b.scene.SetVisible(group, true); err != nil {
		return &SceneGraphError{Op: "set visibility", Path: group, Frame: frame, Err: err}
	}
	if err := b.scene.KeyAll(group, frame); err != nil {
		return &SceneGraphError{Op: "key", Path: group, Frame: frame, Err: err}
	}

	// Hide the group before its first keyed frame.
	before, err := b.scene.VisibilityKeys(group, st.playStart, frame-1)
	if err != nil {
		return &SceneGraphError{Op: "query keys", Path: group, Frame: frame, Err: err}
	}
	if len(before) == 0 {
		if err := b.scene.KeyVisibility(group, frame-1, false); err != nil {
			return &SceneGraphError{Op: "key visibility", Path: group, Frame: frame - 1, Err: err}
		}
	}

	shown := make([]string, 0, len(sources))
	for _, src := range sources {
		inst, err := st.res.InstanceGroup(group, src)
		if err != nil {
			return &SceneGraphError{Op: "resolve instance of " + src, Path: group, Frame: frame, Err: err}
		}
		shown = append(shown, inst)
	}
	shown = lo.Uniq(shown)

	children, err := b.scene.Children(group, scene.NodeTransform)
	if err != nil {
		return &SceneGraphError{Op: "list children", Path: group, Frame: frame, Err: err}
	}
	for _, c := range lo.Without(children, shown...) {
		if err := b.scene.KeyVisibility(c, frame, false); err != nil {
			return &SceneGraphError{Op: "key visibility", Path: c, Frame: frame, Err: err}
		}
	}
	for _, c := range shown {
		if err := b.scene.KeyVisibility(c, frame, true); err != nil {
			return &SceneGraphError{Op: "key visibility", Path: c, Frame: frame, Err: err}
		}
	}
	return nil
}
