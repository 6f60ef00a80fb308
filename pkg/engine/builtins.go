package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/instbake/pkg/scene"
	"github.com/chazu/instbake/pkg/sim"
	"github.com/chazu/instbake/pkg/xform"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps an xform.Vec3.
type sexpVec3 struct {
	vec xform.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpParticles carries one or more particles from `particle` or `emit`
// to `particles`.
type sexpParticles struct {
	ps []sim.Particle
}

func (p *sexpParticles) SexpString(ps *zygo.PrintState) string {
	if len(p.ps) == 1 {
		return fmt.Sprintf("(particle %d)", p.ps[0].ID)
	}
	return fmt.Sprintf("(particles x%d)", len(p.ps))
}
func (p *sexpParticles) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a scene path.
type sexpNodeRef struct {
	path string
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(noderef %q)", n.path)
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		return v.S, nil
	case *sexpNodeRef:
		return v.path, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (xform.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return xform.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func toInts(s zygo.Sexp) ([]int, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(items))
	for _, it := range items {
		n, err := toInt(it)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func toStrings(s zygo.Sexp) ([]string, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		str, err := toString(it)
		if err != nil {
			return nil, err
		}
		out = append(out, str)
	}
	return out, nil
}

// floatKW reads an optional numeric keyword into dst.
func floatKW(pa kwArgs, fn, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = f
	return nil
}

// vecKW reads an optional vec3 keyword into dst.
func vecKW(pa kwArgs, fn, key string, dst *xform.Vec3) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = vec
	return nil
}

// particleKW fills the motion and instancing fields shared by `particle`
// and `emit`.
func particleKW(pa kwArgs, fn string, p *sim.Particle) error {
	if err := floatKW(pa, fn, "born", &p.Born); err != nil {
		return err
	}
	if err := floatKW(pa, fn, "dies", &p.Dies); err != nil {
		return err
	}
	for key, dst := range map[string]*xform.Vec3{
		"at": &p.At, "velocity": &p.Velocity, "spin": &p.Spin, "scale": &p.Scale,
	} {
		if err := vecKW(pa, fn, key, dst); err != nil {
			return err
		}
	}
	if v, ok := pa.kw["objects"]; ok {
		objs, err := toInts(v)
		if err != nil {
			return fmt.Errorf("%s: objects: %w", fn, err)
		}
		p.Objects = objs
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene script builtins. They populate setup
// during evaluation. Source must be preprocessed with preprocessSource.
func registerBuiltins(env *zygo.Zlisp, setup *Setup) {
	sc := setup.Scene

	// -----------------------------------------------------------------------
	// (vec3 x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: xform.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (playback :start 1 :end 24)
	// -----------------------------------------------------------------------
	env.AddFunction("playback", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		start, end := sc.PlaybackRange()
		if err := floatKW(pa, "playback", "start", &start); err != nil {
			return zygo.SexpNull, err
		}
		if err := floatKW(pa, "playback", "end", &end); err != nil {
			return zygo.SexpNull, err
		}
		if err := sc.SetPlaybackRange(start, end); err != nil {
			return zygo.SexpNull, fmt.Errorf("playback: %w", err)
		}
		sc.SetCurrentTime(start)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (shape "pCube1" :at (vec3 0 0 0)) creates |pCube1|pCube1Shape
	// -----------------------------------------------------------------------
	env.AddFunction("shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("shape requires a name argument")
		}
		shapeName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: name: %w", err)
		}
		path, err := sc.CreateNode(scene.NodeTransform, shapeName, "")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: %w", err)
		}
		leaf := path[strings.LastIndex(path, scene.Separator)+1:]
		if _, err := sc.CreateNode(scene.NodeShape, leaf+"Shape", path); err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: %w", err)
		}
		var at xform.Vec3
		if err := vecKW(pa, "shape", "at", &at); err != nil {
			return zygo.SexpNull, err
		}
		if err := sc.SetTransform(path, xform.Translation(at)); err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: %w", err)
		}
		return &sexpNodeRef{path: path}, nil
	})

	// -----------------------------------------------------------------------
	// (particle 42 :born 2 :dies 5 :at (vec3 0 0 0) :velocity (vec3 0 1 0)
	//            :spin (vec3 0 90 0) :scale (vec3 1 1 1) :objects [0])
	// -----------------------------------------------------------------------
	env.AddFunction("particle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("particle requires an id argument")
		}
		id, err := toInt(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("particle: id: %w", err)
		}
		p := sim.Particle{ID: id}
		if err := particleKW(pa, "particle", &p); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpParticles{ps: []sim.Particle{p}}, nil
	})

	// -----------------------------------------------------------------------
	// (emit :first-id 100 :count 10 :born 1 :every 2 :life 6 ...) emits
	// count particles with consecutive ids, one every `every` frames, each
	// living `life` frames (forever when omitted).
	// -----------------------------------------------------------------------
	env.AddFunction("emit", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var firstID, count, every, life float64 = 0, 1, 1, 0
		for key, dst := range map[string]*float64{
			"first-id": &firstID, "count": &count, "every": &every, "life": &life,
		} {
			if err := floatKW(pa, "emit", key, dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if count < 0 || every <= 0 || life < 0 {
			return zygo.SexpNull, fmt.Errorf("emit: count, every and life must be positive")
		}
		var base sim.Particle
		if err := particleKW(pa, "emit", &base); err != nil {
			return zygo.SexpNull, err
		}
		out := make([]sim.Particle, 0, int(count))
		for i := 0; i < int(count); i++ {
			p := base
			p.ID = int(firstID) + i
			p.Born = base.Born + float64(i)*every
			if life > 0 {
				p.Dies = p.Born + life
			}
			out = append(out, p)
		}
		return &sexpParticles{ps: out}, nil
	})

	// -----------------------------------------------------------------------
	// (particles "nParticle1" (particle ...) (emit ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("particles", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("particles requires a name argument")
		}
		sysName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("particles: name: %w", err)
		}
		if setup.System(sysName) != nil {
			return zygo.SexpNull, fmt.Errorf("particles: %q already defined", sysName)
		}
		// Systems are looked up by their node's name, so it must not be
		// suffixed on creation.
		if sc.Exists(scene.Separator + sysName) {
			return zygo.SexpNull, fmt.Errorf("particles: name %q is taken: %w", sysName, scene.ErrExists)
		}
		sys := sim.NewSystem(sysName)
		for i := 1; i < len(args); i++ {
			ps, ok := args[i].(*sexpParticles)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("particles: entry %d: expected particle, got %T (%s)",
					i, args[i], args[i].SexpString(nil))
			}
			for _, p := range ps.ps {
				if err := sys.Add(p); err != nil {
					return zygo.SexpNull, fmt.Errorf("particles: %w", err)
				}
			}
		}
		path, err := sc.CreateNode(scene.NodeParticles, sysName, "")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("particles: %w", err)
		}
		setup.Systems = append(setup.Systems, sys)
		return &sexpNodeRef{path: path}, nil
	})

	// -----------------------------------------------------------------------
	// (instancer "instancer1" :particles "nParticle1" :objects ["|pCube1"])
	// -----------------------------------------------------------------------
	env.AddFunction("instancer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("instancer requires a name argument")
		}
		instName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("instancer: name: %w", err)
		}
		path, err := sc.CreateNode(scene.NodeInstancer, instName, "")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("instancer: %w", err)
		}
		if v, ok := pa.kw["objects"]; ok {
			objs, err := toStrings(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("instancer: objects: %w", err)
			}
			if err := sc.SetObjects(path, objs); err != nil {
				return zygo.SexpNull, fmt.Errorf("instancer: objects: %w", err)
			}
		}
		if v, ok := pa.kw["particles"]; ok {
			pts, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("instancer: particles: %w", err)
			}
			if err := sc.Connect(path, pts); err != nil {
				return zygo.SexpNull, fmt.Errorf("instancer: particles: %w", err)
			}
		}
		return &sexpNodeRef{path: path}, nil
	})
}
