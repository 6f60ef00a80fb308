package bake

import (
	"github.com/chazu/instbake/pkg/scene"
	"github.com/chazu/instbake/pkg/sim"
	"github.com/chazu/instbake/pkg/xform"
)

// Scene is the host scene capability the baker drives. *scene.Scene
// implements it.
type Scene interface {
	Exists(path string) bool
	Kind(path string) (scene.NodeKind, error)
	CreateNode(kind scene.NodeKind, name, parent string) (string, error)
	Children(path string, kinds ...scene.NodeKind) ([]string, error)
	Instance(path string) (string, error)
	Parent(child, parent string) (string, error)
	AllPaths(path string) ([]string, error)
	InstanceNumber(path string) (int, error)

	SetTransform(path string, t xform.Transform) error
	SetVisible(path string, v bool) error
	KeyAll(path string, frame float64) error
	KeyVisibility(path string, frame float64, v bool) error
	VisibilityKeys(path string, from, to float64) ([]scene.Key[bool], error)

	PlaybackRange() (start, end float64)
	InputPoints(instancer string) (string, error)
	Ls(kind scene.NodeKind) []string
}

// Source reports an instancer's state at a frame. Implementations own any
// global time cursor the query needs. *sim.SceneSource implements it.
type Source interface {
	// Check reports an instancer the source cannot serve.
	Check(instancer string) error
	Query(instancer string, frame float64) (sim.FrameState, error)
}

var (
	_ Scene  = (*scene.Scene)(nil)
	_ Source = (*sim.SceneSource)(nil)
)
