package sim

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/instbake/pkg/scene"
)

// ErrNoSystem is returned when an instancer's input points have no
// registered particle system.
var ErrNoSystem = errors.New("no particle system for input points")

// SceneSource answers instancer queries against a scene. It owns the
// scene's time cursor: every query moves it to the requested frame before
// evaluating.
type SceneSource struct {
	scene   *scene.Scene
	systems map[string]*System
}

// NewSceneSource returns a source over sc serving the given systems.
func NewSceneSource(sc *scene.Scene, systems ...*System) *SceneSource {
	src := &SceneSource{scene: sc, systems: make(map[string]*System, len(systems))}
	for _, s := range systems {
		src.systems[s.Name] = s
	}
	return src
}

// Register adds or replaces a system.
func (src *SceneSource) Register(s *System) {
	src.systems[s.Name] = s
}

// Check reports whether instancer has input points served by a
// registered system. It does not move the time cursor.
func (src *SceneSource) Check(instancer string) error {
	_, err := src.system(instancer)
	return err
}

// Query moves the time cursor to frame and returns the state of the
// particle system feeding instancer.
func (src *SceneSource) Query(instancer string, frame float64) (FrameState, error) {
	src.scene.SetCurrentTime(frame)

	sys, err := src.system(instancer)
	if err != nil {
		return FrameState{}, err
	}
	objects, err := src.scene.Objects(instancer)
	if err != nil {
		return FrameState{}, err
	}
	return sys.State(frame, objects)
}

func (src *SceneSource) system(instancer string) (*System, error) {
	pts, err := src.scene.InputPoints(instancer)
	if err != nil {
		return nil, err
	}
	name := pts[strings.LastIndex(pts, scene.Separator)+1:]
	sys, ok := src.systems[name]
	if !ok {
		return nil, fmt.Errorf("sim: %q: %w", name, ErrNoSystem)
	}
	return sys, nil
}
