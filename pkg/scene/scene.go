package scene

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/chazu/instbake/pkg/xform"
)

// Sentinel errors returned (wrapped) by Scene methods.
var (
	ErrNotFound     = errors.New("node not found")
	ErrAmbiguous    = errors.New("name matches more than one node")
	ErrExists       = errors.New("node already exists")
	ErrKind         = errors.New("wrong node kind")
	ErrCycle        = errors.New("parenting would create a cycle")
	ErrNoConnection = errors.New("no input points connected")
	ErrRange        = errors.New("invalid playback range")
)

// Separator joins DAG path components.
const Separator = "|"

// Default playback range of a new scene.
const (
	DefaultPlaybackStart = 1
	DefaultPlaybackEnd   = 24
)

// Scene is a mutable in-memory scene graph. All methods are safe for
// concurrent use, but the time cursor is shared: callers that evaluate
// time-dependent state must serialize around SetCurrentTime themselves.
type Scene struct {
	mu        sync.RWMutex
	nodes     map[NodeID]*Node
	world     *Node
	current   float64
	playStart float64
	playEnd   float64
}

// New creates an empty scene with the default playback range and the time
// cursor at its start.
func New() *Scene {
	world := newNode(NodeTransform, "")
	return &Scene{
		nodes:     map[NodeID]*Node{world.ID: world},
		world:     world,
		current:   DefaultPlaybackStart,
		playStart: DefaultPlaybackStart,
		playEnd:   DefaultPlaybackEnd,
	}
}

// ---------------------------------------------------------------------------
// Time
// ---------------------------------------------------------------------------

// CurrentTime returns the time cursor.
func (s *Scene) CurrentTime() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrentTime moves the time cursor.
func (s *Scene) SetCurrentTime(frame float64) {
	s.mu.Lock()
	s.current = frame
	s.mu.Unlock()
}

// PlaybackRange returns the inclusive playback range.
func (s *Scene) PlaybackRange() (start, end float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playStart, s.playEnd
}

// SetPlaybackRange sets the inclusive playback range.
func (s *Scene) SetPlaybackRange(start, end float64) error {
	if start > end {
		return fmt.Errorf("scene: %w: start %g > end %g", ErrRange, start, end)
	}
	s.mu.Lock()
	s.playStart, s.playEnd = start, end
	s.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// Path resolution
// ---------------------------------------------------------------------------

// resolve returns the chain of nodes from the world's child down to the node
// addressed by path. Full paths start with the separator; a bare name
// resolves when exactly one node carries it.
func (s *Scene) resolve(path string) ([]*Node, error) {
	if path == "" || path == Separator {
		return nil, fmt.Errorf("scene: empty path: %w", ErrNotFound)
	}
	if !strings.HasPrefix(path, Separator) {
		return s.resolveName(path)
	}
	parts := strings.Split(path[1:], Separator)
	chain := make([]*Node, 0, len(parts))
	cur := s.world
	for _, name := range parts {
		next := s.childNamed(cur, name)
		if next == nil {
			return nil, fmt.Errorf("scene: %q: %w", path, ErrNotFound)
		}
		chain = append(chain, next)
		cur = next
	}
	return chain, nil
}

func (s *Scene) resolveName(name string) ([]*Node, error) {
	if strings.Contains(name, Separator) {
		return nil, fmt.Errorf("scene: relative path %q: %w", name, ErrNotFound)
	}
	var found *Node
	for _, n := range s.nodes {
		if n != s.world && n.Name == name {
			if found != nil {
				return nil, fmt.Errorf("scene: %q: %w", name, ErrAmbiguous)
			}
			found = n
		}
	}
	if found == nil {
		return nil, fmt.Errorf("scene: %q: %w", name, ErrNotFound)
	}
	return s.resolve(s.pathsOf(found)[0])
}

func (s *Scene) node(path string) (*Node, error) {
	chain, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return chain[len(chain)-1], nil
}

// fullPath normalizes path to the full path it resolved through.
func fullPath(chain []*Node) string {
	var b strings.Builder
	for _, n := range chain {
		b.WriteString(Separator)
		b.WriteString(n.Name)
	}
	return b.String()
}

func (s *Scene) childNamed(parent *Node, name string) *Node {
	for _, cid := range parent.Children {
		if c := s.nodes[cid]; c != nil && c.Name == name {
			return c
		}
	}
	return nil
}

// pathsOf enumerates every full path to n in parent order.
func (s *Scene) pathsOf(n *Node) []string {
	if n == s.world {
		return []string{""}
	}
	var out []string
	for _, pid := range n.Parents {
		p := s.nodes[pid]
		if p == nil {
			continue
		}
		for _, pp := range s.pathsOf(p) {
			out = append(out, pp+Separator+n.Name)
		}
	}
	return out
}

// uniqueName returns name, or name with the lowest numeric suffix that does
// not collide with an existing child of parent.
func (s *Scene) uniqueName(parent *Node, name string) string {
	if s.childNamed(parent, name) == nil {
		return name
	}
	base := strings.TrimRight(name, "0123456789")
	for i := 1; ; i++ {
		cand := base + strconv.Itoa(i)
		if s.childNamed(parent, cand) == nil {
			return cand
		}
	}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Exists reports whether path resolves to a node.
func (s *Scene) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := s.resolve(path)
	return err == nil
}

// Kind returns the kind of the node at path.
func (s *Scene) Kind(path string) (NodeKind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.node(path)
	if err != nil {
		return 0, err
	}
	return n.Kind, nil
}

// Get returns a copy of the node at path.
func (s *Scene) Get(path string) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.node(path)
	if err != nil {
		return Node{}, err
	}
	return *n, nil
}

// Children returns the full paths of the children of path, optionally
// filtered to the given kinds.
func (s *Scene) Children(path string, kinds ...NodeKind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	prefix := fullPath(chain)
	n := chain[len(chain)-1]
	var out []string
	for _, cid := range n.Children {
		c := s.nodes[cid]
		if c == nil {
			continue
		}
		if len(kinds) > 0 && !lo.Contains(kinds, c.Kind) {
			continue
		}
		out = append(out, prefix+Separator+c.Name)
	}
	return out, nil
}

// AllPaths returns every full path to the node addressed by path.
func (s *Scene) AllPaths(path string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.node(path)
	if err != nil {
		return nil, err
	}
	return s.pathsOf(n), nil
}

// InstanceNumber returns the index of path within AllPaths of its node.
func (s *Scene) InstanceNumber(path string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	full := fullPath(chain)
	paths := s.pathsOf(chain[len(chain)-1])
	for i, p := range paths {
		if p == full {
			return i, nil
		}
	}
	return 0, fmt.Errorf("scene: %q: %w", path, ErrNotFound)
}

// Ls returns the names of all nodes of the given kind, sorted.
func (s *Scene) Ls(kind NodeKind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for _, n := range s.nodes {
		if n != s.world && n.Kind == kind {
			names = append(names, n.Name)
		}
	}
	sort.Strings(names)
	return names
}

// NodeCount returns the number of nodes, excluding the world.
func (s *Scene) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes) - 1
}

// ---------------------------------------------------------------------------
// Structure edits
// ---------------------------------------------------------------------------

// CreateNode creates a node of the given kind named name under parent and
// returns its full path. An empty parent, or a name starting with the
// separator, creates the node at the top level. Name collisions among
// siblings are resolved with a numeric suffix.
func (s *Scene) CreateNode(kind NodeKind, name, parent string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.HasPrefix(name, Separator) {
		name = strings.TrimPrefix(name, Separator)
		parent = ""
	}
	if name == "" {
		name = kind.String() + "1"
	}
	if strings.Contains(name, Separator) {
		return "", fmt.Errorf("scene: invalid node name %q", name)
	}

	p := s.world
	prefix := ""
	if parent != "" {
		chain, err := s.resolve(parent)
		if err != nil {
			return "", err
		}
		p = chain[len(chain)-1]
		prefix = fullPath(chain)
		if p.Kind != NodeTransform {
			return "", fmt.Errorf("scene: parent %q is a %s: %w", parent, p.Kind, ErrKind)
		}
	}

	n := newNode(kind, s.uniqueName(p, name))
	s.attach(p, n)
	return prefix + Separator + n.Name, nil
}

func (s *Scene) attach(parent, child *Node) {
	s.nodes[child.ID] = child
	child.Parents = append(child.Parents, parent.ID)
	parent.Children = append(parent.Children, child.ID)
}

// Instance creates a new top-level transform that shares the geometry of
// the node at path and returns its full path. For a transform the new node
// copies its local transform and shares all its children; for a shape the
// new node holds the shape itself.
func (s *Scene) Instance(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	src := chain[len(chain)-1]

	var dup *Node
	switch src.Kind {
	case NodeTransform:
		dup = newNode(NodeTransform, s.uniqueName(s.world, src.Name))
		dup.Transform = src.Transform
		s.attach(s.world, dup)
		for _, cid := range src.Children {
			c := s.nodes[cid]
			c.Parents = append(c.Parents, dup.ID)
			dup.Children = append(dup.Children, cid)
		}
	case NodeShape:
		name := src.Name
		if len(chain) > 1 {
			name = chain[len(chain)-2].Name
		}
		dup = newNode(NodeTransform, s.uniqueName(s.world, name))
		s.attach(s.world, dup)
		src.Parents = append(src.Parents, dup.ID)
		dup.Children = append(dup.Children, src.ID)
	default:
		return "", fmt.Errorf("scene: cannot instance %s %q: %w", src.Kind, path, ErrKind)
	}
	return Separator + dup.Name, nil
}

// Parent moves the node at child (through that specific path) under parent,
// keeping its local transform, and returns its new full path.
func (s *Scene) Parent(child, parent string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cchain, err := s.resolve(child)
	if err != nil {
		return "", err
	}
	pchain, err := s.resolve(parent)
	if err != nil {
		return "", err
	}
	c := cchain[len(cchain)-1]
	oldParent := s.world
	if len(cchain) > 1 {
		oldParent = cchain[len(cchain)-2]
	}
	np := pchain[len(pchain)-1]

	if np.Kind != NodeTransform {
		return "", fmt.Errorf("scene: parent %q is a %s: %w", parent, np.Kind, ErrKind)
	}
	if np == oldParent {
		return fullPath(pchain) + Separator + c.Name, nil
	}
	if c.hasParent(np.ID) {
		return "", fmt.Errorf("scene: %q already under %q: %w", child, parent, ErrExists)
	}
	if s.isAncestor(c, np) {
		return "", fmt.Errorf("scene: %q under %q: %w", child, parent, ErrCycle)
	}

	if s.childNamed(np, c.Name) != nil {
		c.Name = s.uniqueName(np, c.Name)
	}
	oldParent.Children = removeID(oldParent.Children, c.ID)
	for i, pid := range c.Parents {
		if pid == oldParent.ID {
			c.Parents[i] = np.ID
			break
		}
	}
	np.Children = append(np.Children, c.ID)
	return fullPath(pchain) + Separator + c.Name, nil
}

// isAncestor reports whether a is n or one of n's ancestors.
func (s *Scene) isAncestor(a, n *Node) bool {
	if a == n {
		return true
	}
	for _, pid := range n.Parents {
		if p := s.nodes[pid]; p != nil && s.isAncestor(a, p) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Instancer connections
// ---------------------------------------------------------------------------

// Connect feeds the particle node at particles into the instancer.
func (s *Scene) Connect(instancer, particles string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, err := s.nodeOfKind(instancer, NodeInstancer)
	if err != nil {
		return err
	}
	p, err := s.nodeOfKind(particles, NodeParticles)
	if err != nil {
		return err
	}
	inst.InputPoints = p.ID
	return nil
}

// InputPoints returns the path of the particle node feeding instancer.
func (s *Scene) InputPoints(instancer string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, err := s.nodeOfKind(instancer, NodeInstancer)
	if err != nil {
		return "", err
	}
	p := s.nodes[inst.InputPoints]
	if inst.InputPoints.IsZero() || p == nil {
		return "", fmt.Errorf("scene: %q: %w", instancer, ErrNoConnection)
	}
	return s.pathsOf(p)[0], nil
}

// SetObjects sets the instanced object list of instancer. Object indices
// reported by particles refer to positions in this list.
func (s *Scene) SetObjects(instancer string, objects []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, err := s.nodeOfKind(instancer, NodeInstancer)
	if err != nil {
		return err
	}
	ids := make([]NodeID, 0, len(objects))
	for _, o := range objects {
		n, err := s.node(o)
		if err != nil {
			return err
		}
		ids = append(ids, n.ID)
	}
	inst.Objects = ids
	return nil
}

// Objects returns the full paths of the objects instanced by instancer.
func (s *Scene) Objects(instancer string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, err := s.nodeOfKind(instancer, NodeInstancer)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(inst.Objects))
	for _, id := range inst.Objects {
		n := s.nodes[id]
		if n == nil {
			return nil, fmt.Errorf("scene: %q object %s: %w", instancer, id.Short(), ErrNotFound)
		}
		out = append(out, s.pathsOf(n)[0])
	}
	return out, nil
}

func (s *Scene) nodeOfKind(path string, kind NodeKind) (*Node, error) {
	n, err := s.node(path)
	if err != nil {
		return nil, err
	}
	if n.Kind != kind {
		return nil, fmt.Errorf("scene: %q is a %s, not a %s: %w", path, n.Kind, kind, ErrKind)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Attributes and keyframes
// ---------------------------------------------------------------------------

// SetTransform sets the local transform attribute.
func (s *Scene) SetTransform(path string, t xform.Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(path)
	if err != nil {
		return err
	}
	n.Transform = t
	return nil
}

// SetVisible sets the visibility attribute.
func (s *Scene) SetVisible(path string, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(path)
	if err != nil {
		return err
	}
	n.Visible = v
	return nil
}

// KeyAll keys the current transform and visibility attributes at frame.
func (s *Scene) KeyAll(path string, frame float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(path)
	if err != nil {
		return err
	}
	n.XformKeys.Set(frame, n.Transform)
	n.VisKeys.Set(frame, n.Visible)
	return nil
}

// KeyVisibility sets a visibility key with value v at frame.
func (s *Scene) KeyVisibility(path string, frame float64, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(path)
	if err != nil {
		return err
	}
	n.VisKeys.Set(frame, v)
	return nil
}

// KeyTransform sets a transform key with value t at frame.
func (s *Scene) KeyTransform(path string, frame float64, t xform.Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(path)
	if err != nil {
		return err
	}
	n.XformKeys.Set(frame, t)
	return nil
}

// VisibilityKeys returns the visibility keys with from <= frame <= to.
func (s *Scene) VisibilityKeys(path string, from, to float64) ([]Key[bool], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.node(path)
	if err != nil {
		return nil, err
	}
	return n.VisKeys.InRange(from, to), nil
}

// TransformKeys returns the transform keys with from <= frame <= to.
func (s *Scene) TransformKeys(path string, from, to float64) ([]Key[xform.Transform], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.node(path)
	if err != nil {
		return nil, err
	}
	return n.XformKeys.InRange(from, to), nil
}

// VisibilityAt evaluates visibility at frame, falling back to the static
// attribute when the node has no keys.
func (s *Scene) VisibilityAt(path string, frame float64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.node(path)
	if err != nil {
		return false, err
	}
	if v, ok := n.VisKeys.At(frame); ok {
		return v, nil
	}
	return n.Visible, nil
}

// TransformAt evaluates the local transform at frame, falling back to the
// static attribute when the node has no keys.
func (s *Scene) TransformAt(path string, frame float64) (xform.Transform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.node(path)
	if err != nil {
		return xform.Transform{}, err
	}
	if t, ok := n.XformKeys.At(frame); ok {
		return t, nil
	}
	return n.Transform, nil
}
