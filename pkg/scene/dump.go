package scene

import (
	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/instbake/pkg/xform"
)

// DumpNode is a JSON-friendly snapshot of a subtree.
type DumpNode struct {
	Name       string                 `json:"name"`
	Path       string                 `json:"path"`
	Kind       string                 `json:"kind"`
	Instance   int                    `json:"instance"`
	Transform  xform.Transform        `json:"transform"`
	Position   xform.Vec3             `json:"position"`
	Visibility []Key[bool]            `json:"visibility,omitempty"`
	Keys       []Key[xform.Transform] `json:"transform_keys,omitempty"`
	Children   []*DumpNode            `json:"children,omitempty"`
}

// Dump snapshots the subtree rooted at path. Positions are world-space
// origins through the dumped path, using current local transforms.
func (s *Scene) Dump(path string) (*DumpNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	locals := make([]xform.Transform, 0, len(chain))
	for _, n := range chain {
		locals = append(locals, n.Transform)
	}
	return s.dump(fullPath(chain), chain[len(chain)-1], xform.World(locals...)), nil
}

func (s *Scene) dump(path string, n *Node, world sdf.M44) *DumpNode {
	d := &DumpNode{
		Name:       n.Name,
		Path:       path,
		Kind:       n.Kind.String(),
		Transform:  n.Transform,
		Position:   xform.Origin(world),
		Visibility: append([]Key[bool](nil), n.VisKeys.Keys...),
		Keys:       append([]Key[xform.Transform](nil), n.XformKeys.Keys...),
	}
	for i, p := range s.pathsOf(n) {
		if p == path {
			d.Instance = i
		}
	}
	for _, cid := range n.Children {
		if c := s.nodes[cid]; c != nil {
			d.Children = append(d.Children, s.dump(path+Separator+c.Name, c, world.Mul(c.Transform.Matrix())))
		}
	}
	return d
}
