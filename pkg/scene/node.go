package scene

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/instbake/pkg/xform"
)

// NodeID uniquely identifies a node for the lifetime of a scene.
type NodeID string

// ZeroID is the zero NodeID.
const ZeroID NodeID = ""

// NewNodeID returns a fresh random NodeID.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// IsZero reports whether id is the zero value.
func (id NodeID) IsZero() bool { return id == ZeroID }

// Short returns the first 8 characters of the ID for display.
func (id NodeID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// NodeKind enumerates the node types a scene can hold.
type NodeKind int

const (
	NodeTransform NodeKind = iota // container with a local transform
	NodeShape                     // leaf geometry, instanceable
	NodeInstancer                 // fans shapes across particles
	NodeParticles                 // particle system node
)

func (k NodeKind) String() string {
	switch k {
	case NodeTransform:
		return "transform"
	case NodeShape:
		return "shape"
	case NodeInstancer:
		return "instancer"
	case NodeParticles:
		return "particles"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is one element of the scene DAG.
type Node struct {
	ID        NodeID          `json:"id"`
	Kind      NodeKind        `json:"kind"`
	Name      string          `json:"name"`
	Parents   []NodeID        `json:"parents,omitempty"`
	Children  []NodeID        `json:"children,omitempty"`
	Visible   bool            `json:"visible"`
	Transform xform.Transform `json:"transform"`

	// Instancer connections. Only meaningful for NodeInstancer.
	InputPoints NodeID   `json:"input_points,omitempty"`
	Objects     []NodeID `json:"objects,omitempty"`

	VisKeys   Curve[bool]            `json:"vis_keys"`
	XformKeys Curve[xform.Transform] `json:"xform_keys"`
}

func newNode(kind NodeKind, name string) *Node {
	return &Node{
		ID:        NewNodeID(),
		Kind:      kind,
		Name:      name,
		Visible:   true,
		Transform: xform.Identity(),
	}
}

func (n *Node) hasParent(id NodeID) bool {
	for _, p := range n.Parents {
		if p == id {
			return true
		}
	}
	return false
}

func removeID(ids []NodeID, id NodeID) []NodeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
