package scene

import "fmt"

// ValidationError describes a single structural problem in a scene.
type ValidationError struct {
	NodeID  NodeID // zero for scene-level findings
	Message string
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return e.Message
	}
	return fmt.Sprintf("node %s: %s", e.NodeID.Short(), e.Message)
}

// Validate runs read-only structural checks and returns every finding. An
// empty slice means the scene is consistent.
func Validate(s *Scene) []ValidationError {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var errs []ValidationError
	errs = append(errs, validateLinks(s)...)
	errs = append(errs, validateDAG(s)...)
	errs = append(errs, validateSiblingNames(s)...)
	errs = append(errs, validateCurves(s)...)
	errs = append(errs, validateConnections(s)...)
	return errs
}

// validateLinks checks that parent and child edges exist and mirror each
// other, and that every node other than the world has a parent.
func validateLinks(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, n := range s.nodes {
		if n != s.world && len(n.Parents) == 0 {
			errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf("%q has no parent", n.Name)})
		}
		for _, cid := range n.Children {
			c, ok := s.nodes[cid]
			if !ok {
				errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf("child reference %s does not exist", cid.Short())})
				continue
			}
			if !c.hasParent(n.ID) {
				errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf("child %q does not list it as parent", c.Name)})
			}
		}
		for _, pid := range n.Parents {
			p, ok := s.nodes[pid]
			if !ok {
				errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf("parent reference %s does not exist", pid.Short())})
				continue
			}
			found := false
			for _, cid := range p.Children {
				if cid == n.ID {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf("parent %q does not list it as child", p.Name)})
			}
		}
	}
	return errs
}

// validateDAG checks for cycles using DFS with 3-color marking.
func validateDAG(s *Scene) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{NodeID: id, Message: "cycle detected"})
			return true
		}
		color[id] = gray
		if n, ok := s.nodes[id]; ok {
			for _, cid := range n.Children {
				if visit(cid) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for id := range s.nodes {
		if color[id] == white && visit(id) {
			break
		}
	}
	return errs
}

// validateSiblingNames checks that no two children of a node share a name,
// which would make their paths ambiguous.
func validateSiblingNames(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, n := range s.nodes {
		seen := make(map[string]bool, len(n.Children))
		for _, cid := range n.Children {
			c := s.nodes[cid]
			if c == nil {
				continue
			}
			if seen[c.Name] {
				errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf("duplicate child name %q", c.Name)})
			}
			seen[c.Name] = true
		}
	}
	return errs
}

// validateCurves checks that keys are strictly increasing in frame.
func validateCurves(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, n := range s.nodes {
		for i := 1; i < len(n.VisKeys.Keys); i++ {
			if n.VisKeys.Keys[i].Frame <= n.VisKeys.Keys[i-1].Frame {
				errs = append(errs, ValidationError{NodeID: n.ID, Message: "visibility keys out of order"})
				break
			}
		}
		for i := 1; i < len(n.XformKeys.Keys); i++ {
			if n.XformKeys.Keys[i].Frame <= n.XformKeys.Keys[i-1].Frame {
				errs = append(errs, ValidationError{NodeID: n.ID, Message: "transform keys out of order"})
				break
			}
		}
	}
	return errs
}

// validateConnections checks instancer inputs and object references.
func validateConnections(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, n := range s.nodes {
		if n.Kind != NodeInstancer {
			continue
		}
		if !n.InputPoints.IsZero() {
			p, ok := s.nodes[n.InputPoints]
			if !ok {
				errs = append(errs, ValidationError{NodeID: n.ID, Message: "input points reference does not exist"})
			} else if p.Kind != NodeParticles {
				errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf("input points %q is a %s", p.Name, p.Kind)})
			}
		}
		for _, oid := range n.Objects {
			if _, ok := s.nodes[oid]; !ok {
				errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf("object reference %s does not exist", oid.Short())})
			}
		}
	}
	return errs
}
