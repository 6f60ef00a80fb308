package bake

import (
	"fmt"
	"strings"

	"github.com/chazu/instbake/pkg/scene"
)

// BakeRootName returns the name of the container that holds an instancer's
// baked hierarchy.
func BakeRootName(instancer string) string {
	return leafName(instancer) + "_bakedGrp"
}

// ParticleGroupName returns the name of the group that holds one particle.
func ParticleGroupName(id int) string {
	return fmt.Sprintf("particle_%d_Grp", id)
}

type instanceKey struct {
	group, source string
}

// Resolver maps simulation identities to persistent scene nodes, creating
// them on demand. Instance groups are identified structurally and cached
// for the lifetime of the resolver, which is one bake.
type Resolver struct {
	scene     Scene
	instances map[instanceKey]string

	// Created counts the nodes this resolver created.
	Created int
}

// NewResolver returns a resolver with an empty cache.
func NewResolver(sc Scene) *Resolver {
	return &Resolver{scene: sc, instances: make(map[instanceKey]string)}
}

// BakeRoot returns the top-level bake container for instancer. If the name
// is missing or taken by something other than a transform, a new container
// is created; the scene may then give it a suffixed name.
func (r *Resolver) BakeRoot(instancer string) (string, error) {
	path := scene.Separator + BakeRootName(instancer)
	if r.isTransform(path) {
		return path, nil
	}
	created, err := r.scene.CreateNode(scene.NodeTransform, path, "")
	if err != nil {
		return "", err
	}
	r.Created++
	return created, nil
}

// ParticleGroup returns the group for particle id under root, creating it
// when absent.
func (r *Resolver) ParticleGroup(root string, id int) (string, error) {
	if path, ok := r.LookupParticleGroup(root, id); ok {
		return path, nil
	}
	created, err := r.scene.CreateNode(scene.NodeTransform, ParticleGroupName(id), root)
	if err != nil {
		return "", err
	}
	r.Created++
	return created, nil
}

// LookupParticleGroup returns the existing group for particle id under
// root without creating one.
func (r *Resolver) LookupParticleGroup(root string, id int) (string, bool) {
	path := root + scene.Separator + ParticleGroupName(id)
	return path, r.isTransform(path)
}

// InstanceGroup returns the child of group that instances source, creating
// an instance of source under group when none exists. A child matches when
// one of its shapes is one of source's shapes reached through another path:
// its instance number indexes that path in the shape's path list.
func (r *Resolver) InstanceGroup(group, source string) (string, error) {
	key := instanceKey{group: group, source: source}
	if path, ok := r.instances[key]; ok {
		return path, nil
	}

	path, found, err := r.findInstance(group, source)
	if err != nil {
		return "", err
	}
	if !found {
		dup, err := r.scene.Instance(source)
		if err != nil {
			return "", err
		}
		if path, err = r.scene.Parent(dup, group); err != nil {
			return "", err
		}
		r.Created++
	}
	r.instances[key] = path
	return path, nil
}

func (r *Resolver) findInstance(group, source string) (string, bool, error) {
	sources, err := r.shapesOf(source)
	if err != nil {
		return "", false, err
	}
	if len(sources) == 0 {
		return "", false, nil
	}
	allPaths := make([][]string, len(sources))
	for i, s := range sources {
		if allPaths[i], err = r.scene.AllPaths(s); err != nil {
			return "", false, err
		}
	}

	children, err := r.scene.Children(group, scene.NodeTransform)
	if err != nil {
		return "", false, err
	}
	for _, c := range children {
		shapes, err := r.scene.Children(c, scene.NodeShape)
		if err != nil {
			return "", false, err
		}
		for _, s := range shapes {
			n, err := r.scene.InstanceNumber(s)
			if err != nil {
				return "", false, err
			}
			for _, paths := range allPaths {
				if n < len(paths) && paths[n] == s {
					return c, true, nil
				}
			}
		}
	}
	return "", false, nil
}

// shapesOf returns source itself when it is a shape, otherwise its shape
// children.
func (r *Resolver) shapesOf(source string) ([]string, error) {
	kind, err := r.scene.Kind(source)
	if err != nil {
		return nil, err
	}
	if kind == scene.NodeShape {
		return []string{source}, nil
	}
	return r.scene.Children(source, scene.NodeShape)
}

func (r *Resolver) isTransform(path string) bool {
	if !r.scene.Exists(path) {
		return false
	}
	kind, err := r.scene.Kind(path)
	return err == nil && kind == scene.NodeTransform
}

func leafName(path string) string {
	return path[strings.LastIndex(path, scene.Separator)+1:]
}
