package bake

import "github.com/chazu/instbake/pkg/scene"

// Instancers lists the names of all instancer nodes in sc, sorted.
func Instancers(sc Scene) []string {
	return sc.Ls(scene.NodeInstancer)
}
