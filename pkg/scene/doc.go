// Package scene implements an in-memory host scene graph: a DAG of named
// transform, shape, instancer and particle nodes with attributes, stepped
// keyframe curves, a playback range and a global time cursor.
//
// Nodes are addressed by full DAG paths ("|parent|child"). A node with more
// than one parent is instanced and is reachable through several paths; its
// instance number is the index of a path in AllPaths.
package scene
