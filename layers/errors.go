// Package layers implements the vertex-color layer model: a schema
// driven store over mesh color sets, the preview compositor and the
// authoring operations (fills, merges, bakes, layer sets).
package layers

import "fmt"

// MissingLayerError reports a layer whose backing color set does not
// exist on a mesh.
type MissingLayerError struct {
	Mesh  string
	Layer string
}

func (e *MissingLayerError) Error() string {
	return fmt.Sprintf("mesh %q has no color set for layer %q", e.Mesh, e.Layer)
}

// LengthMismatchError reports a color array whose length disagrees
// with the mesh face-vertex count or selection size.
type LengthMismatchError struct {
	Mesh  string
	Layer string
	Got   int
	Want  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("mesh %q layer %q: got %d colors, want %d", e.Mesh, e.Layer, e.Got, e.Want)
}

// InvalidBlendModeError reports a blend mode outside the supported
// set.
type InvalidBlendModeError struct {
	Mesh  string
	Layer string
	Mode  int
}

func (e *InvalidBlendModeError) Error() string {
	return fmt.Sprintf("mesh %q layer %q has invalid blend mode %d", e.Mesh, e.Layer, e.Mode)
}

// CannotMergeBaseLayerError reports a merge against a layer with no
// valid neighbor in the requested direction, or a layer that never
// merges at all.
type CannotMergeBaseLayerError struct {
	Mesh   string
	Layer  string
	Reason string
}

func (e *CannotMergeBaseLayerError) Error() string {
	return fmt.Sprintf("mesh %q layer %q cannot merge: %s", e.Mesh, e.Layer, e.Reason)
}

// InvalidSetIndexError reports a layer set index outside a mesh's
// range.
type InvalidSetIndexError struct {
	Mesh  string
	Index int
	Count int
}

func (e *InvalidSetIndexError) Error() string {
	return fmt.Sprintf("mesh %q has no layer set %d (count %d)", e.Mesh, e.Index, e.Count)
}

// MismatchedLayerSetsError reports a batch operation over meshes with
// differing layer set counts.
type MismatchedLayerSetsError struct {
	Meshes []string
}

func (e *MismatchedLayerSetsError) Error() string {
	return fmt.Sprintf("meshes %v carry differing layer set counts", e.Meshes)
}

// MissingBakeError reports a blend requested before any occlusion
// bake produced the local and global caches.
type MissingBakeError struct {
	Mesh string
}

func (e *MissingBakeError) Error() string {
	return fmt.Sprintf("mesh %q has no baked occlusion caches", e.Mesh)
}
