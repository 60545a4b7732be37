// Package model defines the typed 3D model produced by importing a Cast
// file: a skeleton of bones, materials with texture references, and meshes
// with fixed-layout vertex buffers.
package model

import (
	"fmt"

	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Model is a fully imported model.
type Model struct {
	Name      string
	Skeleton  Skeleton
	Materials []Material // Slice position is the material's identity
	Meshes    []Mesh
}

// New creates an empty model.
func New() *Model {
	return &Model{}
}

// MaterialIndex returns the index of the first material named name.
func (m *Model) MaterialIndex(name string) (int, bool) {
	for i := range m.Materials {
		if m.Materials[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// VertexCount returns the number of vertices across all meshes.
func (m *Model) VertexCount() int {
	total := 0
	for i := range m.Meshes {
		total += m.Meshes[i].Vertices.Len()
	}
	return total
}

// FaceCount returns the number of triangles across all meshes.
func (m *Model) FaceCount() int {
	total := 0
	for i := range m.Meshes {
		total += len(m.Meshes[i].Faces)
	}
	return total
}

// Skeleton is an ordered list of bones. Parent indices refer into Bones.
type Skeleton struct {
	Bones []Bone
}

// Bone is a single skeleton joint. Every field except Parent is optional.
type Bone struct {
	Name   *string
	Parent int32 // -1 for a root bone

	LocalPosition *vec3.T
	LocalRotation *quaternion.T
	LocalScale    *vec3.T

	WorldPosition *vec3.T
	WorldRotation *quaternion.T
	WorldScale    *vec3.T
}

// DisplayName returns the bone name, or a positional placeholder.
func (b *Bone) DisplayName(index int) string {
	if b.Name != nil {
		return *b.Name
	}
	return fmt.Sprintf("bone_%d", index)
}

// TextureUsage describes what a texture is used for in a material.
type TextureUsage int

const (
	UsageUnknown TextureUsage = iota
	UsageAlbedo
	UsageDiffuse
	UsageNormal
	UsageSpecular
)

// String returns a human-readable usage name.
func (u TextureUsage) String() string {
	switch u {
	case UsageAlbedo:
		return "Albedo"
	case UsageDiffuse:
		return "Diffuse"
	case UsageNormal:
		return "Normal"
	case UsageSpecular:
		return "Specular"
	default:
		return "Unknown"
	}
}

// TextureRef points at a texture file used by a material.
type TextureRef struct {
	Usage    TextureUsage
	FileName string
	Hash     uint64 // Hash of the file node in the source Cast tree
}

// Material is a named surface description.
type Material struct {
	Name     string
	Textures []TextureRef
}

// ColorTexture returns the first albedo or diffuse texture reference.
func (m *Material) ColorTexture() (TextureRef, bool) {
	for _, t := range m.Textures {
		if t.Usage == UsageAlbedo || t.Usage == UsageDiffuse {
			return t, true
		}
	}
	return TextureRef{}, false
}

// Face is a triangle of vertex indices.
type Face [3]uint32

// Mesh holds geometry for one draw unit.
type Mesh struct {
	Name     string
	Vertices *VertexBuffer
	Faces    []Face
	Material *int // Index into Model.Materials, nil when unassigned
}

// Weight is one skinning influence.
type Weight struct {
	Bone  uint32
	Value float32
}

// Vertex is a single vertex. UVs and Weights are sized by the owning
// buffer's layout.
type Vertex struct {
	Position vec3.T
	Normal   vec3.T
	UVs      []vec2.T
	Weights  []Weight
}
