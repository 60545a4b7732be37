package model

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Layout fixes the per-vertex attribute counts of a buffer. It must be
// decided before the first vertex is created.
type Layout struct {
	Colors       int
	UVLayers     int
	MaxInfluence int
}

// VertexBuffer is a list of vertices sharing one layout.
type VertexBuffer struct {
	layout   Layout
	vertices []Vertex
}

// NewVertexBuffer creates an empty buffer with the given layout.
// Negative counts are treated as zero.
func NewVertexBuffer(layout Layout) *VertexBuffer {
	layout.Colors = max(layout.Colors, 0)
	layout.UVLayers = max(layout.UVLayers, 0)
	layout.MaxInfluence = max(layout.MaxInfluence, 0)
	return &VertexBuffer{layout: layout}
}

// Layout returns the buffer layout.
func (b *VertexBuffer) Layout() Layout {
	return b.layout
}

// Len returns the number of vertices.
func (b *VertexBuffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.vertices)
}

// Reserve grows capacity for n more vertices.
func (b *VertexBuffer) Reserve(n int) {
	if n <= 0 {
		return
	}
	grown := make([]Vertex, len(b.vertices), len(b.vertices)+n)
	copy(grown, b.vertices)
	b.vertices = grown
}

// Create appends a zeroed vertex at position and returns its index.
func (b *VertexBuffer) Create(position vec3.T) int {
	v := Vertex{Position: position}
	if b.layout.UVLayers > 0 {
		v.UVs = make([]vec2.T, b.layout.UVLayers)
	}
	if b.layout.MaxInfluence > 0 {
		v.Weights = make([]Weight, b.layout.MaxInfluence)
	}
	b.vertices = append(b.vertices, v)
	return len(b.vertices) - 1
}

// Vertex returns the vertex at index i.
func (b *VertexBuffer) Vertex(i int) *Vertex {
	return &b.vertices[i]
}

// Vertices returns the underlying vertex slice.
func (b *VertexBuffer) Vertices() []Vertex {
	if b == nil {
		return nil
	}
	return b.vertices
}

// SetNormal sets the normal of vertex i. It reports false when i is out of range.
func (b *VertexBuffer) SetNormal(i int, n vec3.T) bool {
	if i < 0 || i >= len(b.vertices) {
		return false
	}
	b.vertices[i].Normal = n
	return true
}

// SetUV sets UV layer of vertex i. It reports false when either index is
// out of range.
func (b *VertexBuffer) SetUV(i, layer int, uv vec2.T) bool {
	if i < 0 || i >= len(b.vertices) || layer < 0 || layer >= b.layout.UVLayers {
		return false
	}
	b.vertices[i].UVs[layer] = uv
	return true
}

// SetWeight sets influence slot of vertex i.
func (b *VertexBuffer) SetWeight(i, slot int, w Weight) bool {
	if i < 0 || i >= len(b.vertices) || slot < 0 || slot >= b.layout.MaxInfluence {
		return false
	}
	b.vertices[i].Weights[slot] = w
	return true
}

// Bounds returns the axis-aligned bounding box of all positions.
// ok is false for an empty buffer.
func (b *VertexBuffer) Bounds() (lo, hi vec3.T, ok bool) {
	if b.Len() == 0 {
		return lo, hi, false
	}
	lo = b.vertices[0].Position
	hi = lo
	for _, v := range b.vertices[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v.Position[k])
			hi[k] = max(hi[k], v.Position[k])
		}
	}
	return lo, hi, true
}
