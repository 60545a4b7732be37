package model

import (
	"math"
	"testing"

	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func approxVec3(a, b vec3.T) bool {
	return approx(a[0], b[0]) && approx(a[1], b[1]) && approx(a[2], b[2])
}

func TestVertexBuffer_Layout(t *testing.T) {
	buf := NewVertexBuffer(Layout{UVLayers: 2, MaxInfluence: 3})
	i := buf.Create(vec3.T{1, 2, 3})

	v := buf.Vertex(i)
	if len(v.UVs) != 2 {
		t.Errorf("UV layers = %d, want 2", len(v.UVs))
	}
	if len(v.Weights) != 3 {
		t.Errorf("weights = %d, want 3", len(v.Weights))
	}
	if v.Position != (vec3.T{1, 2, 3}) {
		t.Errorf("Position = %v", v.Position)
	}
	if v.Normal != (vec3.T{}) {
		t.Errorf("new vertex normal should be zero, got %v", v.Normal)
	}
}

func TestVertexBuffer_NegativeLayoutClamped(t *testing.T) {
	buf := NewVertexBuffer(Layout{UVLayers: -1, MaxInfluence: -4})
	if l := buf.Layout(); l.UVLayers != 0 || l.MaxInfluence != 0 {
		t.Errorf("Layout() = %+v, want zero counts", l)
	}
	i := buf.Create(vec3.T{})
	if buf.Vertex(i).UVs != nil || buf.Vertex(i).Weights != nil {
		t.Error("expected no UV or weight slots")
	}
}

func TestVertexBuffer_Setters(t *testing.T) {
	buf := NewVertexBuffer(Layout{UVLayers: 1, MaxInfluence: 1})
	buf.Reserve(2)
	buf.Create(vec3.T{})
	buf.Create(vec3.T{})

	tests := []struct {
		name string
		ok   bool
	}{
		{"normal in range", buf.SetNormal(1, vec3.T{0, 1, 0})},
		{"normal out of range", !buf.SetNormal(2, vec3.T{0, 1, 0})},
		{"normal negative", !buf.SetNormal(-1, vec3.T{0, 1, 0})},
		{"uv in range", buf.SetUV(0, 0, vec2.T{0.5, 0.25})},
		{"uv layer out of range", !buf.SetUV(0, 1, vec2.T{})},
		{"uv vertex out of range", !buf.SetUV(5, 0, vec2.T{})},
		{"weight in range", buf.SetWeight(1, 0, Weight{Bone: 3, Value: 1})},
		{"weight slot out of range", !buf.SetWeight(1, 1, Weight{})},
	}
	for _, tt := range tests {
		if !tt.ok {
			t.Errorf("%s: unexpected result", tt.name)
		}
	}

	if got := buf.Vertex(1).Normal; got != (vec3.T{0, 1, 0}) {
		t.Errorf("normal = %v", got)
	}
	if got := buf.Vertex(0).UVs[0]; got != (vec2.T{0.5, 0.25}) {
		t.Errorf("uv = %v", got)
	}
	if got := buf.Vertex(1).Weights[0]; got != (Weight{Bone: 3, Value: 1}) {
		t.Errorf("weight = %+v", got)
	}
}

func TestVertexBuffer_Bounds(t *testing.T) {
	buf := NewVertexBuffer(Layout{})
	if _, _, ok := buf.Bounds(); ok {
		t.Error("empty buffer should have no bounds")
	}
	buf.Create(vec3.T{1, -2, 3})
	buf.Create(vec3.T{-1, 5, 0})

	lo, hi, ok := buf.Bounds()
	if !ok {
		t.Fatal("Bounds() not ok")
	}
	if lo != (vec3.T{-1, -2, 0}) || hi != (vec3.T{1, 5, 3}) {
		t.Errorf("Bounds() = %v, %v", lo, hi)
	}
}

func TestModel_Lookups(t *testing.T) {
	m := New()
	m.Materials = []Material{
		{Name: "skin"},
		{Name: "cloth", Textures: []TextureRef{{Usage: UsageNormal}, {Usage: UsageAlbedo, FileName: "c.png"}}},
		{Name: "skin"},
	}

	if i, ok := m.MaterialIndex("skin"); !ok || i != 0 {
		t.Errorf("MaterialIndex(skin) = %d, %v; want first match", i, ok)
	}
	if _, ok := m.MaterialIndex("metal"); ok {
		t.Error("MaterialIndex(metal) should miss")
	}
	if ref, ok := m.Materials[1].ColorTexture(); !ok || ref.FileName != "c.png" {
		t.Errorf("ColorTexture() = %+v, %v", ref, ok)
	}
	if _, ok := m.Materials[0].ColorTexture(); ok {
		t.Error("material without textures has no color texture")
	}

	buf := NewVertexBuffer(Layout{})
	buf.Create(vec3.T{})
	buf.Create(vec3.T{})
	m.Meshes = []Mesh{{Vertices: buf, Faces: []Face{{0, 1, 0}}}, {}}
	if m.VertexCount() != 2 || m.FaceCount() != 1 {
		t.Errorf("counts = %d vertices, %d faces", m.VertexCount(), m.FaceCount())
	}
}

func TestSkeleton_LocalFromWorld(t *testing.T) {
	s := math.Sin(math.Pi / 4)
	c := math.Cos(math.Pi / 4)
	rotZ := quaternion.T{0, 0, float32(s), float32(c)}

	rootPos := vec3.T{1, 0, 0}
	childPos := vec3.T{1, 1, 0}
	localPos := vec3.T{0, 0, 7}

	skel := Skeleton{Bones: []Bone{
		{Parent: -1, WorldPosition: &rootPos, WorldRotation: &rotZ},
		{Parent: 0, WorldPosition: &childPos, WorldRotation: &rotZ},
		{Parent: 0, LocalPosition: &localPos, WorldPosition: &childPos},
	}}

	root := skel.Local(0)
	if !approxVec3(root.Translation, rootPos) {
		t.Errorf("root translation = %v, want %v", root.Translation, rootPos)
	}

	child := skel.Local(1)
	if !approxVec3(child.Translation, vec3.T{1, 0, 0}) {
		t.Errorf("child translation = %v, want (1, 0, 0)", child.Translation)
	}
	if !approx(child.Rotation[3], 1) && !approx(child.Rotation[3], -1) {
		t.Errorf("child rotation = %v, want identity", child.Rotation)
	}
	if child.Scale != (vec3.T{1, 1, 1}) {
		t.Errorf("child scale = %v, want unit", child.Scale)
	}

	if got := skel.Local(2).Translation; got != localPos {
		t.Errorf("stored local translation = %v, want %v", got, localPos)
	}
}

func TestBone_DisplayName(t *testing.T) {
	name := "spine"
	named := Bone{Name: &name}
	if got := named.DisplayName(3); got != "spine" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := (&Bone{}).DisplayName(3); got != "bone_3" {
		t.Errorf("DisplayName = %q, want bone_3", got)
	}
}
