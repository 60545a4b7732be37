package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/flywave/go3d/vec4"

	"github.com/Faultbox/castview/pkg/cast"
	"github.com/Faultbox/castview/pkg/cast/casttest"
	"github.com/Faultbox/castview/pkg/model"
)

func project(t *testing.T, modl *casttest.Node) *Result {
	t.Helper()
	res, err := Import(casttest.Encode(1, casttest.N(cast.NodeRoot, 1).With(modl)), Options{Workers: 4})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	return res
}

func TestImport_EndToEnd(t *testing.T) {
	modl := casttest.N(cast.NodeModel, 2).With(
		casttest.N(cast.NodeSkeleton, 3).With(
			casttest.N(cast.NodeBone, 4, casttest.Str("n", "root")),
		),
		casttest.N(cast.NodeMesh, 5,
			casttest.Vec3s("vp", vec3.T{0, 0, 0}, vec3.T{1, 0, 0}, vec3.T{0, 1, 0}),
			casttest.Ints("f", 0, 1, 2),
		),
	)

	res := project(t, modl)
	m := res.Model

	if len(m.Skeleton.Bones) != 1 {
		t.Fatalf("bones = %d, want 1", len(m.Skeleton.Bones))
	}
	bone := m.Skeleton.Bones[0]
	if bone.Name == nil || *bone.Name != "root" {
		t.Errorf("bone name = %v, want root", bone.Name)
	}
	if bone.Parent != -1 {
		t.Errorf("bone parent = %d, want -1", bone.Parent)
	}

	if len(m.Meshes) != 1 {
		t.Fatalf("meshes = %d, want 1", len(m.Meshes))
	}
	mesh := m.Meshes[0]
	if mesh.Vertices.Len() != 3 {
		t.Errorf("vertices = %d, want 3", mesh.Vertices.Len())
	}
	if len(mesh.Faces) != 1 || mesh.Faces[0] != (model.Face{2, 1, 0}) {
		t.Errorf("faces = %v, want [(2, 1, 0)]", mesh.Faces)
	}
	if mesh.Material != nil {
		t.Errorf("material = %d, want none", *mesh.Material)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestProject_FaceWinding(t *testing.T) {
	tests := []struct {
		name      string
		prop      *cast.Property
		want      []model.Face
		wantWarns int
	}{
		{
			name: "two triangles",
			prop: casttest.Ints("f", 0, 1, 2, 2, 3, 0),
			want: []model.Face{{2, 1, 0}, {0, 3, 2}},
		},
		{
			name: "short indices upcast",
			prop: casttest.Shorts("f", 10, 20, 30),
			want: []model.Face{{30, 20, 10}},
		},
		{
			name: "byte indices upcast",
			prop: casttest.P("f", cast.ByteValue(1), cast.ByteValue(2), cast.ByteValue(3)),
			want: []model.Face{{3, 2, 1}},
		},
		{
			name:      "trailing partial triangle dropped",
			prop:      casttest.Ints("f", 0, 1, 2, 3, 4),
			want:      []model.Face{{2, 1, 0}},
			wantWarns: 1,
		},
		{
			name:      "non-integer index skips triangle",
			prop:      casttest.Floats("f", 0, 1, 2),
			want:      []model.Face{},
			wantWarns: 1,
		},
		{
			name: "empty",
			prop: casttest.PT("f", cast.TypeInt),
			want: []model.Face{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := project(t, casttest.N(cast.NodeModel, 2).With(casttest.N(cast.NodeMesh, 3, tt.prop)))
			got := res.Model.Meshes[0].Faces
			if len(got) != len(tt.want) {
				t.Fatalf("faces = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("face %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
			if len(res.Warnings) != tt.wantWarns {
				t.Errorf("warnings = %v, want %d", res.Warnings, tt.wantWarns)
			}
		})
	}
}

func TestProject_MeshOrder(t *testing.T) {
	const count = 64
	modl := casttest.N(cast.NodeModel, 1)
	for i := 0; i < count; i++ {
		// Interleave other node types to check only meshes are counted.
		if i%5 == 0 {
			modl.With(casttest.N(cast.NodeMaterial, uint64(10000+i)))
		}
		var vp []vec3.T
		for v := 0; v <= i%7; v++ {
			vp = append(vp, vec3.T{float32(i), float32(v), 0})
		}
		modl.With(casttest.N(cast.NodeMesh, uint64(100+i),
			casttest.Str("n", fmt.Sprintf("mesh_%d", i)),
			casttest.Vec3s("vp", vp...),
		))
	}

	for _, workers := range []int{1, 3, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			data := casttest.Encode(1, casttest.N(cast.NodeRoot, 0).With(modl))
			res, err := Import(data, Options{Workers: workers})
			if err != nil {
				t.Fatalf("Import failed: %v", err)
			}
			meshes := res.Model.Meshes
			if len(meshes) != count {
				t.Fatalf("meshes = %d, want %d", len(meshes), count)
			}
			for i, m := range meshes {
				if want := fmt.Sprintf("mesh_%d", i); m.Name != want {
					t.Fatalf("mesh %d is %q, want %q", i, m.Name, want)
				}
				if m.Vertices.Vertex(0).Position[0] != float32(i) {
					t.Fatalf("mesh %d has vertices of another mesh", i)
				}
			}
		})
	}
}

func TestProject_Bones(t *testing.T) {
	modl := casttest.N(cast.NodeModel, 1).With(
		casttest.N(cast.NodeSkeleton, 2).With(
			casttest.N(cast.NodeBone, 3),
			casttest.N(cast.NodeBone, 4,
				casttest.Str("n", "spine"),
				casttest.Int("p", 0),
				casttest.Vec3s("lp", vec3.T{1, 2, 3}),
				casttest.Vec4s("lr", vec4.T{0, 0, 0, 1}),
				casttest.Vec3s("s", vec3.T{2, 2, 2}),
				casttest.Vec3s("wp", vec3.T{4, 5, 6}),
				casttest.Vec4s("wr", vec4.T{0, 1, 0, 0}),
			),
			casttest.N(cast.NodeMesh, 5),
		),
		casttest.N(cast.NodeSkeleton, 6).With(casttest.N(cast.NodeBone, 7)),
	)

	bones := project(t, modl).Model.Skeleton.Bones
	if len(bones) != 2 {
		t.Fatalf("bones = %d, want 2 (first skeleton only)", len(bones))
	}

	bare := bones[0]
	if bare.Name != nil || bare.Parent != -1 {
		t.Errorf("bare bone = name %v parent %d, want nil and -1", bare.Name, bare.Parent)
	}
	if bare.LocalPosition != nil || bare.LocalRotation != nil || bare.LocalScale != nil ||
		bare.WorldPosition != nil || bare.WorldRotation != nil || bare.WorldScale != nil {
		t.Error("bare bone should have no transforms")
	}

	full := bones[1]
	if full.Name == nil || *full.Name != "spine" || full.Parent != 0 {
		t.Errorf("spine bone = %+v", full)
	}
	if full.LocalPosition == nil || *full.LocalPosition != (vec3.T{1, 2, 3}) {
		t.Errorf("LocalPosition = %v", full.LocalPosition)
	}
	if full.WorldRotation == nil || full.WorldRotation[1] != 1 {
		t.Errorf("WorldRotation = %v", full.WorldRotation)
	}
	if full.LocalScale == nil || full.WorldScale == nil || *full.LocalScale != *full.WorldScale {
		t.Error("scale should fill both local and world scale")
	}
}

func TestProject_MissingSkeleton(t *testing.T) {
	res := project(t, casttest.N(cast.NodeModel, 1).With(casttest.N(cast.NodeMesh, 2)))
	if len(res.Model.Skeleton.Bones) != 0 {
		t.Errorf("bones = %d, want 0", len(res.Model.Skeleton.Bones))
	}
}

func TestProject_Materials(t *testing.T) {
	modl := casttest.N(cast.NodeModel, 1).With(
		casttest.N(cast.NodeMaterial, 10, casttest.Str("n", "albedo"), casttest.Long("albedo", 11), casttest.Long("diffuse", 12)).With(
			casttest.N(cast.NodeFile, 11, casttest.Str("p", "skin_c.png")),
			casttest.N(cast.NodeFile, 12, casttest.Str("p", "wrong.png")),
		),
		casttest.N(cast.NodeMaterial, 20, casttest.Str("n", "diffuse"), casttest.Long("diffuse", 21)).With(
			casttest.N(cast.NodeFile, 21, casttest.Str("p", "cloth.dds")),
		),
		casttest.N(cast.NodeMaterial, 30, casttest.Str("n", "zero"), casttest.Long("albedo", 0)).With(
			casttest.N(cast.NodeFile, 0, casttest.Str("p", "never.png")),
		),
		casttest.N(cast.NodeMaterial, 40, casttest.Str("n", "outside"), casttest.Long("albedo", 50)),
		casttest.N(cast.NodeFile, 50, casttest.Str("p", "sibling.png")),
		casttest.N(cast.NodeMaterial, 60),
	)

	mats := project(t, modl).Model.Materials
	if len(mats) != 5 {
		t.Fatalf("materials = %d, want 5", len(mats))
	}

	tests := []struct {
		name     string
		wantName string
		wantFile string
		wantHash uint64
	}{
		{"albedo preferred", "albedo", "skin_c.png", 11},
		{"diffuse fallback", "diffuse", "cloth.dds", 21},
		{"zero hash", "zero", "", 0},
		{"resolves only within material", "outside", "", 0},
		{"defaults", "", "", 0},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mat := mats[i]
			if mat.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", mat.Name, tt.wantName)
			}
			if tt.wantFile == "" {
				if len(mat.Textures) != 0 {
					t.Errorf("textures = %v, want none", mat.Textures)
				}
				return
			}
			if len(mat.Textures) != 1 {
				t.Fatalf("textures = %d, want 1", len(mat.Textures))
			}
			ref := mat.Textures[0]
			if ref.FileName != tt.wantFile || ref.Hash != tt.wantHash || ref.Usage != model.UsageAlbedo {
				t.Errorf("texture = %+v", ref)
			}
		})
	}
}

func TestProject_MeshMaterialLink(t *testing.T) {
	modl := casttest.N(cast.NodeModel, 1).With(
		casttest.N(cast.NodeMaterial, 10, casttest.Str("n", "a")),
		casttest.N(cast.NodeMaterial, 20, casttest.Str("n", "b")),
		casttest.N(cast.NodeMesh, 30, casttest.Long("m", 20)),
		casttest.N(cast.NodeMesh, 31, casttest.Long("m", 99)),
		casttest.N(cast.NodeMesh, 32),
		casttest.N(cast.NodeMesh, 33, casttest.Long("m", 40)),
		casttest.N(cast.NodeInstance, 39).With(casttest.N(cast.NodeMaterial, 40, casttest.Str("n", "nested"))),
	)

	res := project(t, modl)
	meshes := res.Model.Meshes
	if meshes[0].Material == nil || *meshes[0].Material != 1 {
		t.Errorf("mesh 0 material = %v, want 1", meshes[0].Material)
	}
	for i := 1; i < 4; i++ {
		if meshes[i].Material != nil {
			t.Errorf("mesh %d material = %d, want none", i, *meshes[i].Material)
		}
	}
	if len(res.Warnings) != 2 {
		t.Errorf("warnings = %v, want unresolved hash and unknown name", res.Warnings)
	}
}

func TestProject_VertexAttributes(t *testing.T) {
	modl := casttest.N(cast.NodeModel, 1).With(
		casttest.N(cast.NodeMesh, 2,
			casttest.Int("ul", 2),
			casttest.Vec3s("vp", vec3.T{0, 0, 0}, vec3.T{1, 0, 0}),
			casttest.Vec3s("vn", vec3.T{0, 0, 1}, vec3.T{0, 1, 0}, vec3.T{1, 0, 0}),
			casttest.Vec2s("u0", vec2.T{0.5, 0.5}),
			casttest.Vec2s("u1", vec2.T{0, 1}, vec2.T{1, 0}),
		),
	)

	res := project(t, modl)
	buf := res.Model.Meshes[0].Vertices
	if buf.Layout().UVLayers != 2 {
		t.Errorf("UVLayers = %d, want 2", buf.Layout().UVLayers)
	}
	if buf.Len() != 2 {
		t.Fatalf("vertices = %d, want 2", buf.Len())
	}
	if got := buf.Vertex(1).Normal; got != (vec3.T{0, 1, 0}) {
		t.Errorf("normal 1 = %v", got)
	}
	if got := buf.Vertex(0).UVs[0]; got != (vec2.T{0.5, 0.5}) {
		t.Errorf("uv0 of vertex 0 = %v", got)
	}
	if got := buf.Vertex(1).UVs[1]; got != (vec2.T{1, 0}) {
		t.Errorf("uv1 of vertex 1 = %v", got)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "vn") {
		t.Errorf("warnings = %v, want one vn range warning", res.Warnings)
	}
}

func TestProject_UVLayerBeyondLayout(t *testing.T) {
	modl := casttest.N(cast.NodeModel, 1).With(
		casttest.N(cast.NodeMesh, 2,
			casttest.Int("ul", 1),
			casttest.Vec3s("vp", vec3.T{}),
			casttest.Vec2s("u1", vec2.T{1, 1}),
		),
	)

	res := project(t, modl)
	if got := res.Model.Meshes[0].Vertices.Vertex(0).UVs; len(got) != 1 || got[0] != (vec2.T{}) {
		t.Errorf("UVs = %v, want one zero layer", got)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want 1", res.Warnings)
	}
}

func TestProject_Weights(t *testing.T) {
	modl := casttest.N(cast.NodeModel, 1).With(
		casttest.N(cast.NodeMesh, 2,
			casttest.Int("mi", 2),
			casttest.Vec3s("vp", vec3.T{}, vec3.T{}),
			casttest.P("wb", cast.ByteValue(0), cast.ByteValue(1), cast.ByteValue(3), cast.ByteValue(0)),
			casttest.Floats("wv", 0.75, 0.25, 1, 0),
		),
	)

	res := project(t, modl)
	buf := res.Model.Meshes[0].Vertices
	want := [][]model.Weight{
		{{Bone: 0, Value: 0.75}, {Bone: 1, Value: 0.25}},
		{{Bone: 3, Value: 1}, {Bone: 0, Value: 0}},
	}
	for v := range want {
		got := buf.Vertex(v).Weights
		for k := range want[v] {
			if got[k] != want[v][k] {
				t.Errorf("vertex %d slot %d = %+v, want %+v", v, k, got[k], want[v][k])
			}
		}
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestSelectModel(t *testing.T) {
	tests := []struct {
		name     string
		roots    []*casttest.Node
		wantHash uint64
		wantOK   bool
	}{
		{
			name:     "model under root",
			roots:    []*casttest.Node{casttest.N(cast.NodeRoot, 1).With(casttest.N(cast.NodeAnimation, 2), casttest.N(cast.NodeModel, 3), casttest.N(cast.NodeModel, 4))},
			wantHash: 3,
			wantOK:   true,
		},
		{
			name:     "model as root",
			roots:    []*casttest.Node{casttest.N(cast.NodeModel, 5)},
			wantHash: 5,
			wantOK:   true,
		},
		{
			name:   "only first root considered",
			roots:  []*casttest.Node{casttest.N(cast.NodeRoot, 1), casttest.N(cast.NodeRoot, 2).With(casttest.N(cast.NodeModel, 3))},
			wantOK: false,
		},
		{
			name:   "no roots",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := cast.Parse(casttest.Encode(1, tt.roots...))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			node, ok := SelectModel(file)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && node.Hash != tt.wantHash {
				t.Errorf("hash = %d, want %d", node.Hash, tt.wantHash)
			}
		})
	}
}

func TestImport_Errors(t *testing.T) {
	if _, err := Import([]byte("nope"), Options{}); !errors.Is(err, cast.ErrBadMagic) {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}
	if _, err := Import(casttest.Encode(1, casttest.N(cast.NodeRoot, 1)), Options{}); !errors.Is(err, ErrNoModel) {
		t.Errorf("expected ErrNoModel, got %v", err)
	}
	if _, err := Project(cast.NewNode(cast.NodeMesh, 1), Options{}); !errors.Is(err, ErrNotModel) {
		t.Errorf("expected ErrNotModel, got %v", err)
	}
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.cast")
	data := casttest.Encode(1, casttest.N(cast.NodeModel, 1, casttest.Str("n", "hero")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	res, err := ImportFile(path, Options{})
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if res.Model.Name != "hero" {
		t.Errorf("Name = %q, want hero", res.Model.Name)
	}
}
