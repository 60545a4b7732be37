package cast_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Faultbox/castview/pkg/cast"
	"github.com/Faultbox/castview/pkg/cast/casttest"
)

func parseTree(t *testing.T, root *casttest.Node) *cast.Node {
	t.Helper()
	file, err := cast.Parse(casttest.Encode(1, root))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return file.Roots[0]
}

func TestFindByHash(t *testing.T) {
	root := parseTree(t, casttest.N(cast.NodeModel, 1).With(
		casttest.N(cast.NodeMaterial, 10, casttest.Str("n", "a")).With(
			casttest.N(cast.NodeFile, 11, casttest.Str("p", "deep-dup")),
		),
		casttest.N(cast.NodeMaterial, 20, casttest.Str("n", "b")).With(
			casttest.N(cast.NodeFile, 21),
		),
		casttest.N(cast.NodeFile, 11, casttest.Str("p", "shallow-dup")),
	))

	tests := []struct {
		name     string
		hash     uint64
		wantOK   bool
		wantPath string
		wantID   cast.NodeID
	}{
		{name: "direct child", hash: 20, wantOK: true, wantID: cast.NodeMaterial},
		{name: "grandchild", hash: 21, wantOK: true, wantID: cast.NodeFile},
		{name: "duplicate resolves depth-first", hash: 11, wantOK: true, wantID: cast.NodeFile, wantPath: "deep-dup"},
		{name: "root excluded", hash: 1, wantOK: false},
		{name: "missing", hash: 999, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, ok := cast.FindByHash(root, tt.hash)
			if ok != tt.wantOK {
				t.Fatalf("FindByHash(%d) ok = %v, want %v", tt.hash, ok, tt.wantOK)
			}
			if !ok {
				if node != nil {
					t.Error("expected nil node on miss")
				}
				return
			}
			if node.ID != tt.wantID {
				t.Errorf("ID = %s, want %s", node.ID, tt.wantID)
			}
			if tt.wantPath != "" {
				v, _ := node.Value("p")
				if s, _ := v.Text(); s != tt.wantPath {
					t.Errorf("p = %q, want %q", s, tt.wantPath)
				}
			}
		})
	}
}

func TestFindByHash_ScopedToSubtree(t *testing.T) {
	root := parseTree(t, casttest.N(cast.NodeModel, 1).With(
		casttest.N(cast.NodeMaterial, 10),
		casttest.N(cast.NodeFile, 11),
	))

	material := root.Children[0]
	if _, ok := cast.FindByHash(material, 11); ok {
		t.Error("sibling of the scope root must not resolve")
	}
	if _, ok := cast.FindByHash(nil, 11); ok {
		t.Error("nil root must not resolve")
	}
}

func TestNode_ChildrenOfType(t *testing.T) {
	root := parseTree(t, casttest.N(cast.NodeModel, 1).With(
		casttest.N(cast.NodeMesh, 2),
		casttest.N(cast.NodeMaterial, 3),
		casttest.N(cast.NodeMesh, 4),
	))

	meshes := root.ChildrenOfType(cast.NodeMesh)
	if len(meshes) != 2 || meshes[0].Hash != 2 || meshes[1].Hash != 4 {
		t.Errorf("ChildrenOfType(mesh) = %v", meshes)
	}
	if _, ok := root.FirstChildOfType(cast.NodeSkeleton); ok {
		t.Error("FirstChildOfType(skel) should report false")
	}
}

func TestNode_WalkOrder(t *testing.T) {
	root := parseTree(t, casttest.N(cast.NodeRoot, 1).With(
		casttest.N(cast.NodeModel, 2).With(casttest.N(cast.NodeMesh, 3)),
		casttest.N(cast.NodeModel, 4),
	))

	var order []uint64
	root.Walk(func(n *cast.Node, depth int) bool {
		order = append(order, n.Hash)
		return true
	})
	want := []uint64{1, 2, 3, 4}
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Fatalf("walk order = %v, want %v", order, want)
		}
	}
}

func TestDump(t *testing.T) {
	data := casttest.Encode(1, casttest.N(cast.NodeRoot, 1).With(
		casttest.N(cast.NodeBone, 2, casttest.Str("n", "hip"), casttest.Ints("f", 0, 1, 2, 3)),
	))
	file, err := cast.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var buf bytes.Buffer
	if err := cast.Dump(&buf, file, cast.DumpOptions{MaxValues: 2}); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"[root]", "  [bone]", `n:s[1] "hip"`, "f:i[4] 0 1 ... (+2)"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hash=") {
		t.Error("hashes printed with Hashes disabled")
	}
}
