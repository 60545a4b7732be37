package importer

import (
	"fmt"
	"sync"

	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec3"

	"github.com/Faultbox/castview/pkg/cast"
	"github.com/Faultbox/castview/pkg/model"
)

// projectMeshes assembles every mesh child of node on a pool of workers.
// Each worker writes only its own slot, so results keep document order.
func projectMeshes(node *cast.Node, materials []model.Material, workers int) ([]model.Mesh, [][]Warning) {
	nodes := node.ChildrenOfType(cast.NodeMesh)
	if len(nodes) == 0 {
		return nil, nil
	}
	meshes := make([]model.Mesh, len(nodes))
	warnings := make([][]Warning, len(nodes))

	idxChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < min(workers, len(nodes)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxChan {
				a := &meshAssembler{model: node, materials: materials, node: nodes[idx]}
				meshes[idx] = a.assemble()
				warnings[idx] = a.warnings
			}
		}()
	}

	for i := range nodes {
		idxChan <- i
	}
	close(idxChan)
	wg.Wait()

	return meshes, warnings
}

type meshAssembler struct {
	model     *cast.Node
	materials []model.Material
	node      *cast.Node
	warnings  []Warning
}

func (a *meshAssembler) warnf(format string, args ...any) {
	a.warnings = append(a.warnings, Warning{
		Node:    a.node.ID,
		Hash:    a.node.Hash,
		Message: fmt.Sprintf(format, args...),
	})
}

func (a *meshAssembler) assemble() model.Mesh {
	n := a.node
	layout := model.Layout{
		UVLayers:     intProp(n, "ul"),
		MaxInfluence: intProp(n, "mi"),
	}
	buf := model.NewVertexBuffer(layout)
	mesh := model.Mesh{
		Name:     stringProp(n, "n"),
		Vertices: buf,
		Material: a.resolveMaterial(),
	}

	if p, ok := n.Property("vp"); ok {
		buf.Reserve(p.Len())
		for _, v := range p.Values {
			if pos, ok := v.Vector3(); ok {
				buf.Create(pos)
			}
		}
	}

	if p, ok := n.Property("vn"); ok {
		skipped := 0
		for i, v := range p.Values {
			if nv, ok := v.Vector3(); ok && !buf.SetNormal(i, nv) {
				skipped++
			}
		}
		a.reportRange("vn", skipped, buf.Len())
	}
	for layer, name := range []string{"u0", "u1"} {
		p, ok := n.Property(name)
		if !ok {
			continue
		}
		skipped := 0
		for i, v := range p.Values {
			if uv, ok := v.Vector2(); ok && !buf.SetUV(i, layer, uv) {
				skipped++
			}
		}
		a.reportRange(name, skipped, buf.Len())
	}

	if layout.MaxInfluence > 0 {
		a.assignWeights(buf, buf.Layout().MaxInfluence)
	}

	mesh.Faces = a.faces()
	return mesh
}

func (a *meshAssembler) reportRange(name string, skipped, vertices int) {
	if skipped > 0 {
		a.warnf("%s: %d values out of range for %d vertices", name, skipped, vertices)
	}
}

// resolveMaterial follows the mesh's material hash within the model node
// and maps the resolved name onto the projected material list.
func (a *meshAssembler) resolveMaterial() *int {
	hash, ok := longProp(a.node, "m")
	if !ok || hash == 0 {
		return nil
	}
	target, ok := cast.FindByHash(a.model, hash)
	if !ok {
		a.warnf("material %#x not found", hash)
		return nil
	}
	name := stringProp(target, "n")
	for i := range a.materials {
		if a.materials[i].Name == name {
			return &i
		}
	}
	a.warnf("material %q not in model", name)
	return nil
}

// faces reads f as index triples and reverses each triangle's winding.
func (a *meshAssembler) faces() []model.Face {
	p, ok := a.node.Property("f")
	if !ok {
		return nil
	}
	values := p.Values
	if rem := len(values) % 3; rem != 0 {
		a.warnf("f: dropping %d trailing indices", rem)
		values = values[:len(values)-rem]
	}

	faces := make([]model.Face, 0, len(values)/3)
	for i := 0; i < len(values); i += 3 {
		i0, ok0 := values[i].Uint()
		i1, ok1 := values[i+1].Uint()
		i2, ok2 := values[i+2].Uint()
		if !ok0 || !ok1 || !ok2 {
			a.warnf("f: non-integer index in triangle %d", i/3)
			continue
		}
		faces = append(faces, model.Face{i2, i1, i0})
	}
	return faces
}

// assignWeights fills influence slots from wb (bone indices) and wv
// (weights), laid out as influences consecutive entries per vertex.
func (a *meshAssembler) assignWeights(buf *model.VertexBuffer, influences int) {
	bones, hasBones := a.node.Property("wb")
	values, hasValues := a.node.Property("wv")
	if !hasBones && !hasValues {
		return
	}

	want := buf.Len() * influences
	if bones.Len() != want || values.Len() != want {
		a.warnf("weights: got %d bones and %d values, want %d", bones.Len(), values.Len(), want)
	}

	for i := 0; i < want; i++ {
		var w model.Weight
		if i < bones.Len() {
			b, _ := bones.Values[i].Uint()
			w.Bone = b
		}
		if i < values.Len() {
			w.Value, _ = values.Values[i].Float()
		}
		buf.SetWeight(i/influences, i%influences, w)
	}
}

func intProp(node *cast.Node, name string) int {
	v, ok := node.Value(name)
	if !ok {
		return 0
	}
	n, ok := v.Int()
	if !ok || n < 0 {
		return 0
	}
	return int(n)
}

func vec3Prop(node *cast.Node, name string) *vec3.T {
	v, ok := node.Value(name)
	if !ok {
		return nil
	}
	out, ok := v.Vector3()
	if !ok {
		return nil
	}
	return &out
}

func quatProp(node *cast.Node, name string) *quaternion.T {
	v, ok := node.Value(name)
	if !ok {
		return nil
	}
	out, ok := v.Quaternion()
	if !ok {
		return nil
	}
	return &out
}
