// Package export writes imported models to interchange formats.
package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/castview/pkg/model"
)

// glTF buffer views must start on a 4-byte boundary.
const bufferAlign = 4

type glbBuilder struct {
	doc     *gltf.Document
	buf     *gltf.Buffer
	sampler *uint32
}

func newBuilder() *glbBuilder {
	scene := uint32(0)
	doc := &gltf.Document{
		Asset:   gltf.Asset{Version: "2.0", Generator: "castview"},
		Scene:   &scene,
		Scenes:  []*gltf.Scene{{}},
		Buffers: []*gltf.Buffer{{}},
	}
	return &glbBuilder{doc: doc, buf: doc.Buffers[0]}
}

// WriteGLB writes m as a binary glTF document. images holds one optional
// base color image per material, as returned by texture.LoadModelImages.
// Meshes without drawable triangles are left out.
func WriteGLB(w io.Writer, m *model.Model, images []image.Image) error {
	b := newBuilder()

	for i := range m.Materials {
		var img image.Image
		if i < len(images) {
			img = images[i]
		}
		if err := b.addMaterial(&m.Materials[i], img); err != nil {
			return fmt.Errorf("material %q: %w", m.Materials[i].Name, err)
		}
	}

	root := &gltf.Node{
		Name:     m.Name,
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
	for i := range m.Meshes {
		if node, ok := b.addMesh(&m.Meshes[i], len(m.Materials)); ok {
			root.Children = append(root.Children, node)
		}
	}
	root.Children = append(root.Children, b.addSkeleton(&m.Skeleton)...)

	b.doc.Nodes = append(b.doc.Nodes, root)
	b.doc.Scenes[0].Nodes = []uint32{uint32(len(b.doc.Nodes) - 1)}
	if len(b.buf.Data) == 0 {
		b.doc.Buffers = nil
	}

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(b.doc); err != nil {
		return fmt.Errorf("encoding glb: %w", err)
	}
	return nil
}

// addView appends data to the shared buffer and returns its view index.
func (b *glbBuilder) addView(data []byte) uint32 {
	if pad := len(b.buf.Data) % bufferAlign; pad != 0 {
		b.buf.Data = append(b.buf.Data, make([]byte, bufferAlign-pad)...)
	}
	view := &gltf.BufferView{
		Buffer:     0,
		ByteOffset: uint32(len(b.buf.Data)),
		ByteLength: uint32(len(data)),
	}
	b.buf.Data = append(b.buf.Data, data...)
	b.buf.ByteLength = uint32(len(b.buf.Data))

	b.doc.BufferViews = append(b.doc.BufferViews, view)
	return uint32(len(b.doc.BufferViews) - 1)
}

func (b *glbBuilder) addAccessor(a *gltf.Accessor) uint32 {
	b.doc.Accessors = append(b.doc.Accessors, a)
	return uint32(len(b.doc.Accessors) - 1)
}

func (b *glbBuilder) addMaterial(mat *model.Material, img image.Image) error {
	gm := &gltf.Material{
		Name:        mat.Name,
		DoubleSided: true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{1, 1, 1, 1},
		},
	}
	if img != nil {
		tex, err := b.addTexture(img)
		if err != nil {
			return err
		}
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
	}
	b.doc.Materials = append(b.doc.Materials, gm)
	return nil
}

func (b *glbBuilder) addTexture(img image.Image) (uint32, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, fmt.Errorf("encoding png: %w", err)
	}
	view := b.addView(buf.Bytes())

	b.doc.Images = append(b.doc.Images, &gltf.Image{
		MimeType:   "image/png",
		BufferView: &view,
	})
	source := uint32(len(b.doc.Images) - 1)

	if b.sampler == nil {
		b.doc.Samplers = append(b.doc.Samplers, &gltf.Sampler{
			WrapS: gltf.WrapRepeat,
			WrapT: gltf.WrapRepeat,
		})
		idx := uint32(len(b.doc.Samplers) - 1)
		b.sampler = &idx
	}

	b.doc.Textures = append(b.doc.Textures, &gltf.Texture{
		Sampler: b.sampler,
		Source:  &source,
	})
	return uint32(len(b.doc.Textures) - 1), nil
}

// addMesh writes the geometry of mesh and returns the node index holding it.
// Faces referencing vertices past the end of the buffer are dropped.
func (b *glbBuilder) addMesh(mesh *model.Mesh, materials int) (uint32, bool) {
	count := mesh.Vertices.Len()
	if count == 0 {
		return 0, false
	}
	faces := make([]model.Face, 0, len(mesh.Faces))
	for _, f := range mesh.Faces {
		if int(f[0]) < count && int(f[1]) < count && int(f[2]) < count {
			faces = append(faces, f)
		}
	}
	if len(faces) == 0 {
		return 0, false
	}

	vertices := mesh.Vertices.Vertices()
	layout := mesh.Vertices.Layout()

	positions := make([][3]float32, count)
	normals := make([][3]float32, count)
	for i := range vertices {
		positions[i] = vertices[i].Position
		normals[i] = vertices[i].Normal
	}
	lo, hi, _ := mesh.Vertices.Bounds()

	attributes := gltf.Attribute{
		"POSITION": b.addAccessor(&gltf.Accessor{
			BufferView:    ptr(b.addView(encode(positions))),
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec3,
			Count:         uint32(count),
			Min:           []float32{lo[0], lo[1], lo[2]},
			Max:           []float32{hi[0], hi[1], hi[2]},
		}),
		"NORMAL": b.addAccessor(&gltf.Accessor{
			BufferView:    ptr(b.addView(encode(normals))),
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec3,
			Count:         uint32(count),
		}),
	}

	for layer := 0; layer < layout.UVLayers; layer++ {
		uvs := make([][2]float32, count)
		for i := range vertices {
			if layer < len(vertices[i].UVs) {
				uvs[i] = vertices[i].UVs[layer]
			}
		}
		attributes[fmt.Sprintf("TEXCOORD_%d", layer)] = b.addAccessor(&gltf.Accessor{
			BufferView:    ptr(b.addView(encode(uvs))),
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec2,
			Count:         uint32(count),
		})
	}

	indices := b.addAccessor(&gltf.Accessor{
		BufferView:    ptr(b.addView(encode(faces))),
		ComponentType: gltf.ComponentUint,
		Type:          gltf.AccessorScalar,
		Count:         uint32(len(faces) * 3),
	})

	primitive := &gltf.Primitive{
		Attributes: attributes,
		Indices:    &indices,
		Mode:       gltf.PrimitiveTriangles,
	}
	if mesh.Material != nil && *mesh.Material >= 0 && *mesh.Material < materials {
		primitive.Material = ptr(uint32(*mesh.Material))
	}

	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{
		Name:       mesh.Name,
		Primitives: []*gltf.Primitive{primitive},
	})
	meshIndex := uint32(len(b.doc.Meshes) - 1)

	b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{
		Name:     mesh.Name,
		Mesh:     &meshIndex,
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	})
	return uint32(len(b.doc.Nodes) - 1), true
}

// addSkeleton writes one node per bone, linked by parent, and returns the
// node indices of the root bones. Bones whose parent chain loops back on
// itself become roots.
func (b *glbBuilder) addSkeleton(s *model.Skeleton) []uint32 {
	if len(s.Bones) == 0 {
		return nil
	}

	first := uint32(len(b.doc.Nodes))
	nodes := make([]*gltf.Node, len(s.Bones))
	for i := range s.Bones {
		t := s.Local(i)
		nodes[i] = &gltf.Node{
			Name:        s.Bones[i].DisplayName(i),
			Translation: t.Translation,
			Rotation:    t.Rotation,
			Scale:       t.Scale,
		}
	}

	var roots []uint32
	for i := range s.Bones {
		if isRootBone(s, i) {
			roots = append(roots, first+uint32(i))
			continue
		}
		p := s.Bones[i].Parent
		nodes[p].Children = append(nodes[p].Children, first+uint32(i))
	}

	b.doc.Nodes = append(b.doc.Nodes, nodes...)
	return roots
}

func isRootBone(s *model.Skeleton, i int) bool {
	p := int(s.Bones[i].Parent)
	if p < 0 || p >= len(s.Bones) || p == i {
		return true
	}
	for steps := 0; steps < len(s.Bones); steps++ {
		if p < 0 || p >= len(s.Bones) {
			return false
		}
		if p == i {
			return true
		}
		p = int(s.Bones[p].Parent)
	}
	return false
}

func encode(data any) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, data)
	return buf.Bytes()
}

func ptr(v uint32) *uint32 {
	return &v
}
