// Package importer projects a decoded Cast tree onto a typed model.
package importer

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Faultbox/castview/pkg/cast"
	"github.com/Faultbox/castview/pkg/model"
)

// Sentinel errors.
var (
	ErrNoModel  = errors.New("no model node found")
	ErrNotModel = errors.New("node is not a model")
)

// Options controls projection.
type Options struct {
	// Workers is the mesh assembly pool size. Zero means runtime.NumCPU().
	Workers int
}

// Warning is a non-fatal problem found while projecting.
type Warning struct {
	Node    cast.NodeID
	Hash    uint64
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %#x: %s", w.Node, w.Hash, w.Message)
}

// Result is a projected model together with the warnings raised for it.
type Result struct {
	Model    *model.Model
	Warnings []Warning
}

// SelectModel picks the model node to project: the first root when it is a
// model itself, otherwise the first model child of the first root.
func SelectModel(file *cast.File) (*cast.Node, bool) {
	if file == nil || len(file.Roots) == 0 {
		return nil, false
	}
	root := file.Roots[0]
	if root.ID == cast.NodeModel {
		return root, true
	}
	return root.FirstChildOfType(cast.NodeModel)
}

// Import decodes data and projects its model.
func Import(data []byte, opts Options) (*Result, error) {
	file, err := cast.Parse(data)
	if err != nil {
		return nil, err
	}
	return importFile(file, opts)
}

// ImportFile reads, decodes and projects the model in a Cast file.
func ImportFile(path string, opts Options) (*Result, error) {
	file, err := cast.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return importFile(file, opts)
}

func importFile(file *cast.File, opts Options) (*Result, error) {
	node, ok := SelectModel(file)
	if !ok {
		return nil, ErrNoModel
	}
	return Project(node, opts)
}

// Project builds a model from a model node. Skeleton and materials are read
// first; meshes are then assembled in parallel and returned in document
// order. Missing optional data never fails the projection.
func Project(node *cast.Node, opts Options) (*Result, error) {
	if node == nil {
		return nil, ErrNoModel
	}
	if node.ID != cast.NodeModel {
		return nil, fmt.Errorf("%w: %s", ErrNotModel, node.ID)
	}

	m := model.New()
	m.Name = stringProp(node, "n")

	var warnings []Warning
	if skel, ok := node.FirstChildOfType(cast.NodeSkeleton); ok {
		m.Skeleton = projectSkeleton(skel)
	}
	m.Materials = projectMaterials(node)

	meshes, meshWarnings := projectMeshes(node, m.Materials, opts.workers())
	m.Meshes = meshes
	for _, w := range meshWarnings {
		warnings = append(warnings, w...)
	}

	return &Result{Model: m, Warnings: warnings}, nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

func projectSkeleton(node *cast.Node) model.Skeleton {
	var s model.Skeleton
	for _, c := range node.ChildrenOfType(cast.NodeBone) {
		s.Bones = append(s.Bones, projectBone(c))
	}
	return s
}

func projectBone(node *cast.Node) model.Bone {
	b := model.Bone{Parent: -1}

	if v, ok := node.Value("n"); ok {
		if s, ok := v.Text(); ok {
			b.Name = &s
		}
	}
	if v, ok := node.Value("p"); ok {
		if p, ok := v.Int(); ok {
			b.Parent = p
		}
	}
	b.LocalPosition = vec3Prop(node, "lp")
	b.LocalRotation = quatProp(node, "lr")
	b.WorldPosition = vec3Prop(node, "wp")
	b.WorldRotation = quatProp(node, "wr")

	// The format has a single scale property.
	b.LocalScale = vec3Prop(node, "s")
	b.WorldScale = vec3Prop(node, "s")
	return b
}

func projectMaterials(node *cast.Node) []model.Material {
	var out []model.Material
	for _, c := range node.ChildrenOfType(cast.NodeMaterial) {
		mat := model.Material{Name: stringProp(c, "n")}

		hash, ok := longProp(c, "albedo")
		if !ok {
			hash, _ = longProp(c, "diffuse")
		}
		if hash != 0 {
			if file, ok := cast.FindByHash(c, hash); ok {
				mat.Textures = append(mat.Textures, model.TextureRef{
					Usage:    model.UsageAlbedo,
					FileName: stringProp(file, "p"),
					Hash:     hash,
				})
			}
		}
		out = append(out, mat)
	}
	return out
}

func stringProp(node *cast.Node, name string) string {
	v, ok := node.Value(name)
	if !ok {
		return ""
	}
	s, _ := v.Text()
	return s
}

func longProp(node *cast.Node, name string) (uint64, bool) {
	v, ok := node.Value(name)
	if !ok {
		return 0, false
	}
	return v.Long()
}
