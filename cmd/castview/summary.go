package main

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/Faultbox/castview/internal/importer"
	"github.com/Faultbox/castview/pkg/cast"
	"github.com/Faultbox/castview/pkg/model"
)

// modelSummary is the comparable shape of a projected model. Slices are
// keyed by name so a merge patch reports changes per element.
type modelSummary struct {
	Name      string                     `json:"name"`
	Vertices  int                        `json:"vertices"`
	Faces     int                        `json:"faces"`
	Bones     map[string]boneSummary     `json:"bones"`
	Materials map[string]materialSummary `json:"materials"`
	Meshes    map[string]meshSummary     `json:"meshes"`
}

type boneSummary struct {
	Index  int    `json:"index"`
	Parent string `json:"parent,omitempty"`
}

type materialSummary struct {
	Index   int    `json:"index"`
	Texture string `json:"texture,omitempty"`
}

type meshSummary struct {
	Vertices     int    `json:"vertices"`
	Faces        int    `json:"faces"`
	UVLayers     int    `json:"uv_layers"`
	MaxInfluence int    `json:"max_influence"`
	Material     string `json:"material,omitempty"`
}

func summarize(m *model.Model) modelSummary {
	s := modelSummary{
		Name:      m.Name,
		Vertices:  m.VertexCount(),
		Faces:     m.FaceCount(),
		Bones:     make(map[string]boneSummary),
		Materials: make(map[string]materialSummary),
		Meshes:    make(map[string]meshSummary),
	}

	bones := m.Skeleton.Bones
	for i := range bones {
		b := boneSummary{Index: i}
		if p := int(bones[i].Parent); p >= 0 && p < len(bones) {
			b.Parent = bones[p].DisplayName(p)
		}
		s.Bones[uniqueKey(s.Bones, bones[i].DisplayName(i))] = b
	}

	for i := range m.Materials {
		ms := materialSummary{Index: i}
		if ref, ok := m.Materials[i].ColorTexture(); ok {
			ms.Texture = ref.FileName
		}
		s.Materials[uniqueKey(s.Materials, m.Materials[i].Name)] = ms
	}

	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		ms := meshSummary{
			Vertices: mesh.Vertices.Len(),
			Faces:    len(mesh.Faces),
		}
		if mesh.Vertices != nil {
			ms.UVLayers = mesh.Vertices.Layout().UVLayers
			ms.MaxInfluence = mesh.Vertices.Layout().MaxInfluence
		}
		if mesh.Material != nil && *mesh.Material < len(m.Materials) {
			ms.Material = m.Materials[*mesh.Material].Name
		}
		name := mesh.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", i)
		}
		s.Meshes[uniqueKey(s.Meshes, name)] = ms
	}
	return s
}

// uniqueKey suffixes name until it is not yet present in m.
func uniqueKey[V any](m map[string]V, name string) string {
	key := name
	for n := 1; ; n++ {
		if _, taken := m[key]; !taken {
			return key
		}
		key = fmt.Sprintf("%s#%d", name, n)
	}
}

func summarizeFile(path string, opts importer.Options) ([]byte, error) {
	file, err := cast.ParseFile(path)
	if err != nil {
		return nil, err
	}
	node, ok := importer.SelectModel(file)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, importer.ErrNoModel)
	}
	res, err := importer.Project(node, opts)
	if err != nil {
		return nil, err
	}
	logWarnings(path, res.Warnings)
	return json.Marshal(summarize(res.Model))
}

// modelPatch returns the JSON merge patch turning the model summary of a
// into that of b. An empty object means the models match.
func modelPatch(a, b string, opts importer.Options) ([]byte, error) {
	from, err := summarizeFile(a, opts)
	if err != nil {
		return nil, err
	}
	to, err := summarizeFile(b, opts)
	if err != nil {
		return nil, err
	}
	return jsonpatch.CreateMergePatch(from, to)
}
