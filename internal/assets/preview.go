package assets

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/castview/internal/importer"
	"github.com/Faultbox/castview/internal/logger"
	"github.com/Faultbox/castview/internal/texture"
	"github.com/Faultbox/castview/pkg/model"
)

// ErrNoAsset is returned for a visible index with no asset behind it.
var ErrNoAsset = errors.New("no asset at index")

// Preview is a fully imported asset ready for display or export.
type Preview struct {
	Name     string
	Path     string
	Model    *model.Model
	Images   []image.Image // One entry per material, nil when unavailable
	Warnings []importer.Warning
}

// Preview imports the asset at visible position i and loads its material
// images. Image failures are logged and leave a nil image.
func (m *Manager) Preview(i int) (*Preview, error) {
	a, ok := m.Asset(i)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoAsset, i)
	}
	if p, ok := m.previews.Get(a.Path); ok {
		return p, nil
	}

	p, err := m.build(a)
	if err != nil {
		m.setStatus(a.Path, StatusError)
		return nil, err
	}
	m.previews.Set(a.Path, p)
	return p, nil
}

// PreviewFile imports a single file without adding it to the list.
func (m *Manager) PreviewFile(path string) (*Preview, error) {
	a, err := check(path)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%s: %w", path, importer.ErrNoModel)
	}
	return m.build(*a)
}

func (m *Manager) build(a Asset) (*Preview, error) {
	res, err := importer.ImportFile(a.Path, m.opts.Import)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", a.Path, err)
	}

	images, err := texture.LoadModelImages(res.Model, a.Path, m.images)
	for _, e := range multierr.Errors(err) {
		logger.Warn("failed to load texture", zap.String("asset", a.Name), zap.Error(e))
	}

	return &Preview{
		Name:     a.Name,
		Path:     a.Path,
		Model:    res.Model,
		Images:   images,
		Warnings: res.Warnings,
	}, nil
}

func (m *Manager) setStatus(path string, s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.assets {
		if m.assets[i].Path == path {
			m.assets[i].Status = s
		}
	}
}
