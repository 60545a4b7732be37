package texture

import (
	"fmt"
	"image"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/castview/internal/logger"
	"github.com/Faultbox/castview/pkg/model"
)

// LoadModelImages loads one color image per material of m. Texture paths
// are resolved relative to the directory of castPath. Materials without a
// color texture, or whose texture fails to load, get a nil entry; load
// failures are combined into the returned error. cache may be nil.
func LoadModelImages(m *model.Model, castPath string, cache *Cache) ([]image.Image, error) {
	images := make([]image.Image, len(m.Materials))
	dir := filepath.Dir(castPath)

	var errs error
	for i := range m.Materials {
		ref, ok := m.Materials[i].ColorTexture()
		if !ok || ref.FileName == "" {
			continue
		}

		path := ref.FileName
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, filepath.FromSlash(path))
		}

		hint, known := HintFromPath(path)
		if !known {
			logger.Warn("unrecognized texture extension, assuming DDS",
				zap.String("material", m.Materials[i].Name),
				zap.String("path", path))
		}

		var img image.Image
		var err error
		if cache != nil {
			img, err = cache.Load(path, hint)
		} else {
			img, err = Load(path, hint)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("material %q: %w", m.Materials[i].Name, err))
			continue
		}
		images[i] = img
	}
	return images, errs
}
