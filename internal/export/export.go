package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/castview/internal/logger"
	"github.com/Faultbox/castview/pkg/model"
)

// Options controls what Files writes.
type Options struct {
	Thumbnails    bool
	ThumbnailSize int
}

// Files writes <dir>/<name>.glb and, when enabled, material thumbnails into
// <dir>/<name>_textures. It returns every path written.
func Files(dir, name string, m *model.Model, images []image.Image, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	glbPath := filepath.Join(dir, name+".glb")
	f, err := os.Create(glbPath)
	if err != nil {
		return nil, err
	}
	if err := WriteGLB(f, m, images); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	logger.Info("exported model",
		zap.String("path", glbPath),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("bones", len(m.Skeleton.Bones)),
	)

	written := []string{glbPath}
	if !opts.Thumbnails {
		return written, nil
	}

	thumbs, err := WriteThumbnails(filepath.Join(dir, name+"_textures"), m, images, opts.ThumbnailSize)
	return append(written, thumbs...), err
}
