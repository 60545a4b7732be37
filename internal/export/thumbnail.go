package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/castview/internal/logger"
	"github.com/Faultbox/castview/pkg/model"
)

// Thumbnail scales img to fit within a size x size box, keeping its aspect
// ratio. Images that already fit, and non-positive sizes, leave img as is.
func Thumbnail(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if size <= 0 || w == 0 || h == 0 || (w <= size && h <= size) {
		return img
	}

	newW, newH := size, size
	if w > h {
		newH = max(h*size/w, 1)
	} else {
		newW = max(w*size/h, 1)
	}

	scaled := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
	return scaled
}

// WriteThumbnails writes one WebP file per material image into dir and
// returns the written paths in material order. Materials without an image
// are skipped. Files are named after their material.
func WriteThumbnails(dir string, m *model.Model, images []image.Image, size int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var written []string
	var errs error
	used := make(map[string]bool)
	for i := range m.Materials {
		if i >= len(images) || images[i] == nil {
			continue
		}

		name := fileName(m.Materials[i].Name, i)
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", fileName(m.Materials[i].Name, i), n)
		}
		used[name] = true

		path := filepath.Join(dir, name+".webp")
		if err := writeWebP(path, Thumbnail(images[i], size)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("material %q: %w", m.Materials[i].Name, err))
			continue
		}
		logger.Debug("wrote thumbnail", zap.String("path", path))
		written = append(written, path)
	}
	return written, errs
}

func writeWebP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("webp encode: %w", err)
	}
	return f.Close()
}

// fileName turns a material name into a safe file base name.
func fileName(name string, index int) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return fmt.Sprintf("material_%d", index)
	}
	return name
}
