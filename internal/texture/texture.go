// Package texture loads material images referenced by imported models.
package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp" // BMP decoder registration
	"golang.org/x/image/tiff"
)

// Hint is the expected encoding of an image file.
type Hint int

const (
	HintDDS Hint = iota
	HintPNG
	HintTIFF
	HintTGA
)

func (h Hint) String() string {
	switch h {
	case HintPNG:
		return "png"
	case HintTIFF:
		return "tiff"
	case HintTGA:
		return "tga"
	default:
		return "dds"
	}
}

// HintFromPath derives a hint from the file extension. Unknown or missing
// extensions fall back to DDS and report false.
func HintFromPath(path string) (Hint, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return HintPNG, true
	case ".dds":
		return HintDDS, true
	case ".tif", ".tiff":
		return HintTIFF, true
	case ".tga":
		return HintTGA, true
	default:
		return HintDDS, false
	}
}

// Load reads and decodes an image file.
func Load(path string, hint Hint) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image file: %w", err)
	}
	img, err := Decode(data, hint)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Decode decodes data using the decoder selected by hint. DDS data that is
// not actually DDS is handed to the registered image decoders.
func Decode(data []byte, hint Hint) (image.Image, error) {
	r := bytes.NewReader(data)
	switch hint {
	case HintPNG:
		return png.Decode(r)
	case HintTIFF:
		return tiff.Decode(r)
	case HintTGA:
		return tga.Decode(r)
	}

	if bytes.HasPrefix(data, []byte("DDS ")) {
		return DecodeDDS(data)
	}
	img, _, err := image.Decode(r)
	return img, err
}

// Cache is a concurrency-safe image cache keyed by path. Failed loads are
// cached too.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
}

type cacheEntry struct {
	img image.Image
	err error
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]*cacheEntry)}
}

// Load returns the cached image for path, loading it on first use.
func (c *Cache) Load(path string, hint Hint) (image.Image, error) {
	c.mu.RLock()
	if entry, ok := c.items[path]; ok {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	img, err := Load(path, hint)

	// Double-check: another goroutine may have loaded it.
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.items[path]; ok {
		return entry.img, entry.err
	}
	c.items[path] = &cacheEntry{img: img, err: err}
	return img, err
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*cacheEntry)
	c.mu.Unlock()
}
