// Package assets manages the list of Cast model files available for
// preview and export.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/castview/internal/importer"
	"github.com/Faultbox/castview/internal/logger"
	"github.com/Faultbox/castview/internal/texture"
	"github.com/Faultbox/castview/pkg/cast"
)

// Status is the load state of an asset.
type Status int

const (
	StatusLoaded Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusError {
		return "Error"
	}
	return "Loaded"
}

// Asset is one model file in the list.
type Asset struct {
	Name   string // File name without extension
	Path   string
	Size   int64
	Status Status
}

// Options configures a Manager.
type Options struct {
	Recursive bool
	Import    importer.Options
}

// Manager holds loaded assets and the current search results.
type Manager struct {
	mu     sync.RWMutex
	assets []Asset

	// nil means no search is active and every asset is visible.
	search atomic.Pointer[[]int]

	opts     Options
	images   *texture.Cache
	previews *Cache
}

// NewManager creates an empty asset manager.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:     opts,
		images:   texture.NewCache(),
		previews: NewCache(),
	}
}

// LoadFiles adds .cast files to the list. Directories are walked, descending
// into subdirectories when Options.Recursive is set. Files that do not hold
// a model node are skipped. It returns the number of assets added; errors
// for individual paths are combined and do not stop the scan.
func (m *Manager) LoadFiles(paths []string) (int, error) {
	var candidates []string
	var errs error
	for _, p := range paths {
		found, err := m.collect(p)
		errs = multierr.Append(errs, err)
		candidates = append(candidates, found...)
	}

	checked := make([]*Asset, len(candidates))
	checkErrs := make([]error, len(candidates))
	pathChan := make(chan int, len(candidates))
	var wg sync.WaitGroup
	for w := 0; w < m.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range pathChan {
				checked[idx], checkErrs[idx] = check(candidates[idx])
			}
		}()
	}
	for i := range candidates {
		pathChan <- i
	}
	close(pathChan)
	wg.Wait()

	var added []Asset
	for i, a := range checked {
		if checkErrs[i] != nil {
			errs = multierr.Append(errs, checkErrs[i])
			continue
		}
		if a == nil {
			logger.Debug("skipping file without model", zap.String("path", candidates[i]))
			continue
		}
		added = append(added, *a)
	}

	m.mu.Lock()
	m.assets = append(m.assets, added...)
	m.mu.Unlock()

	return len(added), errs
}

func (m *Manager) workers() int {
	if m.opts.Import.Workers > 0 {
		return m.opts.Import.Workers
	}
	return runtime.NumCPU()
}

func (m *Manager) collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if isCast(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("cannot read path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if path != root && !m.opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if isCast(path) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

func isCast(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cast")
}

// check returns nil when the file has no model node.
func check(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !cast.ContainsModel(data) {
		return nil, nil
	}
	return &Asset{
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:   path,
		Size:   int64(len(data)),
		Status: StatusLoaded,
	}, nil
}

// Total returns the number of loaded assets.
func (m *Manager) Total() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets)
}

// Visible returns the number of assets matching the active search, or the
// total when no search is active.
func (m *Manager) Visible() int {
	if idx := m.search.Load(); idx != nil {
		return len(*idx)
	}
	return m.Total()
}

// Asset returns the asset at visible position i.
func (m *Manager) Asset(i int) (Asset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assetLocked(i)
}

func (m *Manager) assetLocked(i int) (Asset, bool) {
	if idx := m.search.Load(); idx != nil {
		if i < 0 || i >= len(*idx) {
			return Asset{}, false
		}
		i = (*idx)[i]
	}
	if i < 0 || i >= len(m.assets) {
		return Asset{}, false
	}
	return m.assets[i], true
}

// Info returns the display columns for visible asset i: name, type, status
// and size. It returns nil when i is out of range.
func (m *Manager) Info(i int) []string {
	a, ok := m.Asset(i)
	if !ok {
		return nil
	}
	return []string{a.Name, "Model", a.Status.String(), formatSize(a.Size)}
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
