package assets

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/text/cases"
)

// SearchTerm matches asset names. Comma-separated alternatives are each
// matched as a substring after Unicode case folding.
type SearchTerm struct {
	parts []string
}

// NewSearchTerm parses a search string. It returns nil for a blank string.
func NewSearchTerm(s string) *SearchTerm {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = cases.Fold().String(strings.TrimSpace(p)); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &SearchTerm{parts: parts}
}

// Matches reports whether name matches any alternative.
func (t *SearchTerm) Matches(name string) bool {
	// A Caser is stateful, so each call gets its own.
	name = cases.Fold().String(name)
	for _, p := range t.parts {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// Search restricts the visible assets to those whose name matches term.
// A nil term clears the search.
func (m *Manager) Search(term *SearchTerm) {
	if term == nil {
		m.search.Store(nil)
		return
	}
	m.apply(func(a *Asset) bool { return term.Matches(a.Name) })
}

// FilterEnv is the environment filter expressions are evaluated against.
type FilterEnv struct {
	Name string
	Path string
	Dir  string
	Size int64
}

func filterOpts() []expr.Option {
	return []expr.Option{
		expr.Env(FilterEnv{}),
		expr.AsBool(),
		expr.Function("glob", func(params ...any) (any, error) {
			return filepath.Match(params[0].(string), params[1].(string))
		},
			new(func(string, string) bool)),
	}
}

// CompileFilter compiles a boolean filter expression such as
// `Size > 1024 && glob("hero_*", Name)`.
func CompileFilter(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, filterOpts()...)
	if err != nil {
		return nil, fmt.Errorf("compiling filter: %w", err)
	}
	return program, nil
}

// Filter restricts the visible assets to those for which src evaluates to
// true. A blank src clears the filter. Assets whose evaluation fails are
// hidden.
func (m *Manager) Filter(src string) error {
	if strings.TrimSpace(src) == "" {
		m.search.Store(nil)
		return nil
	}
	program, err := CompileFilter(src)
	if err != nil {
		return err
	}
	m.apply(func(a *Asset) bool {
		out, err := expr.Run(program, FilterEnv{
			Name: a.Name,
			Path: a.Path,
			Dir:  filepath.Dir(a.Path),
			Size: a.Size,
		})
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	})
	return nil
}

// apply evaluates match over all assets in parallel chunks and swaps in the
// resulting index list in asset order.
func (m *Manager) apply(match func(*Asset) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.assets)
	chunks := min(runtime.NumCPU(), max(n, 1))
	size := (n + chunks - 1) / chunks
	parts := make([][]int, chunks)

	var wg sync.WaitGroup
	for c := 0; c < chunks; c++ {
		lo, hi := c*size, min((c+1)*size, n)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if match(&m.assets[i]) {
					parts[c] = append(parts[c], i)
				}
			}
		}()
	}
	wg.Wait()

	results := make([]int, 0, n)
	for _, p := range parts {
		results = append(results, p...)
	}
	m.search.Store(&results)
}
