// Package readers maps file extensions to document readers.
//
// The registry is a capability registry: an extension with no registered
// factory is simply unsupported. Reader construction is lazy and guarded
// so that concurrent first use builds each reader exactly once.
package readers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// Factory constructs a document reader on first use.
type Factory func() (driven.DocumentReader, error)

// Registry resolves file extensions to lazily-constructed readers.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	readers   map[string]driven.DocumentReader
	group     singleflight.Group
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		readers:   make(map[string]driven.DocumentReader),
	}
}

// NewDefaultRegistry creates a registry with the built-in readers
// registered: PDF, plain text and Markdown.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(func() (driven.DocumentReader, error) { return NewPDFReader(), nil }, ".pdf")
	r.Register(func() (driven.DocumentReader, error) { return NewTextReader(), nil }, ".txt", ".md", ".markdown")
	return r
}

// Register binds a factory to one or more extensions. Later registrations
// for the same extension replace earlier ones.
func (r *Registry) Register(f Factory, extensions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range extensions {
		r.factories[normalizeExt(ext)] = f
	}
}

// Get returns the reader for the given extension, constructing it on
// first use. Concurrent callers during construction share the in-flight
// initialisation instead of starting a second one. Returns
// domain.ErrUnsupportedFormat for unknown extensions.
func (r *Registry) Get(ext string) (driven.DocumentReader, error) {
	ext = normalizeExt(ext)

	r.mu.RLock()
	if reader, ok := r.readers[ext]; ok {
		r.mu.RUnlock()
		return reader, nil
	}
	factory, ok := r.factories[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}

	v, err, _ := r.group.Do(ext, func() (any, error) {
		r.mu.RLock()
		reader, ok := r.readers[ext]
		r.mu.RUnlock()
		if ok {
			return reader, nil
		}

		reader, err := factory()
		if err != nil {
			return nil, fmt.Errorf("initialise %s reader: %w", ext, err)
		}

		r.mu.Lock()
		r.readers[ext] = reader
		r.mu.Unlock()
		return reader, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(driven.DocumentReader), nil
}

// Supports reports whether the extension has a registered reader.
func (r *Registry) Supports(ext string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalizeExt(ext)]
	return ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.factories))
	for ext := range r.factories {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
