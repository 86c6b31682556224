package collector

import (
	"fmt"

	"ClaudeDigest/internal/ports"
)

// Registry keeps source adapters in registration order.
type Registry struct {
	sources map[string]ports.Source
	order   []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(src ports.Source) {
	if r.sources == nil {
		r.sources = map[string]ports.Source{}
	}
	name := src.Name()
	if _, exists := r.sources[name]; !exists {
		r.order = append(r.order, name)
	}
	r.sources[name] = src
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Source, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}

// Enabled returns the named sources in the given order. An empty list
// selects every registered source in registration order.
func (r *Registry) Enabled(names []string) ([]ports.Source, error) {
	if len(names) == 0 {
		names = r.order
	}
	out := make([]ports.Source, 0, len(names))
	for _, name := range names {
		src, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// Names lists registered sources in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
