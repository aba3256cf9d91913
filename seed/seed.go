// Package seed tracks the (URI, RDF type) pairs of concretely
// instantiated root resources, for consumption by the external query
// planner.
package seed

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/c360studio/semgate/registry"
)

// Seed is one instantiated root resource: its dereferenceable URI plus
// one of its declared types in compact notation.
type Seed struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// Registry is the process-wide seed set. Append-only during normal
// operation and explicitly clearable; safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	set map[Seed]struct{}
}

// NewRegistry returns an empty seed registry.
func NewRegistry() *Registry {
	return &Registry{set: make(map[Seed]struct{})}
}

// Add records a seed. Adding an existing seed is a no-op.
func (r *Registry) Add(uri, rdfType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set[Seed{URI: uri, Type: rdfType}] = struct{}{}
}

// Contains reports whether the seed is recorded.
func (r *Registry) Contains(uri, rdfType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.set[Seed{URI: uri, Type: rdfType}]
	return ok
}

// Len returns the number of recorded seeds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.set)
}

// Snapshot returns a read-only copy of the seed set in deterministic
// order.
func (r *Registry) Snapshot() []Seed {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Seed, 0, len(r.set))
	for s := range r.set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].URI != out[j].URI {
			return out[i].URI < out[j].URI
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Clear empties the set and drops the registry's persisted per-type
// seed records for every given root type. Destructive and
// non-reversible; used when ecosystem membership changes.
func (r *Registry) Clear(ctx context.Context, types []string, reg registry.TypeRegistry) error {
	r.mu.Lock()
	r.set = make(map[Seed]struct{})
	r.mu.Unlock()

	if reg == nil {
		return nil
	}
	var firstErr error
	for _, t := range types {
		if err := reg.DeleteTypeSeeds(ctx, t); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete seeds for type %s: %w", t, err)
		}
	}
	return firstErr
}
