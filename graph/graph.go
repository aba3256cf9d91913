package graph

import (
	"io"
	"sort"

	"github.com/c360studio/semgate/vocabulary"
)

// Graph is an in-memory set of triples. Add is idempotent: a duplicate
// statement never multiplies. A Graph is built by a single describe call
// and is not safe for concurrent mutation.
type Graph struct {
	seen     map[string]struct{}
	triples  []Triple
	prefixes vocabulary.Prefixes
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		seen:     make(map[string]struct{}),
		prefixes: vocabulary.Prefixes{},
	}
}

// Bind attaches namespace prefixes to the graph so serializations carry
// the namespace table. Later bindings win on collision.
func (g *Graph) Bind(prefixes vocabulary.Prefixes) {
	g.prefixes = g.prefixes.Merge(prefixes)
}

// Prefixes returns the bound namespace table.
func (g *Graph) Prefixes() vocabulary.Prefixes {
	return g.prefixes
}

// Add inserts a triple and reports whether it was new.
func (g *Graph) Add(t Triple) bool {
	key := t.NT()
	if _, ok := g.seen[key]; ok {
		return false
	}
	g.seen[key] = struct{}{}
	g.triples = append(g.triples, t)
	return true
}

// Has reports whether the graph contains the triple.
func (g *Graph) Has(t Triple) bool {
	_, ok := g.seen[t.NT()]
	return ok
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns the statements in insertion order. The returned slice
// is a copy.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Objects returns every object term stored under the given subject and
// predicate IRIs.
func (g *Graph) Objects(subject, predicate string) []Term {
	var out []Term
	for _, t := range g.triples {
		if t.Subject.IsIRI() && t.Subject.Value() == subject &&
			t.Predicate.Value() == predicate {
			out = append(out, t.Object)
		}
	}
	return out
}

// WriteNTriples serializes the graph as N-Triples in deterministic
// (sorted) order.
func (g *Graph) WriteNTriples(w io.Writer) error {
	lines := make([]string, 0, len(g.triples))
	for _, t := range g.triples {
		lines = append(lines, t.NT())
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
