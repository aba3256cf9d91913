// Package ecosystem models the Thing Ecosystem Description: the set of
// resource descriptions the gateway serves, their dependency structure,
// and the endpoint composition walk over it.
//
// The ecosystem is built once from its YAML definition and treated as
// immutable for the process lifetime.
package ecosystem

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semgate/graph"
	"github.com/c360studio/semgate/vocabulary"
)

// ErrCycle reports a dependency cycle discovered during endpoint
// composition or load-time validation. Cyclic ecosystems are a
// configuration error, never a traversal to attempt.
var ErrCycle = errors.New("ecosystem: dependency cycle")

// ErrUnknownResource reports a resource id the ecosystem does not
// declare.
var ErrUnknownResource = errors.New("ecosystem: unknown resource")

// Ecosystem is the full set of resource descriptions plus their
// dependency graph and blank-node index.
type Ecosystem struct {
	prefixes vocabulary.Prefixes
	order    []string
	byID     map[string]*Description
	byNode   map[string]string   // blank node id -> resource id
	preds    map[string][]string // resource id -> predecessor ids
}

// Description is one Thing Description: a resource's identity, declared
// types, static triples, upstream endpoints, and same-as sources.
type Description struct {
	// ID is the resource identifier used in URLs.
	ID string
	// Node is the graph-local blank node id standing in for the
	// resource in its own static graph and in cross references.
	Node string
	// Types lists declared RDF types in compact notation.
	Types []string
	// Vars lists instantiation variable names; a resource with vars is
	// not addressable without arguments.
	Vars []string
	// DependsOn lists predecessor resource ids whose endpoints this
	// resource's open endpoints compose with.
	DependsOn []string
	// Static holds the statically declared triples. Blank subjects and
	// objects are placeholders resolved at describe time.
	Static []graph.Triple
	// Endpoints are the declared upstream calls, ordered by priority.
	Endpoints []Endpoint
	// SameAs lists externally hosted documents asserted to describe
	// the same entity.
	SameAs []string
}

// VarSet returns the resource's variable names as a set.
func (d *Description) VarSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Vars))
	for _, v := range d.Vars {
		set[v] = struct{}{}
	}
	return set
}

// Load reads and validates an ecosystem definition file.
func Load(path string) (*Ecosystem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ecosystem file: %w", err)
	}
	return Parse(data)
}

// Parse builds an ecosystem from YAML bytes. See file.go for the
// document shape.
func Parse(data []byte) (*Ecosystem, error) {
	var file tedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse ecosystem file: %w", err)
	}
	return file.build()
}

// Description returns the resource description for an id.
func (e *Ecosystem) Description(id string) (*Description, error) {
	if td, ok := e.byID[id]; ok {
		return td, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownResource, id)
}

// Descriptions returns all resource descriptions in declaration order.
func (e *Ecosystem) Descriptions() []*Description {
	out := make([]*Description, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.byID[id])
	}
	return out
}

// NodeOwner resolves a blank node id to the resource it cross-references.
func (e *Ecosystem) NodeOwner(blankID string) (string, bool) {
	id, ok := e.byNode[blankID]
	return id, ok
}

// Predecessors returns the ids a resource composes its open endpoints
// from.
func (e *Ecosystem) Predecessors(id string) []string {
	return e.preds[id]
}

// Roots returns the resources with no dependency on another resource in
// the ecosystem, in declaration order. Roots are the only seed
// candidates.
func (e *Ecosystem) Roots() []*Description {
	var roots []*Description
	for _, id := range e.order {
		if len(e.preds[id]) == 0 {
			roots = append(roots, e.byID[id])
		}
	}
	return roots
}

// IsRoot reports whether the id names an ecosystem root.
func (e *Ecosystem) IsRoot(id string) bool {
	td, ok := e.byID[id]
	return ok && td != nil && len(e.preds[id]) == 0
}

// Prefixes returns the prefix table declared with the ecosystem.
func (e *Ecosystem) Prefixes() vocabulary.Prefixes {
	return e.prefixes
}

// ComposeEndpoints resolves the fully callable endpoint chain for a
// resource. Self-contained endpoints are yielded as-is; open endpoints
// are composed with every fully resolved endpoint of every predecessor
// (one composed endpoint per path, fan-out included). Composition is
// recomputed per call; it is cheap and bounded by ecosystem size.
func (e *Ecosystem) ComposeEndpoints(id string) ([]Endpoint, error) {
	return e.compose(id, make(map[string]bool))
}

func (e *Ecosystem) compose(id string, visiting map[string]bool) ([]Endpoint, error) {
	if visiting[id] {
		return nil, fmt.Errorf("%w: via %s", ErrCycle, id)
	}
	td, err := e.Description(id)
	if err != nil {
		return nil, err
	}

	visiting[id] = true
	defer delete(visiting, id)

	var out []Endpoint
	for _, base := range td.Endpoints {
		if !base.Open() {
			out = append(out, base)
			continue
		}
		for _, pred := range e.preds[id] {
			predEndpoints, err := e.compose(pred, visiting)
			if err != nil {
				return nil, err
			}
			for _, pe := range predEndpoints {
				out = append(out, base.Compose(pe))
			}
		}
	}
	return out, nil
}

// validate checks referential integrity and rejects cyclic dependency
// declarations up front.
func (e *Ecosystem) validate() error {
	for _, id := range e.order {
		td := e.byID[id]
		for _, dep := range td.DependsOn {
			if _, ok := e.byID[dep]; !ok {
				return fmt.Errorf("resource %s depends on unknown resource %s", id, dep)
			}
		}
		for _, ep := range td.Endpoints {
			if ep.Open() && len(td.DependsOn) == 0 {
				return fmt.Errorf("resource %s declares an open endpoint but no dependency", id)
			}
		}
	}

	// DFS over dependency edges. White/grey/black coloring.
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(e.order))
	var walk func(id string) error
	walk = func(id string) error {
		switch color[id] {
		case grey:
			return fmt.Errorf("%w: via %s", ErrCycle, id)
		case black:
			return nil
		}
		color[id] = grey
		for _, pred := range e.preds[id] {
			if err := walk(pred); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}
	for _, id := range e.order {
		if err := walk(id); err != nil {
			return err
		}
	}
	return nil
}
