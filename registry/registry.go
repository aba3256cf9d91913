// Package registry provides the client side of the type/property
// registry the gateway annotates resources against.
//
// The registry answers three questions: which properties and supertypes a
// type declares, whether a property carries data or points at another
// resource, and which namespace prefixes compact identifiers resolve
// against. It also persists per-type seed records, which the gateway
// clears when ecosystem membership changes.
package registry

import (
	"context"
	"errors"

	"github.com/c360studio/semgate/vocabulary"
)

// ErrNotFound reports a type or property the registry does not know.
// Callers skip annotation on this error instead of inventing a type.
var ErrNotFound = errors.New("registry: not found")

// PropertyKind discriminates data properties from object properties.
type PropertyKind string

const (
	// KindData marks a property whose values are literals.
	KindData PropertyKind = "data"
	// KindObject marks a property whose values are other resources.
	KindObject PropertyKind = "object"
)

// TypeInfo describes one registered type.
type TypeInfo struct {
	// Properties lists the property identifiers (compact notation) the
	// type declares, including inherited ones.
	Properties []string `json:"properties" yaml:"properties"`
	// Super lists supertype identifiers in compact notation.
	Super []string `json:"super" yaml:"super"`
}

// PropertyInfo describes one registered property.
type PropertyInfo struct {
	Kind PropertyKind `json:"type" yaml:"kind"`
	// Range lists the property's range in compact notation: datatypes
	// for data properties, types for object properties.
	Range []string `json:"range" yaml:"range"`
}

// HasProperty reports whether the type declares the property.
func (t *TypeInfo) HasProperty(id string) bool {
	for _, p := range t.Properties {
		if p == id {
			return true
		}
	}
	return false
}

// TypeRegistry is the external ontology collaborator.
type TypeRegistry interface {
	// GetType returns metadata for a type identifier in compact
	// notation. Returns ErrNotFound for unknown types.
	GetType(ctx context.Context, id string) (*TypeInfo, error)

	// GetProperty returns metadata for a property identifier in compact
	// notation. Returns ErrNotFound for unknown properties.
	GetProperty(ctx context.Context, id string) (*PropertyInfo, error)

	// Prefixes returns the registry's namespace prefix table.
	Prefixes(ctx context.Context) (vocabulary.Prefixes, error)

	// DeleteTypeSeeds drops any persisted seed records for the type.
	// Destructive and non-reversible.
	DeleteTypeSeeds(ctx context.Context, typeID string) error
}
