// Package jsonld lifts mapped JSON trees into JSON-LD documents using
// the type registry, and materializes JSON-LD documents into RDF triples.
package jsonld

// URIProvider builds the dereferenceable URI for a resource id under a
// set of instantiation arguments. The describe orchestrator supplies its
// own URL builder here.
type URIProvider func(id string, args map[string]string) string

// Deferred is a value whose concrete form is not known until enrichment
// time. Mapping transforms emit Deferred values when a field must become
// references to other gateway resources: only the enricher knows the
// running context, the URI builder, and the active variable set.
//
// A list of values is either all concrete or all Deferred; mixing the
// two is not supported.
type Deferred interface {
	// Resolve produces the concrete values that replace the deferred
	// entry. key is the field being enriched, context is the JSON-LD
	// context assembled so far, vars is the active variable set of the
	// resource, and args are the instantiation arguments in effect.
	Resolve(key string, context map[string]any, uriFor URIProvider,
		vars map[string]struct{}, args map[string]string) []any
}
