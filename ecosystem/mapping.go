package ecosystem

import (
	"fmt"

	"github.com/c360studio/semgate/jsonld"
)

// ContainerKey is the synthetic mapping key that wraps a bare (non-keyed)
// response into a single-field object, so list- or scalar-shaped
// upstream bodies can still be mapped onto a predicate.
const ContainerKey = "$container"

// Mapping is one declarative rule translating a JSON field into an RDF
// predicate value.
type Mapping struct {
	// Key is the source field name matched anywhere in the response
	// tree, or ContainerKey.
	Key string
	// Predicate is the target predicate in compact notation.
	Predicate string
	// Path optionally narrows the tree with a path query before the
	// key search. A query with no match falls back to the whole tree.
	Path string
	// Limit caps a list value to its first element.
	Limit bool
	// Transform optionally rewrites the matched value.
	Transform Transform
}

// Transform rewrites a matched mapping value before it is stored under
// the target predicate.
type Transform interface {
	Attach(value any) any
}

// ResourceTransform turns matched values into references to another
// gateway resource: each raw value becomes the dereferenceable URI of
// the target resource instantiated with that value bound to Var. The
// URIs cannot be built until enrichment time, so Attach emits deferred
// values.
type ResourceTransform struct {
	// ResourceID is the target resource id.
	ResourceID string
	// Var is the target resource's variable the raw value binds to.
	Var string
}

// Attach implements Transform.
func (t ResourceTransform) Attach(value any) any {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}
	refs := make([]any, 0, len(items))
	for _, item := range items {
		refs = append(refs, &resourceRef{transform: t, raw: item})
	}
	return refs
}

// resourceRef is the deferred value a ResourceTransform emits.
type resourceRef struct {
	transform ResourceTransform
	raw       any
}

// Resolve implements jsonld.Deferred.
func (r *resourceRef) Resolve(_ string, _ map[string]any, uriFor jsonld.URIProvider,
	_ map[string]struct{}, args map[string]string) []any {
	merged := make(map[string]string, len(args)+1)
	for k, v := range args {
		merged[k] = v
	}
	if r.transform.Var != "" {
		merged[r.transform.Var] = fmt.Sprint(r.raw)
	}
	return []any{uriFor(r.transform.ResourceID, merged)}
}
