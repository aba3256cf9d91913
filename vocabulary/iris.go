package vocabulary

import (
	"sort"
	"strings"
)

// Well-known RDF identifiers used by the materialization pipeline.
const (
	RDFType     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFSLit     = "http://www.w3.org/2000/01/rdf-schema#Literal"
	OWLSameAs   = "http://www.w3.org/2002/07/owl#sameAs"
	XSDString   = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger  = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDouble   = "http://www.w3.org/2001/XMLSchema#double"
	XSDBoolean  = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDDate     = "http://www.w3.org/2001/XMLSchema#date"
	XSDDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"
)

// GenericResourceRange is the registry's "anything" range for data
// properties. A data property with this range gets its datatype inferred
// from the literal value instead.
const GenericResourceRange = "rdfs:Resource"

// Prefixes maps namespace prefixes to their base IRI.
type Prefixes map[string]string

// DefaultPrefixes returns the prefix table every ecosystem starts from.
// Registry-supplied prefixes are merged on top.
func DefaultPrefixes() Prefixes {
	return Prefixes{
		"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
		"owl":  "http://www.w3.org/2002/07/owl#",
		"xsd":  "http://www.w3.org/2001/XMLSchema#",
	}
}

// Merge returns a copy of p with other's entries added. Entries in other
// win on prefix collision.
func (p Prefixes) Merge(other Prefixes) Prefixes {
	merged := make(Prefixes, len(p)+len(other))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Expand resolves a compact identifier ("prefix:local") to a full IRI.
// Absolute IRIs and identifiers with unknown prefixes pass through
// unchanged, so callers never lose information by expanding.
func (p Prefixes) Expand(curie string) string {
	if curie == "" || strings.HasPrefix(curie, "_:") {
		return curie
	}
	idx := strings.Index(curie, ":")
	if idx <= 0 {
		return curie
	}
	prefix := curie[:idx]
	if base, ok := p[prefix]; ok {
		return base + curie[idx+1:]
	}
	return curie
}

// Compact rewrites a full IRI to compact notation when a declared
// namespace matches. The longest matching namespace wins. IRIs outside
// every declared namespace are returned unchanged.
func (p Prefixes) Compact(iri string) string {
	bestPrefix := ""
	bestLen := 0
	for prefix, base := range p {
		if base != "" && strings.HasPrefix(iri, base) && len(base) > bestLen {
			bestPrefix = prefix
			bestLen = len(base)
		}
	}
	if bestLen == 0 {
		return iri
	}
	local := iri[bestLen:]
	if local == "" || strings.ContainsAny(local, "/#") {
		return iri
	}
	return bestPrefix + ":" + local
}

// IsAbsolute reports whether an identifier is already a full IRI rather
// than compact notation.
func IsAbsolute(id string) bool {
	return strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") ||
		strings.HasPrefix(id, "urn:")
}

// LocalName returns the part of a compact identifier after the prefix.
// For "wot:Thing" it returns "Thing". Identifiers without a prefix are
// returned unchanged.
func LocalName(curie string) string {
	if idx := strings.Index(curie, ":"); idx >= 0 {
		return curie[idx+1:]
	}
	return curie
}

// Sorted returns prefix names in deterministic order, for serialization
// and logging.
func (p Prefixes) Sorted() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
