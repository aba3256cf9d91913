// Package vocabulary provides namespace prefix management and well-known
// RDF identifiers for the gateway.
//
// Resource descriptions and the type registry exchange identifiers in
// compact (CURIE) notation, e.g. "wot:Thing". This package expands and
// compacts those identifiers against a prefix table and infers natural
// XSD datatypes for untyped literal values.
package vocabulary
