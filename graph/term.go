// Package graph provides the RDF term, triple, and in-memory graph types
// the materialization pipeline produces, plus publishing of materialized
// graphs to the knowledge-graph ingest stream.
package graph

import (
	"fmt"
	"strings"
)

// Kind discriminates the three RDF term kinds.
type Kind int

const (
	// KindIRI is a dereferenceable identifier.
	KindIRI Kind = iota
	// KindBlank is a graph-local blank node.
	KindBlank
	// KindLiteral is a (possibly datatyped) literal value.
	KindLiteral
)

// Term is one RDF term. The zero value is an empty IRI, which no valid
// triple contains.
type Term struct {
	kind     Kind
	value    string
	datatype string
}

// NewIRI returns an IRI term.
func NewIRI(value string) Term {
	return Term{kind: KindIRI, value: value}
}

// NewBlank returns a blank node term. The id must not carry the "_:"
// marker; it is added during serialization.
func NewBlank(id string) Term {
	return Term{kind: KindBlank, value: strings.TrimPrefix(id, "_:")}
}

// NewLiteral returns a plain literal term.
func NewLiteral(value string) Term {
	return Term{kind: KindLiteral, value: value}
}

// NewTypedLiteral returns a literal term with an explicit datatype IRI.
// An empty datatype yields a plain literal.
func NewTypedLiteral(value, datatype string) Term {
	return Term{kind: KindLiteral, value: value, datatype: datatype}
}

// Kind returns the term kind.
func (t Term) Kind() Kind { return t.kind }

// Value returns the IRI, blank node id, or literal lexical form.
func (t Term) Value() string { return t.value }

// Datatype returns the literal datatype IRI, or "" for plain literals
// and non-literals.
func (t Term) Datatype() string { return t.datatype }

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool { return t.kind == KindIRI }

// IsBlank reports whether the term is a blank node.
func (t Term) IsBlank() bool { return t.kind == KindBlank }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.kind == KindLiteral }

// NT renders the term in N-Triples syntax.
func (t Term) NT() string {
	switch t.kind {
	case KindIRI:
		return "<" + t.value + ">"
	case KindBlank:
		return "_:" + t.value
	default:
		lex := escapeLiteral(t.value)
		if t.datatype != "" {
			return fmt.Sprintf("%q^^<%s>", lex, t.datatype)
		}
		return fmt.Sprintf("%q", lex)
	}
}

// Triple is one RDF statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NT renders the triple as one N-Triples line without the trailing
// newline.
func (t Triple) NT() string {
	return t.Subject.NT() + " " + t.Predicate.NT() + " " + t.Object.NT() + " ."
}

func escapeLiteral(s string) string {
	// %q in Term.NT handles quotes and control characters; this only has
	// to keep multi-line literals on one line for the set key.
	return strings.ReplaceAll(s, "\r\n", "\n")
}
