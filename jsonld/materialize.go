package jsonld

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/piprate/json-gold/ld"

	"github.com/c360studio/semgate/graph"
	"github.com/c360studio/semgate/vocabulary"
)

// isoLayouts are the ISO-8601 shapes accepted for datetime literals, in
// order of specificity.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// rfc822Layouts are the RFC-822-style date shapes accepted as the last
// datetime fallback.
var rfc822Layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// Materialize normalizes a JSON-LD document into RDF statements and adds
// them to the target graph. It returns the number of statements added
// (duplicates do not multiply).
//
// Blank node identifiers are renamed through a session-scoped map: the
// same normalized blank id maps to the same materialized blank node
// within one call, and two calls never collide.
func Materialize(doc any, g *graph.Graph) (int, error) {
	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")

	dataset, err := proc.ToRDF(doc, opts)
	if err != nil {
		return 0, fmt.Errorf("normalize JSON-LD document: %w", err)
	}
	rdf, ok := dataset.(*ld.RDFDataset)
	if !ok {
		return 0, fmt.Errorf("normalize JSON-LD document: unexpected dataset type %T", dataset)
	}

	session := newBlankSession()
	added := 0
	for _, quad := range rdf.Graphs["@default"] {
		subject := session.convert(quad.Subject)
		predicate := session.convert(quad.Predicate)
		object := session.convert(quad.Object)
		if g.Add(graph.Triple{Subject: subject, Predicate: predicate, Object: object}) {
			added++
		}
	}
	return added, nil
}

// blankSession renames normalized blank ids to identifiers that are
// stable within one materialization and fresh across materializations.
type blankSession struct {
	salt string
	ids  map[string]string
}

func newBlankSession() *blankSession {
	return &blankSession{
		salt: strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		ids:  make(map[string]string),
	}
}

func (s *blankSession) rename(bid string) string {
	if mapped, ok := s.ids[bid]; ok {
		return mapped
	}
	mapped := fmt.Sprintf("%s-%d", s.salt, len(s.ids))
	s.ids[bid] = mapped
	return mapped
}

// convert turns a normalized term into a graph term, applying
// datatype-directed literal coercion. Dataset quads carry the node
// structs by value; the pointer forms are accepted too.
func (s *blankSession) convert(node ld.Node) graph.Term {
	switch n := node.(type) {
	case ld.IRI:
		return graph.NewIRI(n.Value)
	case *ld.IRI:
		return graph.NewIRI(n.Value)
	case ld.BlankNode:
		return graph.NewBlank(s.rename(strings.TrimPrefix(n.Attribute, "_:")))
	case *ld.BlankNode:
		return graph.NewBlank(s.rename(strings.TrimPrefix(n.Attribute, "_:")))
	case ld.Literal:
		return coerceLiteral(n.Value, n.Datatype)
	case *ld.Literal:
		return coerceLiteral(n.Value, n.Datatype)
	default:
		return graph.NewLiteral(node.GetValue())
	}
}

// coerceLiteral applies the datatype-directed fallback chains. Coercion
// failure is never fatal: the value falls back to an untyped string.
func coerceLiteral(value, datatype string) graph.Term {
	switch datatype {
	case vocabulary.XSDDateTime:
		if t, ok := parseDateTime(value); ok {
			return graph.NewTypedLiteral(t.UTC().Format(time.RFC3339), vocabulary.XSDDateTime)
		}
		return graph.NewLiteral(value)

	case vocabulary.RDFSLit:
		// Generic literal: best-effort numeric coercion, untyped
		// string otherwise.
		if canon, ok := canonicalNumber(value); ok {
			return graph.NewLiteral(canon)
		}
		return graph.NewLiteral(value)

	case "", vocabulary.XSDString:
		return graph.NewLiteral(value)

	default:
		return graph.NewTypedLiteral(value, datatype)
	}
}

// parseDateTime attempts the fixed datetime fallback order: numeric
// epoch seconds, then ISO-8601, then RFC-822-style dates.
func parseDateTime(value string) (time.Time, bool) {
	if epoch, err := strconv.ParseFloat(value, 64); err == nil {
		sec := int64(epoch)
		nsec := int64((epoch - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), true
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range rfc822Layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func canonicalNumber(value string) (string, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return "", false
	}
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'g', -1, 64), true
}
