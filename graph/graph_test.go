package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semgate/vocabulary"
)

func TestAddIsIdempotent(t *testing.T) {
	g := New()
	triple := Triple{
		Subject:   NewIRI("http://example.org/s"),
		Predicate: NewIRI("http://example.org/p"),
		Object:    NewLiteral("v"),
	}

	assert.True(t, g.Add(triple))
	assert.False(t, g.Add(triple))
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.Has(triple))
}

func TestObjects(t *testing.T) {
	g := New()
	s := NewIRI("http://example.org/s")
	p := NewIRI("http://example.org/p")
	g.Add(Triple{Subject: s, Predicate: p, Object: NewLiteral("a")})
	g.Add(Triple{Subject: s, Predicate: p, Object: NewLiteral("b")})
	g.Add(Triple{Subject: s, Predicate: NewIRI("http://example.org/q"), Object: NewLiteral("c")})

	objects := g.Objects("http://example.org/s", "http://example.org/p")
	require.Len(t, objects, 2)
	assert.Equal(t, "a", objects[0].Value())
	assert.Equal(t, "b", objects[1].Value())
}

func TestTriplesReturnsCopy(t *testing.T) {
	g := New()
	g.Add(Triple{
		Subject:   NewIRI("http://example.org/s"),
		Predicate: NewIRI("http://example.org/p"),
		Object:    NewLiteral("v"),
	})

	triples := g.Triples()
	triples[0].Object = NewLiteral("mutated")
	assert.Equal(t, "v", g.Triples()[0].Object.Value())
}

func TestWriteNTriplesSorted(t *testing.T) {
	g := New()
	g.Add(Triple{
		Subject:   NewIRI("http://example.org/z"),
		Predicate: NewIRI("http://example.org/p"),
		Object:    NewLiteral("late"),
	})
	g.Add(Triple{
		Subject:   NewIRI("http://example.org/a"),
		Predicate: NewIRI("http://example.org/p"),
		Object:    NewTypedLiteral("1", vocabulary.XSDInteger),
	})
	g.Add(Triple{
		Subject:   NewBlank("b0"),
		Predicate: NewIRI("http://example.org/p"),
		Object:    NewIRI("http://example.org/o"),
	})

	var sb strings.Builder
	require.NoError(t, g.WriteNTriples(&sb))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `<http://example.org/a> <http://example.org/p> "1"^^<http://www.w3.org/2001/XMLSchema#integer> .`, lines[0])
	assert.Equal(t, `<http://example.org/z> <http://example.org/p> "late" .`, lines[1])
	assert.Equal(t, `_:b0 <http://example.org/p> <http://example.org/o> .`, lines[2])
}

func TestTermNT(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"iri", NewIRI("http://example.org/x"), "<http://example.org/x>"},
		{"blank", NewBlank("b1"), "_:b1"},
		{"blank with marker", NewBlank("_:b1"), "_:b1"},
		{"plain literal", NewLiteral(`say "hi"`), `"say \"hi\""`},
		{"typed literal", NewTypedLiteral("2", vocabulary.XSDInteger), `"2"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"empty datatype is plain", NewTypedLiteral("x", ""), `"x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.NT())
		})
	}
}

func TestBindMergesPrefixes(t *testing.T) {
	g := New()
	g.Bind(vocabulary.Prefixes{"ex": "http://example.org/"})
	g.Bind(vocabulary.Prefixes{"wot": "http://www.w3.org/ns/wot#"})

	prefixes := g.Prefixes()
	assert.Equal(t, "http://example.org/", prefixes["ex"])
	assert.Equal(t, "http://www.w3.org/ns/wot#", prefixes["wot"])
}
