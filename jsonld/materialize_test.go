package jsonld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semgate/graph"
	"github.com/c360studio/semgate/vocabulary"
)

func labelDoc(label string) map[string]any {
	return map[string]any{
		"@context": map[string]any{
			"label": map[string]any{"@id": "http://example.org/core#label"},
		},
		"@graph": map[string]any{
			"@id":   "http://gw/station",
			"label": label,
		},
	}
}

func TestMaterializeAddsTriples(t *testing.T) {
	g := graph.New()
	added, err := Materialize(labelDoc("Central"), g)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	objects := g.Objects("http://gw/station", "http://example.org/core#label")
	require.Len(t, objects, 1)
	assert.Equal(t, "Central", objects[0].Value())
}

func TestMaterializeIsIdempotentOnTarget(t *testing.T) {
	g := graph.New()
	_, err := Materialize(labelDoc("Central"), g)
	require.NoError(t, err)

	added, err := Materialize(labelDoc("Central"), g)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, g.Len())
}

// nested blank node document: the anonymous operator appears as the
// object of one triple and the subject of another.
func operatorDoc() map[string]any {
	return map[string]any{
		"@context": map[string]any{
			"operator": map[string]any{"@id": "http://example.org/core#operator", "@type": "@id"},
			"label":    map[string]any{"@id": "http://example.org/core#label"},
		},
		"@graph": map[string]any{
			"@id": "http://gw/station",
			"operator": map[string]any{
				"label": "Metro Co",
			},
		},
	}
}

func TestMaterializeBlankIdentityStableWithinCall(t *testing.T) {
	g := graph.New()
	_, err := Materialize(operatorDoc(), g)
	require.NoError(t, err)

	var asObject, asSubject string
	for _, triple := range g.Triples() {
		if triple.Object.IsBlank() {
			asObject = triple.Object.Value()
		}
		if triple.Subject.IsBlank() {
			asSubject = triple.Subject.Value()
		}
	}
	require.NotEmpty(t, asObject)
	require.NotEmpty(t, asSubject)
	assert.Equal(t, asObject, asSubject)
}

func TestMaterializeBlankIdentityFreshAcrossCalls(t *testing.T) {
	first := graph.New()
	_, err := Materialize(operatorDoc(), first)
	require.NoError(t, err)

	second := graph.New()
	_, err = Materialize(operatorDoc(), second)
	require.NoError(t, err)

	firstBlanks := blankIDs(first)
	secondBlanks := blankIDs(second)
	require.NotEmpty(t, firstBlanks)
	for id := range secondBlanks {
		assert.NotContains(t, firstBlanks, id)
	}
}

func blankIDs(g *graph.Graph) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, t := range g.Triples() {
		if t.Subject.IsBlank() {
			ids[t.Subject.Value()] = struct{}{}
		}
		if t.Object.IsBlank() {
			ids[t.Object.Value()] = struct{}{}
		}
	}
	return ids
}

func datetimeDoc(value string) map[string]any {
	return map[string]any{
		"@context": map[string]any{
			"updated": map[string]any{
				"@id":   "http://example.org/core#updated",
				"@type": vocabulary.XSDDateTime,
			},
		},
		"@graph": map[string]any{
			"@id":     "http://gw/station",
			"updated": value,
		},
	}
}

func TestMaterializeDatetimeRoundTrip(t *testing.T) {
	// The same instant in epoch seconds, ISO-8601, and RFC-822 style.
	forms := []string{
		"1136239445",
		"2006-01-02T22:04:05Z",
		"Mon, 02 Jan 2006 15:04:05 -0700",
	}

	for _, form := range forms {
		g := graph.New()
		_, err := Materialize(datetimeDoc(form), g)
		require.NoError(t, err)

		objects := g.Objects("http://gw/station", "http://example.org/core#updated")
		require.Len(t, objects, 1, "input %q", form)
		assert.Equal(t, "2006-01-02T22:04:05Z", objects[0].Value(), "input %q", form)
		assert.Equal(t, vocabulary.XSDDateTime, objects[0].Datatype(), "input %q", form)
	}
}

func TestMaterializeUnparsableDatetimeFallsBackToString(t *testing.T) {
	g := graph.New()
	_, err := Materialize(datetimeDoc("sometime soon"), g)
	require.NoError(t, err)

	objects := g.Objects("http://gw/station", "http://example.org/core#updated")
	require.Len(t, objects, 1)
	assert.Equal(t, "sometime soon", objects[0].Value())
	assert.Empty(t, objects[0].Datatype())
}

func TestCoerceLiteralGenericRange(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"integer", "42", "42"},
		{"float keeps fraction", "4.5", "4.5"},
		{"whole float collapses", "4.0", "4"},
		{"non-numeric untouched", "not a number", "not a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := coerceLiteral(tt.value, vocabulary.RDFSLit)
			assert.Equal(t, tt.want, term.Value())
			assert.Empty(t, term.Datatype())
		})
	}
}

func TestCoerceLiteralPassesThroughOtherDatatypes(t *testing.T) {
	term := coerceLiteral("42", vocabulary.XSDInteger)
	assert.Equal(t, "42", term.Value())
	assert.Equal(t, vocabulary.XSDInteger, term.Datatype())
}
