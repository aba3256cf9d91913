package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semgate/ecosystem"
	"github.com/c360studio/semgate/jsonld"
	"github.com/c360studio/semgate/vocabulary"
)

var testPrefixes = vocabulary.DefaultPrefixes().Merge(vocabulary.Prefixes{
	"core": "http://example.org/core#",
})

func TestApplyRenamesMatchedKeys(t *testing.T) {
	data := map[string]any{
		"label":  "Central",
		"extras": map[string]any{"label": "Nested"},
	}
	mappings := []ecosystem.Mapping{
		{Key: "label", Predicate: "core:name"},
	}

	out := Apply(data, mappings, testPrefixes).(map[string]any)

	assert.Equal(t, "Central", out["core:name"])
	// Matches are rewritten at every depth; the source key stays, it
	// simply never earns a context entry downstream.
	nested := out["extras"].(map[string]any)
	assert.Equal(t, "Nested", nested["core:name"])
	assert.Equal(t, "Nested", nested["label"])
	assert.Equal(t, "Central", out["label"])
}

func TestApplyAbsolutePredicateLandsOnCompactKey(t *testing.T) {
	data := map[string]any{"label": "Central"}
	mappings := []ecosystem.Mapping{
		{Key: "label", Predicate: "http://example.org/core#name"},
	}

	out := Apply(data, mappings, testPrefixes).(map[string]any)
	assert.Equal(t, "Central", out["core:name"])
}

func TestApplyIsIdempotentOnUnmatchedFields(t *testing.T) {
	data := map[string]any{
		"untouched": "value",
		"list":      []any{map[string]any{"inner": 1.0}},
	}
	mappings := []ecosystem.Mapping{
		{Key: "nothing-matches-this", Predicate: "core:x"},
	}

	once := Apply(data, mappings, testPrefixes)
	twice := Apply(once, mappings, testPrefixes)

	assert.Equal(t, map[string]any{
		"untouched": "value",
		"list":      []any{map[string]any{"inner": 1.0}},
	}, twice)
}

func TestApplyMergesIntoDeduplicatedList(t *testing.T) {
	data := map[string]any{
		"name":  "Central",
		"title": "Central",
		"alias": "Hub",
	}
	mappings := []ecosystem.Mapping{
		{Key: "name", Predicate: "core:label"},
		{Key: "title", Predicate: "core:label"},
		{Key: "alias", Predicate: "core:label"},
	}

	out := Apply(data, mappings, testPrefixes).(map[string]any)

	merged, ok := out["core:label"].([]any)
	require.True(t, ok, "overlapping targets should merge into a list, got %T", out["core:label"])
	assert.ElementsMatch(t, []any{"Central", "Hub"}, merged)
}

func TestApplyContainerWrapsBareResponses(t *testing.T) {
	data := []any{"a", "b"}
	mappings := []ecosystem.Mapping{
		{Key: ecosystem.ContainerKey, Predicate: "core:items"},
	}

	out := Apply(data, mappings, testPrefixes).(map[string]any)
	assert.Equal(t, []any{"a", "b"}, out["core:items"])
}

func TestApplyLimitTruncatesLists(t *testing.T) {
	data := map[string]any{"stops": []any{"s1", "s2", "s3"}}
	mappings := []ecosystem.Mapping{
		{Key: "stops", Predicate: "core:firstStop", Limit: true},
	}

	out := Apply(data, mappings, testPrefixes).(map[string]any)
	assert.Equal(t, []any{"s1"}, out["core:firstStop"])
}

func TestApplyPathNarrowing(t *testing.T) {
	data := map[string]any{
		"payload": map[string]any{"label": "Deep"},
	}
	mappings := []ecosystem.Mapping{
		{Key: "label", Predicate: "core:name", Path: "payload"},
	}

	out := Apply(data, mappings, testPrefixes).(map[string]any)
	assert.Equal(t, "Deep", out["core:name"])
}

func TestApplyPathMissFallsBackToWholeTree(t *testing.T) {
	data := map[string]any{"label": "Flat"}
	mappings := []ecosystem.Mapping{
		{Key: "label", Predicate: "core:name", Path: "no.such.path"},
	}

	out := Apply(data, mappings, testPrefixes).(map[string]any)
	assert.Equal(t, "Flat", out["core:name"])
}

func TestApplySkipsNilValues(t *testing.T) {
	data := map[string]any{"label": nil}
	mappings := []ecosystem.Mapping{
		{Key: "label", Predicate: "core:name"},
	}

	out := Apply(data, mappings, testPrefixes).(map[string]any)
	assert.NotContains(t, out, "core:name")
}

func TestApplyTransformEmitsDeferredReferences(t *testing.T) {
	data := map[string]any{"connectedTo": []any{"st-1", "st-2"}}
	mappings := []ecosystem.Mapping{
		{
			Key:       "connectedTo",
			Predicate: "core:connects",
			Transform: ecosystem.ResourceTransform{ResourceID: "station", Var: "sid"},
		},
	}

	out := Apply(data, mappings, testPrefixes).(map[string]any)
	refs, ok := out["core:connects"].([]any)
	require.True(t, ok)
	require.Len(t, refs, 2)

	uriFor := jsonld.URIProvider(func(id string, args map[string]string) string {
		return "http://gw/" + id + "/" + args["sid"]
	})
	deferred, ok := refs[0].(jsonld.Deferred)
	require.True(t, ok)
	resolved := deferred.Resolve("core:connects", nil, uriFor, nil, nil)
	assert.Equal(t, []any{"http://gw/station/st-1"}, resolved)
}
