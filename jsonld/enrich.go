package jsonld

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/semgate/registry"
	"github.com/c360studio/semgate/vocabulary"
)

// Enricher lifts a mapped JSON tree into a JSON-LD document by
// annotating fields with type and property metadata from the registry.
type Enricher struct {
	Registry registry.TypeRegistry
	Prefixes vocabulary.Prefixes
	URIFor   URIProvider
	Logger   *slog.Logger
}

// Document is the enriched JSON-LD output: a context plus the annotated
// tree.
type Document struct {
	Context map[string]any
	Graph   map[string]any
}

// AsMap returns the document in the map shape the materializer consumes.
func (d *Document) AsMap() map[string]any {
	return map[string]any{
		"@context": d.Context,
		"@graph":   d.Graph,
	}
}

// Enrich annotates data with identity, types, and per-field context
// entries, recursing into nested maps and lists.
//
// Fields that do not match a declared property of the active types pass
// through untouched but get no context entry, so they contribute no
// predicates when materialized. A registry miss for a type or property
// skips annotation for that type or field; nothing synthetic is ever
// invented.
func (e *Enricher) Enrich(ctx context.Context, uri string, data map[string]any,
	types []string, docContext map[string]any, vars map[string]struct{},
	args map[string]string) *Document {

	if docContext == nil {
		// Seed the context with the namespace table so compact
		// identifiers used as context keys resolve as prefixed terms.
		docContext = make(map[string]any, len(e.Prefixes))
		for prefix, ns := range e.Prefixes {
			docContext[prefix] = ns
		}
	}
	if vars == nil {
		vars = make(map[string]struct{})
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jTypes := make([]any, 0, len(types))
	data["@id"] = uri

	for _, t := range types {
		typeInfo, err := e.Registry.GetType(ctx, t)
		if err != nil {
			logger.Debug("type not in registry, skipping annotation", "type", t, "error", err)
			continue
		}

		shortType := vocabulary.LocalName(t)
		docContext[shortType] = map[string]any{
			"@id":   e.Prefixes.Expand(t),
			"@type": "@id",
		}
		jTypes = append(jTypes, shortType)

		for _, key := range fieldKeys(data) {
			if !typeInfo.HasProperty(key) {
				continue
			}
			propInfo, err := e.Registry.GetProperty(ctx, key)
			if err != nil {
				logger.Debug("property not in registry, skipping annotation",
					"property", key, "error", err)
				continue
			}

			docContext[key] = e.contextEntry(key, propInfo, data[key])
			e.enrichValue(ctx, data, key, propInfo, docContext, vars, args)
		}
	}

	data["@type"] = jTypes
	return &Document{Context: docContext, Graph: data}
}

// contextEntry builds the JSON-LD context entry for one annotated field.
func (e *Enricher) contextEntry(key string, propInfo *registry.PropertyInfo, value any) map[string]any {
	entry := map[string]any{"@id": e.Prefixes.Expand(key)}
	if propInfo.Kind != registry.KindData {
		entry["@type"] = "@id"
		return entry
	}

	datatype := ""
	if len(propInfo.Range) > 0 {
		if rng := propInfo.Range[0]; rng == vocabulary.GenericResourceRange {
			datatype = vocabulary.NaturalDatatype(value)
		} else {
			datatype = e.Prefixes.Expand(rng)
		}
	}
	if datatype != "" {
		entry["@type"] = datatype
	}
	return entry
}

// enrichValue recurses into the field's value: nested maps become nested
// graphs under fresh blank identities, deferred values are resolved, and
// lists of maps recurse per element.
func (e *Enricher) enrichValue(ctx context.Context, data map[string]any, key string,
	propInfo *registry.PropertyInfo, docContext map[string]any,
	vars map[string]struct{}, args map[string]string) {

	switch value := data[key].(type) {
	case map[string]any:
		sub := e.Enrich(ctx, freshBlankID(), value, propInfo.Range, docContext, nil, args)
		data[key] = sub.Graph

	case Deferred:
		data[key] = value.Resolve(key, docContext, e.URIFor, vars, args)

	case []any:
		if allDeferred(value) {
			resolved := make([]any, 0, len(value))
			for _, item := range value {
				resolved = append(resolved, item.(Deferred).Resolve(key, docContext, e.URIFor, vars, args)...)
			}
			data[key] = resolved
			return
		}
		if propInfo.Kind == registry.KindData {
			return
		}
		subs := make([]any, 0, len(value))
		for _, item := range value {
			nested, ok := item.(map[string]any)
			if !ok {
				subs = append(subs, item)
				continue
			}
			sub := e.Enrich(ctx, freshBlankID(), nested, propInfo.Range, docContext, nil, args)
			subs = append(subs, sub.Graph)
		}
		data[key] = subs
	}
}

// allDeferred reports whether every element is a deferred value. A list
// mixing concrete and deferred values is unsupported by contract.
func allDeferred(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if _, ok := item.(Deferred); !ok {
			return false
		}
	}
	return true
}

func fieldKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if strings.HasPrefix(k, "@") {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// freshBlankID mints a synthetic blank identity for a nested graph.
func freshBlankID() string {
	return "_:b" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
