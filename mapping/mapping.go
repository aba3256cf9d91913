// Package mapping applies declarative field-to-predicate rules to raw
// upstream JSON trees. The output tree keys matched fields by their
// target predicate in compact notation, ready for JSON-LD enrichment.
package mapping

import (
	"encoding/json"
	"reflect"

	"github.com/tidwall/gjson"

	"github.com/c360studio/semgate/ecosystem"
	"github.com/c360studio/semgate/vocabulary"
)

// Apply runs every mapping rule against the decoded JSON tree and
// returns the rewritten tree.
//
// Rules are applied in declaration order. A rule first narrows the tree
// with its optional path query (no match means no narrowing), then
// recursively searches for fields named by its key, rewriting each match
// under the target predicate. Values landing on an already-populated
// target merge into a deduplicated list instead of overwriting. Fields
// no rule matches are left in place, so later rules can still narrow
// into them.
func Apply(data any, mappings []ecosystem.Mapping, prefixes vocabulary.Prefixes) any {
	if len(mappings) == 0 {
		return data
	}

	// A $container rule wraps a bare scalar or list response into a
	// keyed structure so the key search has something to match.
	if _, keyed := data.(map[string]any); !keyed {
		for _, m := range mappings {
			if m.Key == ecosystem.ContainerKey {
				data = map[string]any{ecosystem.ContainerKey: data}
				break
			}
		}
	}

	for _, m := range mappings {
		target := targetKey(m, prefixes)

		if m.Path != "" {
			narrowed := pathData(m.Path, data)
			switch d := data.(type) {
			case []any:
				data = narrowed
			case map[string]any:
				switch n := narrowed.(type) {
				case map[string]any:
					for k, v := range n {
						d[k] = v
					}
				default:
					d[m.Key] = n
				}
			}
		}

		applyOne(data, m, target)
	}
	return data
}

// targetKey resolves the rule's predicate to compact notation; rules
// written with absolute IRIs still land on compact keys.
func targetKey(m ecosystem.Mapping, prefixes vocabulary.Prefixes) string {
	if vocabulary.IsAbsolute(m.Predicate) {
		return prefixes.Compact(m.Predicate)
	}
	return m.Predicate
}

// pathData narrows the tree with a gjson path query. Any failure or
// empty result means "no narrowing": the caller keeps the full tree.
func pathData(path string, data any) any {
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return data
	}
	return result.Value()
}

// applyOne recursively rewrites fields named m.Key anywhere in the tree.
func applyOne(md any, m ecosystem.Mapping, target string) {
	switch node := md.(type) {
	case map[string]any:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		for _, k := range keys {
			nextKey := k
			if k == m.Key {
				value := node[k]
				if value == nil {
					continue
				}
				if list, ok := value.([]any); ok && m.Limit && len(list) > 1 {
					value = list[:1]
				}
				if m.Transform != nil {
					value = m.Transform.Attach(node[k])
				}
				storeValue(node, target, value)
				nextKey = target
			}
			applyOne(node[nextKey], m, target)
		}
	case []any:
		for _, element := range node {
			applyOne(element, m, target)
		}
	}
}

// storeValue writes a mapped value under the target key, merging with an
// existing value into a deduplicated list rather than overwriting.
func storeValue(node map[string]any, target string, value any) {
	existing, present := node[target]
	if !present {
		node[target] = value
		return
	}
	if reflect.DeepEqual(existing, value) {
		return
	}
	list, ok := existing.([]any)
	if !ok {
		list = []any{existing}
	}
	for _, item := range list {
		if reflect.DeepEqual(item, value) {
			node[target] = list
			return
		}
	}
	node[target] = append(list, value)
}
