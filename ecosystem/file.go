package ecosystem

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semgate/graph"
	"github.com/c360studio/semgate/vocabulary"
)

// tedFile is the YAML document shape of an ecosystem definition.
type tedFile struct {
	Prefixes  map[string]string `yaml:"prefixes"`
	Resources []resourceSpec    `yaml:"resources"`
}

type resourceSpec struct {
	ID        string         `yaml:"id"`
	Node      string         `yaml:"node"`
	Types     []string       `yaml:"types"`
	Vars      []string       `yaml:"vars"`
	DependsOn []string       `yaml:"depends_on"`
	Graph     []tripleSpec   `yaml:"graph"`
	Endpoints []endpointSpec `yaml:"endpoints"`
	SameAs    []string       `yaml:"same_as"`
}

type tripleSpec struct {
	S string     `yaml:"s"`
	P string     `yaml:"p"`
	O objectSpec `yaml:"o"`
}

// objectSpec accepts either a scalar ("core:Station", "_:hub", "some
// literal") or an explicit form {value: "08:00", datatype: "xsd:time"}.
type objectSpec struct {
	raw      string
	datatype string
	explicit bool // explicit literal form, skip IRI classification
}

func (o *objectSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		o.raw = node.Value
		return nil
	case yaml.MappingNode:
		var form struct {
			Value    string `yaml:"value"`
			Datatype string `yaml:"datatype"`
		}
		if err := node.Decode(&form); err != nil {
			return err
		}
		o.raw = form.Value
		o.datatype = form.Datatype
		o.explicit = true
		return nil
	default:
		return fmt.Errorf("object must be a scalar or a value/datatype mapping")
	}
}

type endpointSpec struct {
	Href     string            `yaml:"href"`
	Path     string            `yaml:"path"`
	Order    int               `yaml:"order"`
	Media    string            `yaml:"media"`
	Headers  map[string]string `yaml:"headers"`
	Mappings []mappingSpec     `yaml:"mappings"`
}

type mappingSpec struct {
	Key       string         `yaml:"key"`
	Predicate string         `yaml:"predicate"`
	Path      string         `yaml:"path"`
	Limit     bool           `yaml:"limit"`
	Transform *transformSpec `yaml:"transform"`
}

type transformSpec struct {
	Resource string `yaml:"resource"`
	Var      string `yaml:"var"`
}

func (f *tedFile) build() (*Ecosystem, error) {
	prefixes := vocabulary.DefaultPrefixes().Merge(vocabulary.Prefixes(f.Prefixes))

	eco := &Ecosystem{
		prefixes: prefixes,
		byID:     make(map[string]*Description, len(f.Resources)),
		byNode:   make(map[string]string, len(f.Resources)),
		preds:    make(map[string][]string),
	}

	for _, spec := range f.Resources {
		if spec.ID == "" {
			return nil, fmt.Errorf("resource without an id")
		}
		if _, dup := eco.byID[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate resource id %s", spec.ID)
		}

		node := spec.Node
		if node == "" {
			node = spec.ID
		}
		node = strings.TrimPrefix(node, "_:")

		td := &Description{
			ID:        spec.ID,
			Node:      node,
			Types:     spec.Types,
			Vars:      spec.Vars,
			DependsOn: spec.DependsOn,
			SameAs:    spec.SameAs,
		}

		for i, ts := range spec.Graph {
			triple, err := buildTriple(td, ts, prefixes)
			if err != nil {
				return nil, fmt.Errorf("resource %s graph entry %d: %w", spec.ID, i, err)
			}
			td.Static = append(td.Static, triple)
		}

		for _, es := range spec.Endpoints {
			ep, err := buildEndpoint(es)
			if err != nil {
				return nil, fmt.Errorf("resource %s: %w", spec.ID, err)
			}
			td.Endpoints = append(td.Endpoints, ep)
		}

		eco.byID[spec.ID] = td
		eco.byNode[node] = spec.ID
		eco.order = append(eco.order, spec.ID)
		eco.preds[spec.ID] = spec.DependsOn
	}

	if err := eco.validate(); err != nil {
		return nil, err
	}
	return eco, nil
}

func buildTriple(td *Description, ts tripleSpec, prefixes vocabulary.Prefixes) (graph.Triple, error) {
	if ts.P == "" {
		return graph.Triple{}, fmt.Errorf("triple without a predicate")
	}

	var subject graph.Term
	switch {
	case ts.S == "":
		subject = graph.NewBlank(td.Node)
	case strings.HasPrefix(ts.S, "_:"):
		subject = graph.NewBlank(strings.TrimPrefix(ts.S, "_:"))
	default:
		subject = graph.NewIRI(prefixes.Expand(ts.S))
	}

	predicate := graph.NewIRI(prefixes.Expand(ts.P))

	var object graph.Term
	switch {
	case ts.O.explicit:
		object = graph.NewTypedLiteral(ts.O.raw, prefixes.Expand(ts.O.datatype))
	case strings.HasPrefix(ts.O.raw, "_:"):
		object = graph.NewBlank(strings.TrimPrefix(ts.O.raw, "_:"))
	case isIRIObject(ts.O.raw, prefixes):
		object = graph.NewIRI(prefixes.Expand(ts.O.raw))
	default:
		object = graph.NewLiteral(ts.O.raw)
	}

	return graph.Triple{Subject: subject, Predicate: predicate, Object: object}, nil
}

// isIRIObject classifies a scalar object: absolute IRIs and compact
// identifiers with a declared prefix are IRIs, everything else is a
// literal.
func isIRIObject(raw string, prefixes vocabulary.Prefixes) bool {
	if vocabulary.IsAbsolute(raw) {
		return true
	}
	idx := strings.Index(raw, ":")
	if idx <= 0 {
		return false
	}
	_, known := prefixes[raw[:idx]]
	return known
}

func buildEndpoint(es endpointSpec) (Endpoint, error) {
	if es.Href == "" && es.Path == "" {
		return Endpoint{}, fmt.Errorf("endpoint needs an href or a path")
	}
	ep := Endpoint{
		Href:    es.Href,
		Path:    es.Path,
		Order:   es.Order,
		Media:   es.Media,
		Headers: es.Headers,
	}
	for _, ms := range es.Mappings {
		if ms.Key == "" || ms.Predicate == "" {
			return Endpoint{}, fmt.Errorf("mapping needs key and predicate")
		}
		m := Mapping{
			Key:       ms.Key,
			Predicate: ms.Predicate,
			Path:      ms.Path,
			Limit:     ms.Limit,
		}
		if ms.Transform != nil {
			if ms.Transform.Resource == "" {
				return Endpoint{}, fmt.Errorf("mapping %s: transform needs a resource", ms.Key)
			}
			m.Transform = ResourceTransform{
				ResourceID: ms.Transform.Resource,
				Var:        ms.Transform.Var,
			}
		}
		ep.Mappings = append(ep.Mappings, m)
	}
	return ep, nil
}
