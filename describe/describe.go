package describe

import (
	"context"
	"sort"

	"github.com/c360studio/semgate/ecosystem"
	"github.com/c360studio/semgate/graph"
	"github.com/c360studio/semgate/jsonld"
	"github.com/c360studio/semgate/mapping"
	"github.com/c360studio/semgate/vocabulary"
)

// Describe materializes the RDF graph for one resource under the given
// instantiation arguments. Query parameters ride along to upstream
// endpoint calls but do not participate in the resource's identity.
//
// Only an unknown resource id surfaces as an error. Everything else is
// partial degradation: upstream failures, registry misses, and
// normalization failures are logged and skipped, and the graph
// accumulated so far is returned. A resource always answers with some
// graph. A panic anywhere in the pipeline degrades the same way.
func (p *Proxy) Describe(ctx context.Context, id string, args map[string]string,
	queryParams map[string]string) (g *graph.Graph, directive CacheDirective, err error) {

	td, err := p.eco.Description(id)
	if err != nil {
		return nil, CacheDirective{}, err
	}

	g = graph.New()
	g.Bind(p.prefixes)
	directive = DefaultCacheDirective()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("describe pipeline panicked, returning partial graph",
				"resource", id, "panic", r, "triples", g.Len())
			directive = DefaultCacheDirective()
		}
	}()

	uri := p.URLFor(id, args)
	subject := graph.NewIRI(uri)

	p.copyStatic(td, subject, args, g)
	declared := p.expandTypes(ctx, td, subject, g)
	p.mergeSameAs(ctx, td, subject, declared, g)

	if len(td.Endpoints) == 0 {
		return g, directive, nil
	}

	endpoints, err := p.eco.ComposeEndpoints(id)
	if err != nil {
		// A composition failure is a configuration defect; the static
		// part of the description still stands.
		p.logger.Error("endpoint composition failed", "resource", id, "error", err)
		return g, DefaultCacheDirective(), nil
	}
	sort.SliceStable(endpoints, func(i, j int) bool {
		return endpoints[i].Order < endpoints[j].Order
	})

	callArgs := mergeParams(queryParams, args)
	enricher := &jsonld.Enricher{
		Registry: p.reg,
		Prefixes: p.prefixes,
		URIFor:   p.URLFor,
		Logger:   p.logger,
	}

	for _, ep := range endpoints {
		resp, err := ep.Invoke(ctx, p.client, callArgs)
		if err != nil {
			p.logger.Warn("endpoint call failed, skipping",
				"resource", id, "endpoint", ep.Href, "error", err)
			continue
		}
		if !resp.Success() {
			p.logger.Warn("endpoint answered non-success, skipping",
				"resource", id, "endpoint", ep.Href, "status", resp.Status)
			continue
		}

		mapped := mapping.Apply(resp.Data, ep.Mappings, p.prefixes)
		tree, ok := mapped.(map[string]any)
		if !ok {
			p.logger.Debug("mapped response is not a keyed tree, skipping",
				"resource", id, "endpoint", ep.Href)
			continue
		}

		doc := enricher.Enrich(ctx, uri, tree, td.Types, nil, td.VarSet(), args)
		added, err := jsonld.Materialize(doc.AsMap(), g)
		if err != nil {
			p.logger.Warn("materialization failed, skipping endpoint",
				"resource", id, "endpoint", ep.Href, "error", err)
			continue
		}
		p.logger.Debug("endpoint materialized",
			"resource", id, "endpoint", ep.Href, "triples", added)

		if resp.HasMaxAge {
			directive.Observe(resp.MaxAge)
		}
	}

	return g, directive, nil
}

// copyStatic transfers the declared triples into the output graph.
// The resource's own placeholder node becomes its URI; cross-referencing
// blank objects become the referenced resource's URI under the same
// arguments; literal objects naming a supplied argument are replaced by
// the argument's value. Statements subjected to another resource's
// blank node belong to that resource and are dropped.
func (p *Proxy) copyStatic(td *ecosystem.Description, subject graph.Term,
	args map[string]string, g *graph.Graph) {

	for _, t := range td.Static {
		s := t.Subject
		if s.IsBlank() {
			if s.Value() == td.Node {
				s = subject
			} else if _, owned := p.eco.NodeOwner(s.Value()); owned {
				continue
			}
		}

		o := t.Object
		switch {
		case o.IsBlank() && o.Value() != td.Node:
			if owner, ok := p.eco.NodeOwner(o.Value()); ok {
				o = graph.NewIRI(p.URLFor(owner, args))
			}
		case o.IsBlank():
			o = subject
		case o.IsLiteral():
			o = substituteArg(o, args)
		}

		g.Add(graph.Triple{Subject: s, Predicate: t.Predicate, Object: o})
	}
}

// expandTypes asserts the resource's declared types plus every
// registered supertype, and returns the set of properties those types
// declare, keyed in compact notation, for same-as filtering.
func (p *Proxy) expandTypes(ctx context.Context, td *ecosystem.Description,
	subject graph.Term, g *graph.Graph) map[string]struct{} {

	declared := make(map[string]struct{})
	rdfType := graph.NewIRI(vocabulary.RDFType)

	for _, t := range td.Types {
		g.Add(graph.Triple{Subject: subject, Predicate: rdfType,
			Object: graph.NewIRI(p.prefixes.Expand(t))})

		info, err := p.reg.GetType(ctx, t)
		if err != nil {
			p.logger.Debug("type not in registry, no hierarchy expansion",
				"type", t, "error", err)
			continue
		}
		for _, super := range info.Super {
			g.Add(graph.Triple{Subject: subject, Predicate: rdfType,
				Object: graph.NewIRI(p.prefixes.Expand(super))})
		}
		for _, prop := range info.Properties {
			declared[prop] = struct{}{}
		}
	}
	return declared
}

// mergeSameAs asserts and merges externally hosted equivalents. Only
// statements whose predicate the resource's types declare are copied;
// the source's own subject is rewritten to the resource, other named
// subjects are skipped, blank subjects pass through.
func (p *Proxy) mergeSameAs(ctx context.Context, td *ecosystem.Description,
	subject graph.Term, declared map[string]struct{}, g *graph.Graph) {

	sameAs := graph.NewIRI(vocabulary.OWLSameAs)
	for _, source := range td.SameAs {
		g.Add(graph.Triple{Subject: subject, Predicate: sameAs,
			Object: graph.NewIRI(source)})

		loaded, err := p.loader.Load(ctx, source)
		if err != nil {
			p.logger.Warn("same-as source unavailable, skipping",
				"resource", td.ID, "source", source, "error", err)
			continue
		}

		for _, t := range loaded.Triples() {
			key := p.prefixes.Compact(t.Predicate.Value())
			if _, ok := declared[key]; !ok {
				continue
			}
			s := t.Subject
			switch {
			case s.IsIRI() && s.Value() == source:
				s = subject
			case s.IsIRI():
				continue
			}
			g.Add(graph.Triple{Subject: s, Predicate: t.Predicate, Object: t.Object})
		}
	}
}

// substituteArg treats a literal as an argument placeholder: a literal
// whose value names a supplied argument is replaced by that argument's
// value, keeping the literal's declared datatype.
func substituteArg(o graph.Term, args map[string]string) graph.Term {
	v, ok := args[o.Value()]
	if !ok {
		return o
	}
	if dt := o.Datatype(); dt != "" {
		return graph.NewTypedLiteral(v, dt)
	}
	return graph.NewLiteral(v)
}

// mergeParams overlays instantiation arguments on query parameters;
// arguments win on collision.
func mergeParams(queryParams, args map[string]string) map[string]string {
	merged := make(map[string]string, len(queryParams)+len(args))
	for k, v := range queryParams {
		merged[k] = v
	}
	for k, v := range args {
		merged[k] = v
	}
	return merged
}
