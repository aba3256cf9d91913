package gateway

import (
	"context"
	"errors"

	"github.com/c360studio/semgate/describe"
	"github.com/c360studio/semgate/seed"
)

// ErrNoEngine reports a query or fragment request against a gateway
// with no engine configured.
var ErrNoEngine = errors.New("gateway: no query engine configured")

// Hooks is what the gateway lends an external query engine for one
// request: a way to dereference resources, the current seed set, and
// the collector owned by the request's parameterization.
type Hooks struct {
	Loader    describe.Loader
	Seeds     func() []seed.Seed
	Collector Collector
}

// Engine is the external query/fragment engine. The gateway does not
// implement one; it only supplies the hooks an injected engine consumes.
type Engine interface {
	// Query evaluates a query against the ecosystem and returns its
	// serialized result.
	Query(ctx context.Context, query string, hooks Hooks) ([]byte, error)

	// Fragment returns the serialized triple fragment matching a
	// pattern.
	Fragment(ctx context.Context, pattern string, hooks Hooks) ([]byte, error)
}

// Query delegates to the configured engine with a collector for the
// given parameterization, instantiating matching roots as forced seeds
// first.
func (g *Gateway) Query(ctx context.Context, query string, params map[string]string) ([]byte, error) {
	if g.engine == nil {
		return nil, ErrNoEngine
	}
	hooks, err := g.hooksFor(params)
	if err != nil {
		return nil, err
	}
	return g.engine.Query(ctx, query, hooks)
}

// Fragment delegates to the configured engine, same contract as Query.
func (g *Gateway) Fragment(ctx context.Context, pattern string, params map[string]string) ([]byte, error) {
	if g.engine == nil {
		return nil, ErrNoEngine
	}
	hooks, err := g.hooksFor(params)
	if err != nil {
		return nil, err
	}
	return g.engine.Fragment(ctx, pattern, hooks)
}

func (g *Gateway) hooksFor(params map[string]string) (Hooks, error) {
	forced := g.proxy.InstantiateSeeds(params)
	collector, err := g.collectors.get(params, forced)
	if err != nil {
		return Hooks{}, err
	}
	return Hooks{
		Loader:    g.proxy.Loader(),
		Seeds:     g.proxy.Seeds,
		Collector: collector,
	}, nil
}
