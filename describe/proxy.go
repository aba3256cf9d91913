// Package describe implements the resource materialization pipeline:
// the per-request orchestrator that turns a resource id plus
// instantiation arguments into an RDF graph and a cache directive.
package describe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/c360studio/semgate/ecosystem"
	"github.com/c360studio/semgate/registry"
	"github.com/c360studio/semgate/seed"
	"github.com/c360studio/semgate/vocabulary"
)

// Config wires a Proxy.
type Config struct {
	// BaseURL is the externally visible base of this gateway including
	// its mount path, e.g. "http://host:5000/gw".
	BaseURL string

	// Ecosystem is the loaded resource description set.
	Ecosystem *ecosystem.Ecosystem

	// Registry is the type/property registry collaborator.
	Registry registry.TypeRegistry

	// Loader dereferences external URIs for same-as merging. Defaults
	// to an HTTPLoader sharing Client.
	Loader Loader

	// Client performs upstream endpoint calls. Timeouts live here; the
	// pipeline itself has none.
	Client *http.Client

	// Logger for pipeline events.
	Logger *slog.Logger
}

// Proxy answers describe requests for one ecosystem. Descriptions and
// the dependency graph are immutable after construction; the seed set
// is the only mutable state and is internally synchronized.
type Proxy struct {
	base     string
	eco      *ecosystem.Ecosystem
	reg      registry.TypeRegistry
	loader   Loader
	client   *http.Client
	logger   *slog.Logger
	prefixes vocabulary.Prefixes
	seeds    *seed.Registry
}

// New builds a proxy, merges the registry's prefix table with the
// ecosystem's, and pre-seeds every parameterless root.
func New(ctx context.Context, cfg Config) (*Proxy, error) {
	if cfg.Ecosystem == nil {
		return nil, fmt.Errorf("describe: ecosystem is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("describe: registry is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("describe: base URL is required")
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	loader := cfg.Loader
	if loader == nil {
		loader = NewHTTPLoader(client)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prefixes := cfg.Ecosystem.Prefixes()
	if regPrefixes, err := cfg.Registry.Prefixes(ctx); err == nil {
		prefixes = prefixes.Merge(regPrefixes)
	} else {
		logger.Warn("registry prefixes unavailable, using ecosystem prefixes only", "error", err)
	}

	p := &Proxy{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		eco:      cfg.Ecosystem,
		reg:      cfg.Registry,
		loader:   loader,
		client:   client,
		logger:   logger,
		prefixes: prefixes,
		seeds:    seed.NewRegistry(),
	}

	for _, root := range p.eco.Roots() {
		if len(root.Vars) > 0 {
			continue // not addressable without arguments
		}
		uri := p.URLFor(root.ID, nil)
		for _, t := range root.Types {
			p.seeds.Add(uri, t)
		}
	}
	return p, nil
}

// Base returns the gateway base URL.
func (p *Proxy) Base() string { return p.base }

// Ecosystem returns the served ecosystem.
func (p *Proxy) Ecosystem() *ecosystem.Ecosystem { return p.eco }

// Registry returns the type registry collaborator.
func (p *Proxy) Registry() registry.TypeRegistry { return p.reg }

// Prefixes returns the merged namespace table.
func (p *Proxy) Prefixes() vocabulary.Prefixes { return p.prefixes }

// Loader returns the resource loader hook for the external query
// engine.
func (p *Proxy) Loader() Loader { return p.loader }

// URLFor computes the dereferenceable URI of a resource under a set of
// instantiation arguments.
func (p *Proxy) URLFor(id string, args map[string]string) string {
	if blob := EncodeArgs(args); blob != "" {
		return p.base + "/" + id + "/" + blob
	}
	return p.base + "/" + id
}

// Parameters returns the union of variable names declared across the
// ecosystem, in declaration order without duplicates. The gateway keys
// its per-parameterization collectors off these.
func (p *Proxy) Parameters() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, td := range p.eco.Descriptions() {
		for _, v := range td.Vars {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			names = append(names, v)
		}
	}
	return names
}

// InstantiateSeed records seeds for one declared root under the given
// arguments and returns its URI. Non-root ids produce nothing.
func (p *Proxy) InstantiateSeed(rootID string, args map[string]string) (string, bool) {
	if !p.eco.IsRoot(rootID) {
		return "", false
	}
	td, err := p.eco.Description(rootID)
	if err != nil {
		return "", false
	}
	uri := p.URLFor(rootID, args)
	for _, t := range td.Types {
		p.seeds.Add(uri, t)
	}
	return uri, true
}

// InstantiateSeeds instantiates every root whose variables the argument
// set satisfies and returns the seeds produced, for use as forced seeds
// of one query.
func (p *Proxy) InstantiateSeeds(args map[string]string) []seed.Seed {
	var forced []seed.Seed
	for _, root := range p.eco.Roots() {
		if !varsSatisfied(root, args) {
			continue
		}
		uri, ok := p.InstantiateSeed(root.ID, argsForRoot(root, args))
		if !ok {
			continue
		}
		for _, t := range root.Types {
			forced = append(forced, seed.Seed{URI: uri, Type: t})
		}
	}
	return forced
}

// Seeds returns a read-only snapshot of the seed set.
func (p *Proxy) Seeds() []seed.Seed {
	return p.seeds.Snapshot()
}

// ClearSeeds empties the seed set and drops the registry's persisted
// seed records for every root type. Destructive; used when ecosystem
// membership changes.
func (p *Proxy) ClearSeeds(ctx context.Context) error {
	var types []string
	seen := make(map[string]struct{})
	for _, root := range p.eco.Roots() {
		for _, t := range root.Types {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			types = append(types, t)
		}
	}
	return p.seeds.Clear(ctx, types, p.reg)
}

func varsSatisfied(td *ecosystem.Description, args map[string]string) bool {
	for _, v := range td.Vars {
		if _, ok := args[v]; !ok {
			return false
		}
	}
	return true
}

// argsForRoot narrows an argument set to the variables a root declares,
// so unrelated arguments do not leak into its URI.
func argsForRoot(td *ecosystem.Description, args map[string]string) map[string]string {
	if len(td.Vars) == 0 {
		return nil
	}
	out := make(map[string]string, len(td.Vars))
	for _, v := range td.Vars {
		out[v] = args[v]
	}
	return out
}
