// Package gateway is the HTTP surface of the materialization pipeline:
// it serves resource graphs, manages seeds, and lends hooks to an
// external query engine.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/semgate/describe"
	"github.com/c360studio/semgate/ecosystem"
	"github.com/c360studio/semgate/graph"
	"github.com/c360studio/semgate/seed"
)

// Interceptor inspects and optionally rewrites the instantiation
// arguments of one request before the pipeline runs. Returning an error
// rejects the request with a client error.
type Interceptor func(r *http.Request, args map[string]string) (map[string]string, error)

// Config wires a Gateway.
type Config struct {
	// Proxy answers describe requests. Required.
	Proxy *describe.Proxy

	// Engine is the optional external query/fragment engine.
	Engine Engine

	// CollectorFactory builds per-parameterization collectors for the
	// engine. Optional; a no-op factory is used when absent.
	CollectorFactory CollectorFactory

	// CollectorCacheSize bounds the collector cache. Defaults to 128.
	CollectorCacheSize int

	// NATS, when set, receives every materialized graph on the
	// knowledge-graph ingest stream.
	NATS *natsclient.Client

	// Interceptor optionally screens instantiation arguments.
	Interceptor Interceptor

	// Metrics instruments the gateway. Optional.
	Metrics *Metrics

	Logger *slog.Logger
}

// Gateway serves materialized resource graphs over HTTP.
type Gateway struct {
	proxy       *describe.Proxy
	engine      Engine
	collectors  *collectorCache
	nats        *natsclient.Client
	interceptor Interceptor
	metrics     *Metrics
	logger      *slog.Logger
	prefix      string
}

// New creates a gateway.
func New(cfg Config) (*Gateway, error) {
	if cfg.Proxy == nil {
		return nil, fmt.Errorf("gateway: proxy is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collectors, err := newCollectorCache(cfg.CollectorCacheSize, cfg.CollectorFactory)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		proxy:       cfg.Proxy,
		engine:      cfg.Engine,
		collectors:  collectors,
		nats:        cfg.NATS,
		interceptor: cfg.Interceptor,
		metrics:     cfg.Metrics,
		logger:      logger,
	}, nil
}

// RegisterHTTPHandlers registers the gateway routes. The prefix should
// include the trailing slash (e.g. "/gw/"). Resource ids shadowed by the
// fixed routes ("seeds", "query", "fragment") are not addressable.
func (g *Gateway) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	g.prefix = prefix
	mux.HandleFunc(prefix+"seeds", g.handleSeeds)
	mux.HandleFunc(prefix+"seeds/", g.handleInstantiateSeed)
	mux.HandleFunc(prefix+"query", g.handleQuery)
	mux.HandleFunc(prefix+"fragment", g.handleFragment)
	mux.HandleFunc(prefix, g.handleResource)
}

// Shutdown stops every cached collector. The gateway keeps serving
// describe requests; only the engine hooks lose their state.
func (g *Gateway) Shutdown() {
	g.collectors.purge()
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SeedsResponse is the JSON response for GET <prefix>seeds.
type SeedsResponse struct {
	Seeds []seed.Seed `json:"seeds"`
}

// InstantiateResponse is the JSON response for POST <prefix>seeds/{root}.
type InstantiateResponse struct {
	URI string `json:"uri"`
}

// handleResource handles GET <prefix><tid> and GET <prefix><tid>/<b64>.
func (g *Gateway) handleResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	rest := strings.TrimPrefix(r.URL.Path, g.prefix)
	parts := strings.SplitN(rest, "/", 2)
	tid := parts[0]
	if tid == "" {
		g.writeError(w, "resource", http.StatusNotFound, "not_found", "Resource id required")
		return
	}

	var blob string
	if len(parts) > 1 {
		blob = parts[1]
	}
	args, err := describe.DecodeArgs(blob)
	if err != nil {
		if g.metrics != nil {
			g.metrics.BadArguments.Inc()
		}
		g.writeError(w, "resource", http.StatusBadRequest, "bad_arguments",
			"Malformed instantiation arguments")
		return
	}

	queryParams := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			queryParams[k] = vs[0]
		}
	}

	if g.interceptor != nil {
		args, err = g.interceptor(r, args)
		if err != nil {
			g.writeError(w, "resource", http.StatusBadRequest, "rejected", err.Error())
			return
		}
	}

	out, directive, err := g.proxy.Describe(r.Context(), tid, args, queryParams)
	if err != nil {
		if errors.Is(err, ecosystem.ErrUnknownResource) {
			g.writeError(w, "resource", http.StatusNotFound, "not_found",
				"Unknown resource: "+tid)
			return
		}
		g.writeError(w, "resource", http.StatusInternalServerError, "describe_error",
			"Failed to describe resource")
		return
	}

	if g.metrics != nil {
		g.metrics.DescribeDuration.Observe(time.Since(start).Seconds())
		g.metrics.DescribeTriples.Observe(float64(out.Len()))
		g.metrics.CacheMaxAge.Observe(directive.MaxAge.Seconds())
	}
	g.publish(r, g.proxy.URLFor(tid, args), out)

	w.Header().Set("Cache-Control", directive.HeaderValue())
	if wantsJSON(r) {
		g.countRequest("resource", http.StatusOK)
		writeJSON(w, http.StatusOK, triplesJSON(out))
		return
	}
	w.Header().Set("Content-Type", "application/n-triples")
	w.WriteHeader(http.StatusOK)
	if err := out.WriteNTriples(w); err != nil {
		g.logger.Warn("write response failed", "resource", tid, "error", err)
	}
	g.countRequest("resource", http.StatusOK)
}

// handleSeeds handles GET (list) and DELETE (clear) on <prefix>seeds.
func (g *Gateway) handleSeeds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		g.countRequest("seeds", http.StatusOK)
		writeJSON(w, http.StatusOK, SeedsResponse{Seeds: g.proxy.Seeds()})
	case http.MethodDelete:
		if err := g.proxy.ClearSeeds(r.Context()); err != nil {
			g.writeError(w, "seeds", http.StatusInternalServerError, "clear_error",
				"Failed to clear seeds: "+err.Error())
			return
		}
		g.countRequest("seeds", http.StatusNoContent)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleInstantiateSeed handles POST <prefix>seeds/{root}. Arguments
// come from query parameters.
func (g *Gateway) handleInstantiateSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	root := strings.TrimPrefix(r.URL.Path, g.prefix+"seeds/")
	if root == "" || strings.Contains(root, "/") {
		g.writeError(w, "seeds", http.StatusBadRequest, "bad_request", "Root id required")
		return
	}

	args := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			args[k] = vs[0]
		}
	}

	uri, ok := g.proxy.InstantiateSeed(root, args)
	if !ok {
		g.writeError(w, "seeds", http.StatusNotFound, "not_root",
			"Not an ecosystem root: "+root)
		return
	}
	g.countRequest("seeds", http.StatusCreated)
	writeJSON(w, http.StatusCreated, InstantiateResponse{URI: uri})
}

// handleQuery handles GET <prefix>query?query=<q> plus parameterization
// arguments.
func (g *Gateway) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query().Get("query")
	if q == "" {
		g.writeError(w, "query", http.StatusBadRequest, "bad_request", "query parameter required")
		return
	}
	result, err := g.Query(r.Context(), q, engineParams(r))
	g.writeEngineResult(w, "query", result, err)
}

// handleFragment handles GET <prefix>fragment?pattern=<p>.
func (g *Gateway) handleFragment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pattern := r.URL.Query().Get("pattern")
	result, err := g.Fragment(r.Context(), pattern, engineParams(r))
	g.writeEngineResult(w, "fragment", result, err)
}

func (g *Gateway) writeEngineResult(w http.ResponseWriter, handler string, result []byte, err error) {
	switch {
	case errors.Is(err, ErrNoEngine):
		g.writeError(w, handler, http.StatusNotImplemented, "no_engine",
			"No query engine configured")
	case err != nil:
		g.writeError(w, handler, http.StatusInternalServerError, "engine_error", err.Error())
	default:
		g.countRequest(handler, http.StatusOK)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(result)
	}
}

// publish forwards the materialized graph to the ingest stream. Failures
// are logged, never surfaced to the requester.
func (g *Gateway) publish(r *http.Request, uri string, out *graph.Graph) {
	if g.nats == nil {
		return
	}
	if err := graph.Publish(r.Context(), g.nats, uri, out); err != nil {
		if g.metrics != nil {
			g.metrics.PublishFailures.Inc()
		}
		g.logger.Warn("graph ingest publish failed", "uri", uri, "error", err)
	}
}

// engineParams extracts the parameterization from the request, leaving
// the engine's own control parameters out.
func engineParams(r *http.Request) map[string]string {
	params := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if k == "query" || k == "pattern" {
			continue
		}
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params
}

// tripleJSON is the JSON shape of one statement.
type tripleJSON struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Datatype  string `json:"datatype,omitempty"`
}

func triplesJSON(g *graph.Graph) []tripleJSON {
	out := make([]tripleJSON, 0, g.Len())
	for _, t := range g.Triples() {
		out = append(out, tripleJSON{
			Subject:   t.Subject.Value(),
			Predicate: t.Predicate.Value(),
			Object:    t.Object.Value(),
			Datatype:  t.Object.Datatype(),
		})
	}
	return out
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") ||
		strings.Contains(accept, "application/ld+json")
}

func (g *Gateway) countRequest(handler string, status int) {
	if g.metrics == nil {
		return
	}
	g.metrics.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
}

func (g *Gateway) writeError(w http.ResponseWriter, handler string, status int, code, message string) {
	g.countRequest(handler, status)
	writeJSONError(w, status, code, message)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}
