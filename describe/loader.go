package describe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/c360studio/semgate/graph"
	"github.com/c360studio/semgate/jsonld"
)

// Loader fetches an external URI and returns its content as a graph.
// The describe pipeline uses it for same-as merging; the external query
// engine uses the same hook to dereference discovered resources.
type Loader interface {
	Load(ctx context.Context, uri string) (*graph.Graph, error)
}

// HTTPLoader dereferences URIs over HTTP, expecting JSON-LD (or plain
// JSON with inline context) bodies, and materializes them through the
// shared pipeline.
type HTTPLoader struct {
	client *http.Client
}

// NewHTTPLoader creates a loader. A nil client gets a default with a
// 15s timeout.
func NewHTTPLoader(client *http.Client) *HTTPLoader {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPLoader{client: client}
}

// Load implements Loader.
func (l *HTTPLoader) Load(ctx context.Context, uri string) (*graph.Graph, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", uri, err)
	}
	req.Header.Set("Accept", "application/ld+json, application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("load %s: status %d", uri, resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", uri, err)
	}

	g := graph.New()
	if _, err := jsonld.Materialize(doc, g); err != nil {
		return nil, fmt.Errorf("materialize %s: %w", uri, err)
	}
	return g, nil
}
