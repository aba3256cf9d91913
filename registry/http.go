package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/c360studio/semgate/vocabulary"
)

// HTTPClient talks to a registry service over its REST API.
//
// Type and property lookups are memoized for the client's lifetime: the
// ontology is treated as immutable while the gateway runs, the same way
// the ecosystem definition is.
type HTTPClient struct {
	base   string
	client *http.Client

	mu       sync.RWMutex
	types    map[string]*TypeInfo
	props    map[string]*PropertyInfo
	prefixes vocabulary.Prefixes
}

// NewHTTPClient creates a registry client for the given base URL.
// A nil httpClient gets a default with a 10s timeout.
func NewHTTPClient(base string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		base:   strings.TrimRight(base, "/"),
		client: httpClient,
		types:  make(map[string]*TypeInfo),
		props:  make(map[string]*PropertyInfo),
	}
}

// GetType implements TypeRegistry.
func (c *HTTPClient) GetType(ctx context.Context, id string) (*TypeInfo, error) {
	c.mu.RLock()
	cached, ok := c.types[id]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var info TypeInfo
	if err := c.getJSON(ctx, "/types/"+url.PathEscape(id), &info); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.types[id] = &info
	c.mu.Unlock()
	return &info, nil
}

// GetProperty implements TypeRegistry.
func (c *HTTPClient) GetProperty(ctx context.Context, id string) (*PropertyInfo, error) {
	c.mu.RLock()
	cached, ok := c.props[id]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var info PropertyInfo
	if err := c.getJSON(ctx, "/properties/"+url.PathEscape(id), &info); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.props[id] = &info
	c.mu.Unlock()
	return &info, nil
}

// Prefixes implements TypeRegistry.
func (c *HTTPClient) Prefixes(ctx context.Context) (vocabulary.Prefixes, error) {
	c.mu.RLock()
	cached := c.prefixes
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	prefixes := vocabulary.Prefixes{}
	if err := c.getJSON(ctx, "/prefixes", &prefixes); err != nil {
		return nil, err
	}
	merged := vocabulary.DefaultPrefixes().Merge(prefixes)

	c.mu.Lock()
	c.prefixes = merged
	c.mu.Unlock()
	return merged, nil
}

// DeleteTypeSeeds implements TypeRegistry.
func (c *HTTPClient) DeleteTypeSeeds(ctx context.Context, typeID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.base+"/seeds/"+url.PathEscape(typeID), nil)
	if err != nil {
		return fmt.Errorf("build seed delete request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete seeds for %s: %w", typeID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete seeds for %s: status %d", typeID, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("registry request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("registry %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode registry response %s: %w", path, err)
	}
	return nil
}
