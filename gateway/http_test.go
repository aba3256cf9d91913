package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semgate/describe"
	"github.com/c360studio/semgate/ecosystem"
	"github.com/c360studio/semgate/registry"
)

const testTED = `
prefixes:
  core: "http://example.org/core#"
resources:
  - id: network
    types: [core:Network]
    graph:
      - p: core:name
        o: Metro
  - id: station
    types: [core:Station]
    vars: [sid]
    depends_on: [network]
`

func newTestGateway(t *testing.T, mutate ...func(*Config)) (*Gateway, *httptest.Server) {
	t.Helper()
	eco, err := ecosystem.Parse([]byte(testTED))
	require.NoError(t, err)

	reg := registry.NewStatic()
	reg.BindPrefix("core", "http://example.org/core#")
	reg.AddType("core:Network", &registry.TypeInfo{Properties: []string{"core:name"}})
	reg.AddType("core:Station", &registry.TypeInfo{})

	proxy, err := describe.New(context.Background(), describe.Config{
		BaseURL:   "http://gw.example.org/gw",
		Ecosystem: eco,
		Registry:  reg,
	})
	require.NoError(t, err)

	cfg := Config{Proxy: proxy}
	for _, m := range mutate {
		m(&cfg)
	}
	gw, err := New(cfg)
	require.NoError(t, err)

	mux := http.NewServeMux()
	gw.RegisterHTTPHandlers("/gw/", mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Cleanup(gw.Shutdown)
	return gw, srv
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestResourceHandlerNTriples(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/gw/network")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/n-triples", resp.Header.Get("Content-Type"))
	assert.Equal(t, "max-age=100000", resp.Header.Get("Cache-Control"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http://gw.example.org/gw/network")
	assert.Contains(t, string(body), `"Metro"`)
	assert.Contains(t, string(body), "http://example.org/core#Network")
}

func TestResourceHandlerJSON(t *testing.T) {
	_, srv := newTestGateway(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/gw/network", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var triples []tripleJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&triples))
	require.NotEmpty(t, triples)
	found := false
	for _, tr := range triples {
		if strings.HasSuffix(tr.Predicate, "core#name") {
			found = true
			assert.Equal(t, "Metro", tr.Object)
		}
	}
	assert.True(t, found)
}

func TestResourceHandlerBadArguments(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/gw/station/%21%21not-base64%21%21")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_arguments", decodeError(t, resp.Body).Error)
}

func TestResourceHandlerUnknownResource(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/gw/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decodeError(t, resp.Body).Error)
}

func TestResourceHandlerMethodNotAllowed(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Post(srv.URL+"/gw/network", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestResourceHandlerInterceptorRejection(t *testing.T) {
	_, srv := newTestGateway(t, func(cfg *Config) {
		cfg.Interceptor = func(_ *http.Request, _ map[string]string) (map[string]string, error) {
			return nil, errors.New("token missing")
		}
	})

	resp, err := http.Get(srv.URL + "/gw/network")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp.Body)
	assert.Equal(t, "rejected", body.Error)
	assert.Equal(t, "token missing", body.Message)
}

func TestSeedsHandler(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/gw/seeds")
	require.NoError(t, err)
	var listed SeedsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	require.Len(t, listed.Seeds, 1)
	assert.Equal(t, "http://gw.example.org/gw/network", listed.Seeds[0].URI)
	assert.Equal(t, "core:Network", listed.Seeds[0].Type)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/gw/seeds", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/gw/seeds")
	require.NoError(t, err)
	listed = SeedsResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	assert.Empty(t, listed.Seeds)
}

func TestInstantiateSeedHandler(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Post(srv.URL+"/gw/seeds/network", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created InstantiateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "http://gw.example.org/gw/network", created.URI)
}

func TestInstantiateSeedHandlerRejectsNonRoot(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Post(srv.URL+"/gw/seeds/station", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_root", decodeError(t, resp.Body).Error)
}

func TestQueryWithoutEngine(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/gw/query?query=whatever")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Equal(t, "no_engine", decodeError(t, resp.Body).Error)
}

func TestQueryRequiresQueryParameter(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/gw/query")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type recordingEngine struct {
	lastQuery   string
	lastPattern string
	hooks       Hooks
}

func (e *recordingEngine) Query(_ context.Context, query string, hooks Hooks) ([]byte, error) {
	e.lastQuery = query
	e.hooks = hooks
	return []byte(`{"results":[]}`), nil
}

func (e *recordingEngine) Fragment(_ context.Context, pattern string, hooks Hooks) ([]byte, error) {
	e.lastPattern = pattern
	e.hooks = hooks
	return []byte(`{"triples":[]}`), nil
}

func TestQueryDelegatesToEngine(t *testing.T) {
	engine := &recordingEngine{}
	_, srv := newTestGateway(t, func(cfg *Config) { cfg.Engine = engine })

	resp, err := http.Get(srv.URL + "/gw/query?query=SELECT&sid=st-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[]}`, string(body))

	assert.Equal(t, "SELECT", engine.lastQuery)
	require.NotNil(t, engine.hooks.Loader)
	require.NotNil(t, engine.hooks.Seeds)
	require.NotNil(t, engine.hooks.Collector)
	assert.NotEmpty(t, engine.hooks.Seeds())
}

func TestFragmentDelegatesToEngine(t *testing.T) {
	engine := &recordingEngine{}
	_, srv := newTestGateway(t, func(cfg *Config) { cfg.Engine = engine })

	resp, err := http.Get(srv.URL + "/gw/fragment?pattern=%3Fs+%3Fp+%3Fo")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "?s ?p ?o", engine.lastPattern)
}
