package ecosystem

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Endpoint is one declared upstream call. A self-contained endpoint
// carries its own absolute Href. An open endpoint has no Href, only a
// relative Path, and becomes callable by composition with a predecessor
// endpoint.
type Endpoint struct {
	// Href is the absolute address. Empty for open endpoints.
	Href string
	// Path is the relative suffix appended during composition.
	Path string
	// Order is the priority. Endpoints of one resource are invoked in
	// ascending order.
	Order int
	// Media is the Accept header value; application/json when empty.
	Media string
	// Headers are extra request headers. Values may carry {arg}
	// placeholders.
	Headers map[string]string
	// Mappings are the field-to-predicate rules applied to this
	// endpoint's response.
	Mappings []Mapping
}

// Open reports whether the endpoint must be composed before it is
// callable.
func (e Endpoint) Open() bool {
	return e.Href == ""
}

// Compose returns a callable endpoint built by continuing the
// predecessor's endpoint with this one. The predecessor's address is
// called first in the sense that the composed URL extends it, and its
// headers (the authenticated context) feed the composed call; this
// endpoint's own headers win on collision.
func (e Endpoint) Compose(pred Endpoint) Endpoint {
	composed := e
	composed.Href = joinURL(pred.Href, e.Path)
	if len(pred.Headers) > 0 {
		merged := make(map[string]string, len(pred.Headers)+len(e.Headers))
		for k, v := range pred.Headers {
			merged[k] = v
		}
		for k, v := range e.Headers {
			merged[k] = v
		}
		composed.Headers = merged
	}
	return composed
}

// Response is the decoded result of one endpoint invocation.
type Response struct {
	// Status is the upstream HTTP status code.
	Status int
	// Data is the JSON-decoded body, nil unless Success.
	Data any
	// MaxAge is the upstream freshness hint; valid only when HasMaxAge.
	MaxAge    time.Duration
	HasMaxAge bool
}

// Success reports whether the upstream answered with a success status.
func (r *Response) Success() bool {
	return r.Status >= 200 && r.Status < 300
}

// Invoke performs the upstream HTTP call. Instantiation arguments fill
// {name} placeholders in the address and headers; arguments not consumed
// by a placeholder are passed as query parameters. Exactly one attempt
// is made; the caller decides what a failure means.
func (e Endpoint) Invoke(ctx context.Context, client *http.Client, args map[string]string) (*Response, error) {
	if e.Open() {
		return nil, fmt.Errorf("invoke open endpoint (path %q): not composed", e.Path)
	}
	if client == nil {
		client = http.DefaultClient
	}

	addr, used := substitute(e.Href, args)
	leftover := url.Values{}
	for k, v := range args {
		if !used[k] {
			leftover.Set(k, v)
		}
	}
	if len(leftover) > 0 {
		sep := "?"
		if strings.Contains(addr, "?") {
			sep = "&"
		}
		addr = addr + sep + leftover.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request for %s: %w", addr, err)
	}
	media := e.Media
	if media == "" {
		media = "application/json"
	}
	req.Header.Set("Accept", media)
	for k, v := range e.Headers {
		hv, _ := substitute(v, args)
		req.Header.Set(k, hv)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", addr, err)
	}
	defer resp.Body.Close()

	out := &Response{Status: resp.StatusCode}
	if maxAge, ok := ExtractMaxAge(resp.Header); ok {
		out.MaxAge = maxAge
		out.HasMaxAge = true
	}
	if !out.Success() {
		return out, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(&out.Data); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", addr, err)
	}
	return out, nil
}

// ExtractMaxAge reads the freshness hint from HTTP cache-control
// headers.
func ExtractMaxAge(h http.Header) (time.Duration, bool) {
	cc := h.Get("Cache-Control")
	if cc == "" {
		return 0, false
	}
	for _, directive := range strings.Split(cc, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, "max-age=") {
			continue
		}
		seconds, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
		if err != nil || seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	return 0, false
}

// substitute replaces {name} placeholders and reports which argument
// names were consumed.
func substitute(template string, args map[string]string) (string, map[string]bool) {
	used := make(map[string]bool, len(args))
	out := template
	for k, v := range args {
		placeholder := "{" + k + "}"
		if strings.Contains(out, placeholder) {
			out = strings.ReplaceAll(out, placeholder, url.PathEscape(v))
			used[k] = true
		}
	}
	return out, used
}

func joinURL(base, suffix string) string {
	if suffix == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(suffix, "/")
}
