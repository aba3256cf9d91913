package describe

import (
	"fmt"
	"time"
)

// DefaultMaxAge is the cache lifetime of a resource answered without
// any upstream call: static content is effectively stable.
const DefaultMaxAge = 100000 * time.Second

// CacheDirective is the freshness duration attached to a materialized
// graph: the minimum of every upstream freshness hint observed while
// answering the resource.
type CacheDirective struct {
	MaxAge time.Duration
}

// DefaultCacheDirective returns the directive used when no upstream
// call contributed a freshness hint.
func DefaultCacheDirective() CacheDirective {
	return CacheDirective{MaxAge: DefaultMaxAge}
}

// Observe lowers the directive to an upstream hint when that hint is
// fresher.
func (c *CacheDirective) Observe(maxAge time.Duration) {
	if maxAge < c.MaxAge {
		c.MaxAge = maxAge
	}
}

// HeaderValue renders the directive as a Cache-Control header value.
func (c CacheDirective) HeaderValue() string {
	return fmt.Sprintf("max-age=%d", int64(c.MaxAge.Seconds()))
}
