package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/c360studio/semgate/seed"
)

// Collector gathers fragments for one parameterization on behalf of the
// external query engine. The gateway only owns its lifecycle; what a
// collector does between creation and Stop is the engine's business.
type Collector interface {
	// Stop tears the collector down. Stop must be idempotent.
	Stop()
}

// CollectorFactory builds a collector for one parameterization. The
// forced seeds are the roots instantiated under these parameters.
type CollectorFactory func(params map[string]string, forced []seed.Seed) (Collector, error)

// noopCollector backs parameterizations when no factory is configured.
type noopCollector struct{}

func (noopCollector) Stop() {}

// collectorCache lazily creates and retains one collector per
// parameterization. Eviction and shutdown stop the evicted collectors.
type collectorCache struct {
	cache   *lru.Cache[string, Collector]
	factory CollectorFactory
}

func newCollectorCache(size int, factory CollectorFactory) (*collectorCache, error) {
	if size <= 0 {
		size = 128
	}
	if factory == nil {
		factory = func(map[string]string, []seed.Seed) (Collector, error) {
			return noopCollector{}, nil
		}
	}
	cache, err := lru.NewWithEvict(size, func(_ string, c Collector) {
		c.Stop()
	})
	if err != nil {
		return nil, fmt.Errorf("create collector cache: %w", err)
	}
	return &collectorCache{cache: cache, factory: factory}, nil
}

// get returns the collector for a parameterization, creating it on first
// use.
func (cc *collectorCache) get(params map[string]string, forced []seed.Seed) (Collector, error) {
	key := collectorKey(params)
	if c, ok := cc.cache.Get(key); ok {
		return c, nil
	}
	c, err := cc.factory(params, forced)
	if err != nil {
		return nil, fmt.Errorf("create collector: %w", err)
	}
	if existing, ok, _ := cc.cache.PeekOrAdd(key, c); ok {
		// Another request won the race; keep theirs.
		c.Stop()
		return existing, nil
	}
	return c, nil
}

// purge stops and drops every cached collector.
func (cc *collectorCache) purge() {
	cc.cache.Purge()
}

// collectorKey digests a parameter set into a stable cache key:
// a SHA-256 over the sorted parameter names and values.
func collectorKey(params map[string]string) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, k := range names {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(params[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
