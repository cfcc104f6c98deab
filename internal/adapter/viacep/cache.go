package viacep

import (
	"context"
	"sync"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/couchcryptid/civic-report-service/internal/observability"
	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"
)

// CachedResolver wraps an AddressResolver with an in-memory LRU cache and
// collapses concurrent lookups of the same code into one upstream call.
//
// The collapsed call runs detached from any single caller's context, so one
// draft going away never fails a lookup another draft is still waiting on.
// The inner resolver bounds it with its own timeout.
type CachedResolver struct {
	inner   domain.AddressResolver
	cache   *addressCache
	group   singleflight.Group
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver. A
// maxEntries of zero keeps request collapsing but stores nothing.
func NewCachedResolver(inner domain.AddressResolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   newAddressCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, postalCode string) (domain.Address, error) {
	if addr, ok := c.cache.get(postalCode); ok {
		c.metrics.PostalCache.WithLabelValues("hit").Inc()
		return addr, nil
	}
	c.metrics.PostalCache.WithLabelValues("miss").Inc()

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(postalCode, func() (any, error) {
		addr, err := c.inner.Resolve(shared, postalCode)
		if err != nil {
			return addr, err
		}
		// Only successes are cached so not-found and transport failures can be retried.
		c.cache.put(postalCode, addr)
		return addr, nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.Address), res.Err
	case <-ctx.Done():
		return domain.Address{}, &domain.TransportError{Op: "viacep lookup", Err: ctx.Err()}
	}
}

// addressCache guards a groupcache LRU, which is not safe for concurrent use.
type addressCache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

func newAddressCache(maxEntries int) *addressCache {
	if maxEntries <= 0 {
		return &addressCache{}
	}
	return &addressCache{lru: lru.New(maxEntries)}
}

func (c *addressCache) get(code string) (domain.Address, bool) {
	if c.lru == nil {
		return domain.Address{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(code)
	if !ok {
		return domain.Address{}, false
	}
	return v.(domain.Address), true
}

func (c *addressCache) put(code string, addr domain.Address) {
	if c.lru == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(code, addr)
}

func (c *addressCache) size() int {
	if c.lru == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
