package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/angeloszaimis/service-router/internal/endpoint"
)

// DefaultTTL is the endpoint cache freshness bound.
const DefaultTTL = 30 * time.Second

// Cache holds one TTL-bounded endpoint snapshot per service. Reads always
// return the current snapshot; a stale snapshot triggers a refresh, and
// only one refresh per service is ever in flight.
type Cache struct {
	discoverer Discoverer
	ttl        time.Duration
	logger     *slog.Logger

	mutex   sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	refreshMu sync.Mutex // one in-flight refresh per service

	mutex       sync.RWMutex
	endpoints   []*endpoint.Endpoint
	lastRefresh time.Time
}

// NewCache creates a cache over the given discoverer.
// A ttl of 0 selects DefaultTTL.
func NewCache(discoverer Discoverer, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{
		discoverer: discoverer,
		ttl:        ttl,
		logger:     logger,
		entries:    make(map[string]*cacheEntry),
	}
}

// Get returns the endpoint snapshot for a service, refreshing it from the
// registry when older than the TTL. A failed refresh logs and leaves the
// previous snapshot in place, so a registry outage degrades instead of
// breaking routing. The returned slice must not be mutated.
func (c *Cache) Get(ctx context.Context, service string) []*endpoint.Endpoint {
	entry := c.entry(service)

	entry.mutex.RLock()
	endpoints := entry.endpoints
	fresh := time.Since(entry.lastRefresh) <= c.ttl
	entry.mutex.RUnlock()

	if fresh {
		return endpoints
	}

	// TryLock keeps concurrent readers on the stale snapshot while one
	// caller performs the refresh.
	if !entry.refreshMu.TryLock() {
		return endpoints
	}
	defer entry.refreshMu.Unlock()

	entry.mutex.RLock()
	endpoints = entry.endpoints
	fresh = time.Since(entry.lastRefresh) <= c.ttl
	entry.mutex.RUnlock()

	if fresh {
		return endpoints
	}

	return c.refresh(ctx, service, entry)
}

// refresh is called with the entry's refreshMu held. No locks are held
// across the registry call.
func (c *Cache) refresh(ctx context.Context, service string, entry *cacheEntry) []*endpoint.Endpoint {
	instances, err := c.discoverer.Discover(ctx, service)
	if err != nil {
		c.logger.Warn("Registry refresh failed, keeping cached endpoints",
			slog.String("service", service),
			slog.String("error", err.Error()))

		entry.mutex.RLock()
		defer entry.mutex.RUnlock()
		return entry.endpoints
	}

	endpoints := make([]*endpoint.Endpoint, 0, len(instances))
	for _, inst := range instances {
		endpoints = append(endpoints, endpoint.New(inst.Address, inst.Port, inst.ID, inst.Weight()))
	}

	entry.mutex.Lock()
	entry.endpoints = endpoints
	entry.lastRefresh = time.Now()
	entry.mutex.Unlock()

	c.logger.Debug("Refreshed service endpoints",
		slog.String("service", service),
		slog.Int("count", len(endpoints)))

	return endpoints
}

// Peek returns the current snapshot without triggering a refresh.
// Used by the health checker and the stats API.
func (c *Cache) Peek(service string) []*endpoint.Endpoint {
	c.mutex.RLock()
	entry, ok := c.entries[service]
	c.mutex.RUnlock()

	if !ok {
		return nil
	}

	entry.mutex.RLock()
	defer entry.mutex.RUnlock()
	return entry.endpoints
}

// Invalidate marks a service stale so the next Get refreshes it.
func (c *Cache) Invalidate(service string) {
	c.mutex.RLock()
	entry, ok := c.entries[service]
	c.mutex.RUnlock()

	if !ok {
		return
	}

	entry.mutex.Lock()
	entry.lastRefresh = time.Time{}
	entry.mutex.Unlock()
}

// Services lists all services the cache has seen.
func (c *Cache) Services() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	services := make([]string, 0, len(c.entries))
	for name := range c.entries {
		services = append(services, name)
	}
	return services
}

func (c *Cache) entry(service string) *cacheEntry {
	c.mutex.RLock()
	entry, ok := c.entries[service]
	c.mutex.RUnlock()

	if ok {
		return entry
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if entry, ok = c.entries[service]; ok {
		return entry
	}

	entry = &cacheEntry{}
	c.entries[service] = entry
	return entry
}
