package balancer

import (
	"fmt"
	"sync"

	"github.com/angeloszaimis/service-router/internal/endpoint"
	"github.com/angeloszaimis/service-router/internal/strategy"
)

// Balancer owns the per-service selection state. Round-robin cursors and
// weight accumulators live inside strategy instances, so the balancer
// keeps one instance per (service, strategy) pair and reuses it across
// requests and cache refreshes.
type Balancer struct {
	mutex      sync.RWMutex
	strategies map[string]strategy.Strategy
}

func New() *Balancer {
	return &Balancer{
		strategies: make(map[string]strategy.Strategy),
	}
}

// Select picks an endpoint for the service using the named strategy.
// The endpoint list must be non-empty; filtering and fallback are the
// caller's responsibility.
func (b *Balancer) Select(service string, t strategy.Type, endpoints []*endpoint.Endpoint) (*endpoint.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints for service %q", service)
	}

	strat, err := b.strategyFor(service, t)
	if err != nil {
		return nil, err
	}

	chosen := strat.Select(endpoints)
	if chosen == nil {
		return nil, fmt.Errorf("strategy %q returned no endpoint for service %q", t, service)
	}

	return chosen, nil
}

func (b *Balancer) strategyFor(service string, t strategy.Type) (strategy.Strategy, error) {
	key := service + "|" + string(t)

	b.mutex.RLock()
	strat, ok := b.strategies[key]
	b.mutex.RUnlock()

	if ok {
		return strat, nil
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if strat, ok = b.strategies[key]; ok {
		return strat, nil
	}

	strat, err := strategy.New(t)
	if err != nil {
		return nil, err
	}

	b.strategies[key] = strat
	return strat, nil
}
