package strategy

import (
	"sync"

	"github.com/angeloszaimis/service-router/internal/endpoint"
)

// weightedRoundRobinStrategy implements smooth weighted round-robin
// selection. Uses the Nginx algorithm: each endpoint accumulates its
// weight per selection cycle, the highest current value is chosen, then
// reduced by the sum of all weights.
type weightedRoundRobinStrategy struct {
	mutex   sync.Mutex
	current map[*endpoint.Endpoint]int // Tracks accumulated weight per endpoint
}

// NewWeightedRoundRobinStrategy creates a weighted round-robin strategy instance.
func NewWeightedRoundRobinStrategy() Strategy {
	return &weightedRoundRobinStrategy{
		current: make(map[*endpoint.Endpoint]int),
	}
}

// Select picks the endpoint with the highest accumulated weight.
// Distributes requests proportionally to configured weights while
// maintaining smooth distribution. A total weight of 0 falls back to the
// first endpoint.
func (w *weightedRoundRobinStrategy) Select(endpoints []*endpoint.Endpoint) *endpoint.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	// Remove stale endpoints from tracking map
	w.cleanup(endpoints)

	totalWeight := 0
	var chosen *endpoint.Endpoint

	// Add each endpoint's weight to its current value and find the highest
	for _, e := range endpoints {
		weight := e.Weight()
		if weight <= 0 {
			continue
		}

		w.current[e] += weight
		totalWeight += weight

		if chosen == nil || w.current[e] > w.current[chosen] {
			chosen = e
		}
	}

	// No endpoint with positive weight
	if chosen == nil || totalWeight == 0 {
		return endpoints[0]
	}

	// Reduce chosen endpoint's current value by total weight to balance future selections
	w.current[chosen] -= totalWeight
	return chosen
}

// cleanup removes entries for endpoints no longer in the active list.
// Prevents unbounded map growth across cache refreshes.
func (w *weightedRoundRobinStrategy) cleanup(endpoints []*endpoint.Endpoint) {
	alive := make(map[*endpoint.Endpoint]struct{}, len(endpoints))

	for _, e := range endpoints {
		alive[e] = struct{}{}
	}

	for e := range w.current {
		if _, ok := alive[e]; !ok {
			delete(w.current, e)
		}
	}
}
