package strategy

import (
	"sync/atomic"

	"github.com/angeloszaimis/service-router/internal/endpoint"
)

type roundRobinStrategy struct {
	current uint64
}

// Select cycles through the endpoints. The cursor is monotonic and wraps
// via modulo, so it is not reset when the endpoint list changes size.
func (rb *roundRobinStrategy) Select(endpoints []*endpoint.Endpoint) *endpoint.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}

	n := atomic.AddUint64(&rb.current, 1)

	index := (n - 1) % uint64(len(endpoints))

	return endpoints[index]
}

func NewRoundRobinStrategy() Strategy {
	return &roundRobinStrategy{
		current: 0,
	}
}
