package strategy

import (
	"math"

	"github.com/angeloszaimis/service-router/internal/endpoint"
)

type leastConnStrategy struct {
}

// Select returns the endpoint with the fewest active connections.
// Ties are broken by list order.
func (l *leastConnStrategy) Select(endpoints []*endpoint.Endpoint) *endpoint.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}

	var bestEndpoint *endpoint.Endpoint
	bestConns := math.MaxInt32

	for _, e := range endpoints {
		activeConns := e.Connections()
		if activeConns < bestConns {
			bestConns = activeConns
			bestEndpoint = e
		}
	}

	return bestEndpoint
}

func NewLeastConnStrategy() Strategy {
	return &leastConnStrategy{}
}
