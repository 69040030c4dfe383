package strategy

import (
	"time"

	"github.com/angeloszaimis/service-router/internal/endpoint"
)

type leastResponseStrategy struct{}

func (l *leastResponseStrategy) Select(endpoints []*endpoint.Endpoint) *endpoint.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}

	var chosen *endpoint.Endpoint
	var best time.Duration

	for _, e := range endpoints {
		ewma := e.EWMATime()

		if ewma == 0 {
			return e
		}

		score := ewma * (time.Duration(e.Connections()) + 1)

		if chosen == nil {
			chosen = e
			best = score
			continue
		}

		if score < best {
			chosen = e
			best = score
		}
	}

	return chosen
}

func NewLeastResponseStrategy() Strategy {
	return &leastResponseStrategy{}
}
