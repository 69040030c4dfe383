package strategy

import (
	"math/rand/v2"

	"github.com/angeloszaimis/service-router/internal/endpoint"
)

type randomStrategy struct{}

func (r *randomStrategy) Select(endpoints []*endpoint.Endpoint) *endpoint.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}

	index := rand.IntN(len(endpoints))
	return endpoints[index]
}

func NewRandomStrategy() Strategy {
	return &randomStrategy{}
}
