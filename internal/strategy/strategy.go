package strategy

import (
	"fmt"

	"github.com/angeloszaimis/service-router/internal/endpoint"
)

type Strategy interface {
	Select(endpoints []*endpoint.Endpoint) *endpoint.Endpoint
}

// Type names a load balancing strategy in configuration and route rules.
type Type string

const (
	TypeRoundRobin         Type = "round-robin"
	TypeRandom             Type = "random"
	TypeLeastConn          Type = "least-conn"
	TypeLeastResponse      Type = "least-response"
	TypeWeightedRoundRobin Type = "weighted-round-robin"
)

// DefaultType is used when a route rule does not name a strategy.
const DefaultType = TypeRoundRobin

var factories = map[Type]func() Strategy{
	TypeRoundRobin:         NewRoundRobinStrategy,
	TypeRandom:             NewRandomStrategy,
	TypeLeastConn:          NewLeastConnStrategy,
	TypeLeastResponse:      NewLeastResponseStrategy,
	TypeWeightedRoundRobin: NewWeightedRoundRobinStrategy,
}

// New instantiates the strategy for the given type.
func New(t Type) (Strategy, error) {
	factory, ok := factories[t]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", t)
	}

	return factory(), nil
}

// Known reports whether t names a registered strategy.
func Known(t Type) bool {
	_, ok := factories[t]
	return ok
}

// Types lists the registered strategy names, for config validation.
func Types() []Type {
	types := make([]Type, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	return types
}
