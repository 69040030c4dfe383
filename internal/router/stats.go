package router

import (
	"github.com/angeloszaimis/service-router/internal/endpoint"
)

// ServiceStats is a read-only view of a service's cached endpoints.
type ServiceStats struct {
	ServiceName      string              `json:"service_name"`
	TotalEndpoints   int                 `json:"total_endpoints"`
	HealthyEndpoints int                 `json:"healthy_endpoints"`
	TotalConnections int                 `json:"total_connections"`
	Endpoints        []endpoint.Snapshot `json:"endpoints"`
}

// ServiceStats snapshots the cached endpoints of a service without
// triggering a registry refresh.
func (r *Router) ServiceStats(service string) ServiceStats {
	endpoints := r.cache.Peek(service)

	stats := ServiceStats{
		ServiceName: service,
		Endpoints:   make([]endpoint.Snapshot, 0, len(endpoints)),
	}

	for _, e := range endpoints {
		snap := e.Snapshot()
		stats.TotalEndpoints++
		stats.TotalConnections += snap.Connections
		if snap.Status == endpoint.StatusPassing.String() {
			stats.HealthyEndpoints++
		}
		stats.Endpoints = append(stats.Endpoints, snap)
	}

	return stats
}

// ResetConnections zeroes the connection counters of one service, or of
// every cached service when the name is empty.
func (r *Router) ResetConnections(service string) {
	services := []string{service}
	if service == "" {
		services = r.cache.Services()
	}

	for _, name := range services {
		for _, e := range r.cache.Peek(name) {
			e.ResetConnections()
		}
	}
}
