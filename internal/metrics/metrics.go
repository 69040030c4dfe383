package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts routed requests by service and response status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "service_router_requests_total",
		Help: "Total number of routed requests",
	}, []string{"service", "status"})

	// RequestDuration tracks relay duration per service.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "service_router_request_duration_seconds",
		Help:    "Downstream relay duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})

	// SelectionsTotal counts endpoint selections by service and strategy.
	SelectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "service_router_selections_total",
		Help: "Total endpoint selections by the load balancer",
	}, []string{"service", "strategy"})

	// RateLimitRejections counts admission rejections by route key.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "service_router_rate_limit_rejections_total",
		Help: "Total requests rejected by the rate limiter",
	}, []string{"route"})

	// CircuitRejections counts fail-fast rejections by route key.
	CircuitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "service_router_circuit_rejections_total",
		Help: "Total requests rejected by an open circuit breaker",
	}, []string{"route"})

	// HealthChecksTotal counts health probes by service and result.
	HealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "service_router_health_checks_total",
		Help: "Total health probes by service and result",
	}, []string{"service", "result"}) // result: "passing", "warning" or "critical"

	// HealthyEndpoints tracks the number of passing endpoints per service.
	HealthyEndpoints = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "service_router_healthy_endpoints",
		Help: "Number of endpoints currently classified passing",
	}, []string{"service"})
)

func statusLabel(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code)
}
