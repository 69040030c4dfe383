package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/angeloszaimis/service-router/internal/balancer"
	"github.com/angeloszaimis/service-router/internal/circuitbreaker"
	"github.com/angeloszaimis/service-router/internal/endpoint"
	"github.com/angeloszaimis/service-router/internal/metrics"
	"github.com/angeloszaimis/service-router/internal/ratelimit"
	"github.com/angeloszaimis/service-router/internal/registry"
	"github.com/angeloszaimis/service-router/internal/route"
	"github.com/angeloszaimis/service-router/internal/strategy"
)

// Request is an inbound request as seen by the router.
type Request struct {
	Path     string
	Method   string
	Headers  http.Header
	Query    url.Values
	Body     []byte
	ClientIP string
}

// Response is the relayed downstream response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Router is the orchestrator of the gateway request path.
type Router struct {
	table     *route.Table
	cache     *registry.Cache
	balancer  *balancer.Balancer
	breakers  *circuitbreaker.Registry
	limiter   *ratelimit.Limiter
	client    *http.Client
	logger    *slog.Logger
	collector *metrics.Collector

	defaultStrategy strategy.Type
}

// New wires the router from its collaborators. A nil collector disables
// metrics events; everything else is required.
func New(
	table *route.Table,
	cache *registry.Cache,
	breakers *circuitbreaker.Registry,
	limiter *ratelimit.Limiter,
	defaultStrategy strategy.Type,
	logger *slog.Logger,
	collector *metrics.Collector,
) *Router {
	if defaultStrategy == "" {
		defaultStrategy = strategy.DefaultType
	}

	return &Router{
		table:    table,
		cache:    cache,
		balancer: balancer.New(),
		breakers: breakers,
		limiter:  limiter,
		// Timeouts are applied per request from the route rule.
		client:          &http.Client{},
		logger:          logger,
		collector:       collector,
		defaultStrategy: defaultStrategy,
	}
}

// Route resolves an inbound request against the route table and relays it
// through the full admission pipeline.
func (r *Router) Route(ctx context.Context, req Request) (*Response, error) {
	rule := r.table.Match(req.Path, req.Method)
	if rule == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrRouteNotFound, req.Method, req.Path)
	}

	if rule.RateLimit {
		result := r.limiter.Allow(rule.Key())
		if !result.Allowed {
			r.emit(metrics.Event{Type: metrics.EventRateLimited, Route: rule.Key()})
			return nil, &RateLimitedError{RetryAfter: result.RetryAfter}
		}
	}

	var breaker *circuitbreaker.CircuitBreaker
	if rule.CircuitBreaker {
		breaker = r.breakers.GetBreaker(rule.Key())
		if !breaker.Allow() {
			r.emit(metrics.Event{Type: metrics.EventCircuitRejected, Route: rule.Key()})
			return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, rule.Key())
		}
	}

	resp, err := r.relayWithRetries(ctx, rule.Service, rule.Strategy, rule.Timeout, rule.RetryCount, req)

	if breaker != nil {
		switch {
		case err == nil:
			breaker.RecordSuccess()
		case errors.Is(err, ErrUpstreamTimeout), errors.Is(err, ErrUpstreamError):
			breaker.RecordFailure()
		default:
			// Selection failed before any downstream call; an empty
			// service must surface as unavailable, not trip the breaker.
			breaker.ReleaseTrial()
		}
	}

	return resp, err
}

// RouteRequest relays a request directly to a named service using the
// default strategy and timeout, bypassing the route table and its
// per-route policies.
func (r *Router) RouteRequest(ctx context.Context, service string, req Request) (*Response, error) {
	return r.relay(ctx, service, r.defaultStrategy, route.DefaultTimeout, req)
}

// GetServiceEndpoint resolves one endpoint for the service using the
// given strategy. Selection bookkeeping (connection count, last used) is
// applied; releasing the connection is the caller's concern.
func (r *Router) GetServiceEndpoint(ctx context.Context, service string, t strategy.Type) (*url.URL, error) {
	chosen, err := r.selectEndpoint(ctx, service, t)
	if err != nil {
		return nil, err
	}

	return chosen.URL(), nil
}

// relayWithRetries re-attempts selection and relay up to retries extra
// times. Admission decisions are not re-run; only the downstream attempt
// is retried.
func (r *Router) relayWithRetries(ctx context.Context, service string, t strategy.Type, timeout time.Duration, retries int, req Request) (*Response, error) {
	var resp *Response
	var err error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			r.logger.Debug("Retrying request",
				slog.String("service", service),
				slog.Int("attempt", attempt))
		}

		resp, err = r.relay(ctx, service, t, timeout, req)
		if err == nil {
			return resp, nil
		}

		if ctx.Err() != nil {
			break
		}
	}

	return nil, err
}

// relay performs one selection and one downstream attempt.
func (r *Router) relay(ctx context.Context, service string, t strategy.Type, timeout time.Duration, req Request) (*Response, error) {
	chosen, err := r.selectEndpoint(ctx, service, t)
	if err != nil {
		return nil, err
	}
	defer chosen.DecrementConn()

	start := time.Now()
	resp, err := r.forward(ctx, chosen, service, timeout, req)
	duration := time.Since(start)

	chosen.RecordResponse(duration)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	r.emit(metrics.Event{
		Type:       metrics.EventResponseCompleted,
		Service:    service,
		StatusCode: statusCode,
		Duration:   duration,
	})

	return resp, err
}

// selectEndpoint runs the discovery and selection stages: cache lookup,
// healthy filter with fallback, strategy selection and bookkeeping.
func (r *Router) selectEndpoint(ctx context.Context, service string, t strategy.Type) (*endpoint.Endpoint, error) {
	if t == "" {
		t = r.defaultStrategy
	} else if !strategy.Known(t) {
		r.logger.Warn("Unknown strategy, using default",
			slog.String("requested", string(t)),
			slog.String("default", string(r.defaultStrategy)))
		t = r.defaultStrategy
	}

	endpoints := r.cache.Get(ctx, service)
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotAvailable, service)
	}

	candidates := filterPassing(endpoints)
	if len(candidates) == 0 {
		// A total health-check outage must not take routing down with it.
		r.logger.Warn("No passing endpoints, falling back to full set",
			slog.String("service", service))
		candidates = endpoints
	}

	chosen, err := r.balancer.Select(service, t, candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrServiceNotAvailable, service, err)
	}

	chosen.IncrementConn()
	chosen.MarkUsed()

	r.emit(metrics.Event{
		Type:     metrics.EventEndpointSelected,
		Service:  service,
		Strategy: string(t),
	})

	return chosen, nil
}

func filterPassing(endpoints []*endpoint.Endpoint) []*endpoint.Endpoint {
	passing := make([]*endpoint.Endpoint, 0, len(endpoints))

	for _, e := range endpoints {
		if e.IsPassing() {
			passing = append(passing, e)
		}
	}

	return passing
}

func (r *Router) emit(event metrics.Event) {
	if r.collector == nil {
		return
	}
	r.collector.Emit(event)
}
