package router

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRouteNotFound means no route rule matched the request.
	ErrRouteNotFound = errors.New("no route matches the request")

	// ErrServiceNotAvailable means a resolved service has no cached endpoints.
	ErrServiceNotAvailable = errors.New("service has no available endpoints")

	// ErrRateLimited means admission was denied by the rate limiter.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCircuitOpen means the circuit breaker rejected the call without
	// attempting the network operation.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrUpstreamTimeout means the relay exceeded the route's timeout.
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrUpstreamError means the relay failed at the transport level.
	ErrUpstreamError = errors.New("upstream request failed")
)

// RateLimitedError carries the retry hint for the 429 response.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}
