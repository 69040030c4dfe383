package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/service-router/internal/endpoint"
)

// Request headers injected on every relay.
const (
	HeaderRequestID    = "X-Request-ID"
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderServiceName  = "X-Service-Name"
)

// forward relays the request to the chosen endpoint under the route's
// timeout. Transport failures map to the upstream error taxonomy; any
// downstream response, whatever its status, is returned verbatim.
func (r *Router) forward(ctx context.Context, e *endpoint.Endpoint, service string, timeout time.Duration, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := *e.URL()
	target.Path = req.Path
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	outbound, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamError, err)
	}

	for name, values := range req.Headers {
		for _, value := range values {
			outbound.Header.Add(name, value)
		}
	}

	outbound.Header.Set(HeaderRequestID, uuid.NewString())
	outbound.Header.Set(HeaderServiceName, service)
	if req.ClientIP != "" {
		appendForwardedFor(outbound.Header, req.ClientIP)
	}

	res, err := r.client.Do(outbound)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %s", ErrUpstreamTimeout, target.Host)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamError, target.Host, err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %s", ErrUpstreamTimeout, target.Host)
		}
		return nil, fmt.Errorf("%w: reading response from %s: %v", ErrUpstreamError, target.Host, err)
	}

	return &Response{
		StatusCode: res.StatusCode,
		Headers:    res.Header.Clone(),
		Body:       payload,
	}, nil
}

func appendForwardedFor(headers http.Header, clientIP string) {
	if existing := headers.Get(HeaderForwardedFor); existing != "" {
		headers.Set(HeaderForwardedFor, existing+", "+clientIP)
		return
	}
	headers.Set(HeaderForwardedFor, clientIP)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
