package handler

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/angeloszaimis/service-router/internal/router"
)

// GatewayHandler relays every inbound request through the router.
type GatewayHandler struct {
	logger *slog.Logger
	router *router.Router
}

func NewGatewayHandler(logger *slog.Logger, r *router.Router) *GatewayHandler {
	return &GatewayHandler{
		logger: logger,
		router: r,
	}
}

// Hop-by-hop headers are not forwarded to the client.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func (h *GatewayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)

	h.logger.Info("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("host", r.Host))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	resp, err := h.router.Route(r.Context(), router.Request{
		Path:     r.URL.Path,
		Method:   r.Method,
		Headers:  r.Header.Clone(),
		Query:    r.URL.Query(),
		Body:     body,
		ClientIP: clientIP,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	headers := resp.Headers.Clone()
	for _, name := range hopHeaders {
		headers.Del(name)
	}
	for name, values := range headers {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		h.logger.Warn("Failed to write response",
			slog.String("client", clientIP),
			slog.String("error", err.Error()))
	}
}

// writeError maps the router error taxonomy onto HTTP statuses.
func (h *GatewayHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rateLimited *router.RateLimitedError

	switch {
	case errors.Is(err, router.ErrRouteNotFound):
		http.Error(w, "no route for request", http.StatusNotFound)

	case errors.As(err, &rateLimited):
		seconds := int(math.Ceil(rateLimited.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)

	case errors.Is(err, router.ErrCircuitOpen):
		http.Error(w, "service temporarily unavailable", http.StatusServiceUnavailable)

	case errors.Is(err, router.ErrServiceNotAvailable):
		http.Error(w, "no endpoints available", http.StatusServiceUnavailable)

	case errors.Is(err, router.ErrUpstreamTimeout):
		http.Error(w, "upstream timeout", http.StatusGatewayTimeout)

	case errors.Is(err, router.ErrUpstreamError):
		http.Error(w, "upstream error", http.StatusBadGateway)

	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}

	h.logger.Warn("Request rejected",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
