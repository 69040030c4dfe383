package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/angeloszaimis/service-router/internal/endpoint"
	"github.com/angeloszaimis/service-router/internal/metrics"
	"github.com/angeloszaimis/service-router/internal/registry"
)

const (
	// DefaultInterval between probe rounds.
	DefaultInterval = 10 * time.Second
	// DefaultTimeout bounds a single probe, independent of and shorter
	// than relay timeouts so a hanging downstream cannot stall the loop.
	DefaultTimeout = 5 * time.Second
	// DefaultPath is the well-known liveness path probed on each endpoint.
	DefaultPath = "/health"

	// tickBackoff delays the next round after a recovered panic.
	tickBackoff = time.Second
)

// Checker probes every endpoint of every cached service on a fixed
// interval and writes the classification onto the endpoints.
type Checker struct {
	cache     *registry.Cache
	client    *http.Client
	interval  time.Duration
	path      string
	logger    *slog.Logger
	collector *metrics.Collector
}

func New(cache *registry.Cache, interval, timeout time.Duration, path string, logger *slog.Logger, collector *metrics.Collector) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if path == "" {
		path = DefaultPath
	}

	return &Checker{
		cache: cache,
		client: &http.Client{
			Timeout: timeout,
		},
		interval:  interval,
		path:      path,
		logger:    logger,
		collector: collector,
	}
}

// Run probes until the context is cancelled. A panic inside a round is
// recovered and logged, and the loop resumes after a short backoff.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("Health checker started",
		slog.Duration("interval", c.interval),
		slog.String("path", c.path))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Health checker stopped")
			return

		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Checker) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Health check round panicked",
				slog.Any("panic", r))
			time.Sleep(tickBackoff)
		}
	}()

	for _, service := range c.cache.Services() {
		endpoints := c.cache.Peek(service)
		if len(endpoints) == 0 {
			continue
		}

		var wg sync.WaitGroup

		for _, e := range endpoints {
			wg.Add(1)
			go func(e *endpoint.Endpoint) {
				defer wg.Done()
				c.probe(ctx, service, e)
			}(e)
		}

		wg.Wait()

		passing := 0
		for _, e := range endpoints {
			if e.IsPassing() {
				passing++
			}
		}
		c.emit(metrics.Event{
			Type:    metrics.EventHealthyCount,
			Service: service,
			Count:   passing,
		})
	}
}

// probe issues one liveness request and classifies the endpoint:
// 200 is passing, any other status warning, a transport error critical.
func (c *Checker) probe(ctx context.Context, service string, e *endpoint.Endpoint) {
	healthURL := e.URL().ResolveReference(&url.URL{Path: c.path})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL.String(), nil)
	if err != nil {
		c.record(service, e, endpoint.StatusCritical)
		return
	}

	res, err := c.client.Do(req)
	if err != nil {
		c.record(service, e, endpoint.StatusCritical)
		return
	}
	defer res.Body.Close()

	status := endpoint.StatusWarning
	if res.StatusCode == http.StatusOK {
		status = endpoint.StatusPassing
	}

	c.record(service, e, status)
}

func (c *Checker) record(service string, e *endpoint.Endpoint, status endpoint.Status) {
	changed := e.SetStatus(status)

	if changed {
		if status == endpoint.StatusPassing {
			c.logger.Info("Endpoint is back up",
				slog.String("service", service),
				slog.String("endpoint", e.URL().String()))
		} else {
			c.logger.Warn("Endpoint is unhealthy",
				slog.String("service", service),
				slog.String("endpoint", e.URL().String()),
				slog.String("status", status.String()))
		}
	}

	c.emit(metrics.Event{
		Type:    metrics.EventHealthProbed,
		Service: service,
		Result:  status.String(),
	})
}

func (c *Checker) emit(event metrics.Event) {
	if c.collector == nil {
		return
	}
	c.collector.Emit(event)
}
