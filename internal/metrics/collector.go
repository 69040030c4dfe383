package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventEndpointSelected  EventType = "endpoint_selected"
	EventResponseCompleted EventType = "response_completed"
	EventRateLimited       EventType = "rate_limited"
	EventCircuitRejected   EventType = "circuit_rejected"
	EventHealthProbed      EventType = "health_probed"
	EventHealthyCount      EventType = "healthy_count"
)

type Event struct {
	Type       EventType
	Service    string
	Route      string
	Strategy   string
	Result     string
	StatusCode int
	Duration   time.Duration
	Count      int
}

type Collector struct {
	eventCh chan Event
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan Event, bufferSize),
		logger:  logger,
	}
}

// Emit sends an event without blocking the caller; events are dropped
// when the buffer is full.
func (c *Collector) Emit(event Event) {
	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventEndpointSelected:
		SelectionsTotal.WithLabelValues(event.Service, event.Strategy).Inc()

	case EventResponseCompleted:
		RequestsTotal.WithLabelValues(event.Service, statusLabel(event.StatusCode)).Inc()
		RequestDuration.WithLabelValues(event.Service).Observe(event.Duration.Seconds())

	case EventRateLimited:
		RateLimitRejections.WithLabelValues(event.Route).Inc()

	case EventCircuitRejected:
		CircuitRejections.WithLabelValues(event.Route).Inc()

	case EventHealthProbed:
		HealthChecksTotal.WithLabelValues(event.Service, event.Result).Inc()

	case EventHealthyCount:
		HealthyEndpoints.WithLabelValues(event.Service).Set(float64(event.Count))
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}
