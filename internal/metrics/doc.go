// Package metrics provides real-time metrics collection for the service
// router, exported in Prometheus format.
//
// It uses a channel-based event pipeline to collect metrics off the
// request path: handlers and background loops emit events via a buffered
// channel with non-blocking semantics, and a dedicated collector
// goroutine folds them into the Prometheus collectors. Shutdown drains
// the channel so no event is lost.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.Event{
//		Type:       metrics.EventResponseCompleted,
//		Service:    "users",
//		StatusCode: 200,
//		Duration:   150 * time.Millisecond,
//	})
package metrics
