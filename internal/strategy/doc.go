// Package strategy defines the load balancing strategy interface and
// implements the selection algorithms:
//
//   - Round Robin: Sequential distribution across endpoints
//   - Random: Random endpoint selection
//   - Least Connections: Routes to the endpoint with fewest active connections
//   - Least Response Time: Routes based on exponentially weighted moving average (EWMA) response times
//   - Weighted Round Robin: Distribution proportional to endpoint weights
//
// Strategies are pure selection functions over a non-empty endpoint list;
// health filtering and connection bookkeeping are the caller's concern.
// Each strategy instance carries the per-service selection state, so the
// balancer keeps one instance per (service, strategy) pair.
package strategy
