// Package endpoint defines the service endpoint model shared by the
// registry cache, the health checker and the load balancing strategies.
// It tracks connection counts, last-use timestamps, health status and
// response time monitoring per endpoint.
package endpoint
