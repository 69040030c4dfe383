// Package healthcheck implements background health probing for every
// cached service endpoint. A single loop probes all endpoints
// concurrently each tick and annotates their health status; probe
// failures are isolated per endpoint and never stop the loop.
package healthcheck
