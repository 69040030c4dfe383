// Package router ties route matching, admission control, discovery,
// load balancing and request relay together into the gateway's request
// path. The pipeline order is fixed: route match, rate limiter, circuit
// breaker, endpoint cache, healthy filter, strategy selection, relay,
// outcome recording.
package router
