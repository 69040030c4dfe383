// Package handler implements the gateway's inbound HTTP surface: the
// relay handler that feeds requests into the router pipeline and the
// admin handlers for stats and connection resets.
package handler
