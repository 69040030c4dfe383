// Package route implements the ordered route table that maps an inbound
// path and method to a target service and its per-route policy. Rules are
// immutable after registration and consulted in descending priority
// order; the first match wins.
package route
