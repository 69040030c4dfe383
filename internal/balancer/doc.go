// Package balancer maps (service, strategy) pairs to live strategy
// instances so that selection state survives endpoint cache refreshes.
package balancer
