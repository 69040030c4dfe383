// Package registry implements service discovery against an external
// service registry and a TTL-bounded per-service endpoint cache.
//
// The Discoverer interface abstracts the registry itself; the etcd-backed
// implementation reads JSON-encoded instances stored under
// <namespace>/<service>/<instance-id>. The Cache keeps one endpoint
// snapshot per service, refreshed at most once per TTL, and degrades to
// the stale snapshot when the registry is unreachable.
package registry
