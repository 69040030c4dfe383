package registry

import (
	"context"
	"strconv"
	"sync"
)

// Instance is a service replica as reported by the registry.
type Instance struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Address  string            `json:"address"`
	Port     int               `json:"port"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Weight returns the selection weight from the instance metadata.
// Missing or malformed values default to 1.
func (i Instance) Weight() int {
	raw, ok := i.Metadata["weight"]
	if !ok {
		return 1
	}

	w, err := strconv.Atoi(raw)
	if err != nil || w < 1 {
		return 1
	}

	return w
}

// Discoverer resolves a logical service name to its live instances.
type Discoverer interface {
	Discover(ctx context.Context, service string) ([]Instance, error)
}

// StaticDiscoverer serves a fixed instance set from memory. It backs
// static deployments without a registry and the test suites.
type StaticDiscoverer struct {
	mutex    sync.RWMutex
	services map[string][]Instance
}

func NewStaticDiscoverer() *StaticDiscoverer {
	return &StaticDiscoverer{
		services: make(map[string][]Instance),
	}
}

// SetService replaces the instance list for a service.
func (d *StaticDiscoverer) SetService(service string, instances []Instance) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	copied := make([]Instance, len(instances))
	copy(copied, instances)
	d.services[service] = copied
}

// Discover returns the configured instances for the service.
// Unknown services resolve to an empty list, not an error.
func (d *StaticDiscoverer) Discover(_ context.Context, service string) ([]Instance, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	instances := d.services[service]
	copied := make([]Instance, len(instances))
	copy(copied, instances)
	return copied, nil
}
