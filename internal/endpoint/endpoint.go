package endpoint

import (
	"fmt"
	"net/url"
	"sync"
	"time"
)

// Status is the health classification of an endpoint as observed by the
// health checker.
type Status int

const (
	StatusUnknown  Status = iota // Not probed yet
	StatusPassing                // Probe returned 200
	StatusWarning                // Probe returned a non-200 status
	StatusCritical               // Probe failed at the transport level
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusPassing:
		return "passing"
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Endpoint represents one replica of a logical service discovered from the
// registry. Endpoints are created on cache refresh and replaced wholesale
// on the next refresh for the same service.
type Endpoint struct {
	address   string
	port      int
	serviceID string
	weight    int

	mutex            sync.Mutex
	status           Status
	connections      int
	lastUsed         time.Time
	ewmaResponseTime time.Duration
	hasEWMA          bool
}

const ewmaAlpha = 0.2

// New creates an Endpoint. Weights below 1 are clamped to 1 so that
// weighted selection never stalls on a zero-weight replica.
func New(address string, port int, serviceID string, weight int) *Endpoint {
	if weight < 1 {
		weight = 1
	}

	return &Endpoint{
		address:   address,
		port:      port,
		serviceID: serviceID,
		weight:    weight,
		status:    StatusUnknown,
	}
}

// Address returns the endpoint host.
func (e *Endpoint) Address() string {
	return e.address
}

// Port returns the endpoint port.
func (e *Endpoint) Port() int {
	return e.port
}

// ServiceID returns the registry instance ID of this endpoint.
func (e *Endpoint) ServiceID() string {
	return e.serviceID
}

// Weight returns the configured selection weight.
func (e *Endpoint) Weight() int {
	return e.weight
}

// URL returns the base URL used to relay requests to this endpoint.
func (e *Endpoint) URL() *url.URL {
	return &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", e.address, e.port),
	}
}

// Status returns the current health status.
func (e *Endpoint) Status() Status {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.status
}

// SetStatus updates the health status.
// Returns true if the status changed, false if it was already in that state.
func (e *Endpoint) SetStatus(status Status) (changed bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.status == status {
		return false
	}

	e.status = status
	return true
}

// IsPassing returns true if the last probe classified the endpoint healthy.
func (e *Endpoint) IsPassing() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.status == StatusPassing
}

// IncrementConn increments the active connection count.
func (e *Endpoint) IncrementConn() {
	e.mutex.Lock()
	e.connections++
	e.mutex.Unlock()
}

// DecrementConn decrements the active connection count.
func (e *Endpoint) DecrementConn() {
	e.mutex.Lock()
	if e.connections > 0 {
		e.connections--
	}
	e.mutex.Unlock()
}

// Connections returns the current number of active connections.
func (e *Endpoint) Connections() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.connections
}

// ResetConnections zeroes the connection counter.
func (e *Endpoint) ResetConnections() {
	e.mutex.Lock()
	e.connections = 0
	e.mutex.Unlock()
}

// MarkUsed records the selection timestamp.
func (e *Endpoint) MarkUsed() {
	e.mutex.Lock()
	e.lastUsed = time.Now()
	e.mutex.Unlock()
}

// LastUsed returns the time of the last selection, zero if never selected.
func (e *Endpoint) LastUsed() time.Time {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.lastUsed
}

// RecordResponse updates the exponentially weighted moving average (EWMA)
// response time using the latest relay duration.
func (e *Endpoint) RecordResponse(duration time.Duration) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.hasEWMA {
		e.ewmaResponseTime = duration
		e.hasEWMA = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	e.ewmaResponseTime = time.Duration((1-ewmaAlpha)*float64(e.ewmaResponseTime) + ewmaAlpha*float64(duration))
}

// EWMATime returns the exponentially weighted moving average response time.
// Returns 0 if no responses have been recorded yet.
func (e *Endpoint) EWMATime() time.Duration {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.hasEWMA {
		return 0
	}

	return e.ewmaResponseTime
}

// Snapshot is a read-only copy of an endpoint's state, used by the stats
// API and the admin surface.
type Snapshot struct {
	Address     string    `json:"address"`
	Port        int       `json:"port"`
	ServiceID   string    `json:"service_id"`
	Weight      int       `json:"weight"`
	Status      string    `json:"status"`
	Connections int       `json:"connections"`
	LastUsed    time.Time `json:"last_used,omitzero"`
}

// Snapshot returns a consistent copy of the endpoint's mutable state.
func (e *Endpoint) Snapshot() Snapshot {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return Snapshot{
		Address:     e.address,
		Port:        e.port,
		ServiceID:   e.serviceID,
		Weight:      e.weight,
		Status:      e.status.String(),
		Connections: e.connections,
		LastUsed:    e.lastUsed,
	}
}
