package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 100
	DefaultWindow      = 60 * time.Second
)

// Result reports an admission decision. RetryAfter is only set on
// rejection and names the time until the oldest recorded request leaves
// the window.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter applies a sliding window of request timestamps per key.
// Windows are created lazily and never deleted, mirroring the circuit
// breaker registry lifecycle.
type Limiter struct {
	mutex       sync.RWMutex
	windows     map[string]*window
	maxRequests int
	window      time.Duration
}

type window struct {
	mutex      sync.Mutex
	timestamps []time.Time
}

func New(maxRequests int, windowDur time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if windowDur <= 0 {
		windowDur = DefaultWindow
	}

	return &Limiter{
		windows:     make(map[string]*window),
		maxRequests: maxRequests,
		window:      windowDur,
	}
}

// Allow admits the request if fewer than maxRequests attempts fall inside
// the trailing window, recording the attempt on admission.
func (l *Limiter) Allow(key string) Result {
	w := l.windowFor(key)

	w.mutex.Lock()
	defer w.mutex.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	// Drop timestamps that slid out of the window
	valid := w.timestamps[:0]
	for _, t := range w.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	w.timestamps = valid

	if len(w.timestamps) < l.maxRequests {
		w.timestamps = append(w.timestamps, now)
		return Result{
			Allowed:   true,
			Limit:     l.maxRequests,
			Remaining: l.maxRequests - len(w.timestamps),
		}
	}

	retryAfter := w.timestamps[0].Add(l.window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}

	return Result{
		Allowed:    false,
		Limit:      l.maxRequests,
		RetryAfter: retryAfter,
	}
}

// Reset clears the recorded attempts for a key.
func (l *Limiter) Reset(key string) {
	l.mutex.RLock()
	w, ok := l.windows[key]
	l.mutex.RUnlock()

	if !ok {
		return
	}

	w.mutex.Lock()
	w.timestamps = nil
	w.mutex.Unlock()
}

func (l *Limiter) windowFor(key string) *window {
	l.mutex.RLock()
	w, ok := l.windows[key]
	l.mutex.RUnlock()

	if ok {
		return w
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if w, ok = l.windows[key]; ok {
		return w
	}

	w = &window{}
	l.windows[key] = w
	return w
}
