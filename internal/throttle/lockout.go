package throttle

import (
	"sync"
	"time"
)

// LockoutConfig controls the failed-login tracker. Failures are retained for
// Retention; an address is blocked while at least Threshold failures fall
// within the trailing Window.
type LockoutConfig struct {
	Retention time.Duration
	Window    time.Duration
	Threshold int
}

// LoginTracker records failed logins per client address and reports
// temporary lockouts. It is layered on top of the generic Limiter: an
// address can be under the request limit and still blocked for repeated bad
// credentials.
type LoginTracker interface {
	RecordFailure(addr string)
	Blocked(addr string) bool
}

// MemoryLoginTracker is the single-instance LoginTracker.
type MemoryLoginTracker struct {
	mu       sync.Mutex
	config   LockoutConfig
	failures map[string][]time.Time
	now      func() time.Time
}

// NewMemoryLoginTracker creates a MemoryLoginTracker with the given config.
func NewMemoryLoginTracker(config LockoutConfig) *MemoryLoginTracker {
	return &MemoryLoginTracker{
		config:   config,
		failures: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// RecordFailure appends a failed-login timestamp for the address, pruning
// entries older than the retention period.
func (t *MemoryLoginTracker) RecordFailure(addr string) {
	now := t.now()
	cutoff := now.Add(-t.config.Retention)

	t.mu.Lock()
	defer t.mu.Unlock()

	window := append(t.failures[addr], now)
	pruned := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			pruned = append(pruned, ts)
		}
	}
	t.failures[addr] = pruned
}

// Blocked reports whether the address has accumulated at least the threshold
// number of failures within the trailing lockout window.
func (t *MemoryLoginTracker) Blocked(addr string) bool {
	now := t.now()
	cutoff := now.Add(-t.config.Window)

	t.mu.Lock()
	defer t.mu.Unlock()

	recent := 0
	for _, ts := range t.failures[addr] {
		if ts.After(cutoff) {
			recent++
		}
	}

	return recent >= t.config.Threshold
}
