// Package throttle tracks request and failed-login rates per client address.
// Both trackers are defined as interfaces so the single-instance in-memory
// implementation and the Redis-backed one are interchangeable behind the
// middleware and the auth facade.
package throttle

import (
	"sync"
	"time"
)

// Class groups endpoints by how aggressively they are throttled.
type Class int

const (
	// ClassLogin covers credential-bearing endpoints.
	ClassLogin Class = iota
	// ClassAdmin covers authenticated mutation endpoints.
	ClassAdmin
	// ClassPublic covers everything else, including unmatched paths.
	ClassPublic
)

func (c Class) String() string {
	switch c {
	case ClassLogin:
		return "login"
	case ClassAdmin:
		return "admin"
	default:
		return "public"
	}
}

// Limit is a sliding-window threshold: at most Max admitted requests per
// trailing Window.
type Limit struct {
	Window time.Duration
	Max    int
}

// Limits holds the per-class thresholds.
type Limits struct {
	Login  Limit
	Admin  Limit
	Public Limit
}

func (l Limits) forClass(c Class) Limit {
	switch c {
	case ClassLogin:
		return l.Login
	case ClassAdmin:
		return l.Admin
	default:
		return l.Public
	}
}

// Limiter admits or rejects a request from a client address for an endpoint
// class. Exceeding a limit is a client error, never a server failure.
type Limiter interface {
	Admit(addr string, class Class) bool
}

// MemoryLimiter is the single-instance Limiter: per address × class windows
// of request timestamps, pruned on every check. State is process-local and
// lost on restart, which is acceptable for a soft throttle.
type MemoryLimiter struct {
	mu      sync.Mutex
	limits  Limits
	windows map[windowKey][]time.Time
	now     func() time.Time
}

type windowKey struct {
	addr  string
	class Class
}

// NewMemoryLimiter creates a MemoryLimiter with the given thresholds.
func NewMemoryLimiter(limits Limits) *MemoryLimiter {
	return &MemoryLimiter{
		limits:  limits,
		windows: make(map[windowKey][]time.Time),
		now:     time.Now,
	}
}

// Admit appends the current time to the address's window for the class,
// prunes entries older than the class window, and reports whether the
// remaining count is within the class threshold.
func (l *MemoryLimiter) Admit(addr string, class Class) bool {
	limit := l.limits.forClass(class)
	now := l.now()
	cutoff := now.Add(-limit.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	key := windowKey{addr: addr, class: class}
	window := append(l.windows[key], now)

	pruned := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			pruned = append(pruned, ts)
		}
	}

	if len(pruned) == 0 {
		delete(l.windows, key)
	} else {
		l.windows[key] = pruned
	}

	return len(pruned) <= limit.Max
}
