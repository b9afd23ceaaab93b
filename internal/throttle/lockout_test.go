package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testLockout = LockoutConfig{
	Retention: 1 * time.Hour,
	Window:    15 * time.Minute,
	Threshold: 10,
}

func TestLoginTrackerNotBlockedInitially(t *testing.T) {
	tracker := NewMemoryLoginTracker(testLockout)

	assert.False(t, tracker.Blocked("203.0.113.7"))
}

func TestLoginTrackerBlocksAtThreshold(t *testing.T) {
	clock := newFakeClock()
	tracker := NewMemoryLoginTracker(testLockout)
	tracker.now = clock.now

	for i := 0; i < 9; i++ {
		tracker.RecordFailure("203.0.113.7")
		clock.advance(time.Second)
	}
	assert.False(t, tracker.Blocked("203.0.113.7"), "9 failures should not block")

	tracker.RecordFailure("203.0.113.7")
	assert.True(t, tracker.Blocked("203.0.113.7"), "10 failures within 15 minutes should block")
}

func TestLoginTrackerUnblocksWhenWindowPasses(t *testing.T) {
	clock := newFakeClock()
	tracker := NewMemoryLoginTracker(testLockout)
	tracker.now = clock.now

	for i := 0; i < 10; i++ {
		tracker.RecordFailure("203.0.113.7")
	}
	assert.True(t, tracker.Blocked("203.0.113.7"))

	clock.advance(15*time.Minute + time.Second)
	assert.False(t, tracker.Blocked("203.0.113.7"), "failures outside the 15-minute window no longer block")
}

func TestLoginTrackerAddressesIndependent(t *testing.T) {
	tracker := NewMemoryLoginTracker(testLockout)

	for i := 0; i < 10; i++ {
		tracker.RecordFailure("203.0.113.7")
	}

	assert.True(t, tracker.Blocked("203.0.113.7"))
	assert.False(t, tracker.Blocked("198.51.100.1"))
}

func TestLoginTrackerPrunesByRetention(t *testing.T) {
	clock := newFakeClock()
	tracker := NewMemoryLoginTracker(testLockout)
	tracker.now = clock.now

	for i := 0; i < 10; i++ {
		tracker.RecordFailure("203.0.113.7")
	}

	// A recording an hour later drops the old failures entirely.
	clock.advance(time.Hour + time.Second)
	tracker.RecordFailure("203.0.113.7")

	assert.Len(t, tracker.failures["203.0.113.7"], 1)
}
