package throttle

import (
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func TestRedisLimiterAdmitsUpToThreshold(t *testing.T) {
	client := newTestRedis(t)
	l := NewRedisLimiter(client, testLimits, testLogger())

	for i := 0; i < 5; i++ {
		assert.True(t, l.Admit("203.0.113.7", ClassLogin), "request %d should be admitted", i+1)
	}

	assert.False(t, l.Admit("203.0.113.7", ClassLogin), "6th login request within window should be rejected")
}

func TestRedisLimiterTracksAddressesIndependently(t *testing.T) {
	client := newTestRedis(t)
	l := NewRedisLimiter(client, testLimits, testLogger())

	for i := 0; i < 6; i++ {
		l.Admit("203.0.113.7", ClassLogin)
	}

	assert.False(t, l.Admit("203.0.113.7", ClassLogin))
	assert.True(t, l.Admit("198.51.100.1", ClassLogin))
}

func TestRedisLimiterFailsOpenWhenUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	l := NewRedisLimiter(client, testLimits, testLogger())

	assert.True(t, l.Admit("203.0.113.7", ClassLogin))
}

func TestRedisLoginTrackerBlocksAtThreshold(t *testing.T) {
	client := newTestRedis(t)
	tracker := NewRedisLoginTracker(client, testLockout, testLogger())

	for i := 0; i < 9; i++ {
		tracker.RecordFailure("203.0.113.7")
	}
	assert.False(t, tracker.Blocked("203.0.113.7"))

	tracker.RecordFailure("203.0.113.7")
	assert.True(t, tracker.Blocked("203.0.113.7"))
}

func TestRedisLoginTrackerFailsOpenWhenUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	tracker := NewRedisLoginTracker(client, testLockout, testLogger())

	tracker.RecordFailure("203.0.113.7")
	assert.False(t, tracker.Blocked("203.0.113.7"))
}
