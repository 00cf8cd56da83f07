package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(maxRequests int, window time.Duration, clock *fakeClock) *FixedWindowLimiter {
	return NewFixedWindowLimiter(RateLimitPolicy{
		Bucket:      "test",
		MaxRequests: maxRequests,
		Window:      window,
	}).WithClock(clock.Now)
}

func TestFixedWindowLimiter_AllowsUpToMax(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(3, time.Minute, clock)

	for i := 0; i < 3; i++ {
		assert.False(t, l.IsRateLimited("a"), "request %d", i+1)
	}
	assert.True(t, l.IsRateLimited("a"))
	assert.True(t, l.IsRateLimited("a"))

	// Blocked requests do not grow the count.
	assert.Equal(t, 3, l.Count("a"))
}

func TestFixedWindowLimiter_MaxOne(t *testing.T) {
	l := newTestLimiter(1, time.Minute, newFakeClock())

	assert.False(t, l.IsRateLimited("a"))
	assert.True(t, l.IsRateLimited("a"))
}

func TestFixedWindowLimiter_WindowBoundary(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(2, time.Minute, clock)

	require.False(t, l.IsRateLimited("a"))
	require.False(t, l.IsRateLimited("a"))
	require.True(t, l.IsRateLimited("a"))

	// Exactly at the reset instant the window is still closed.
	clock.Advance(time.Minute)
	assert.True(t, l.IsRateLimited("a"))

	clock.Advance(time.Millisecond)
	assert.False(t, l.IsRateLimited("a"))
	assert.Equal(t, 1, l.Count("a"))
}

func TestFixedWindowLimiter_IdentifiersAreIndependent(t *testing.T) {
	l := newTestLimiter(1, time.Minute, newFakeClock())

	assert.False(t, l.IsRateLimited("a"))
	assert.True(t, l.IsRateLimited("a"))
	assert.False(t, l.IsRateLimited("b"))
}

func TestFixedWindowLimiter_Reset(t *testing.T) {
	l := newTestLimiter(1, time.Minute, newFakeClock())

	require.False(t, l.IsRateLimited("a"))
	require.True(t, l.IsRateLimited("a"))

	l.Reset("a")
	assert.Equal(t, 0, l.Count("a"))
	assert.False(t, l.IsRateLimited("a"))

	// Resetting an unknown identifier is a no-op.
	l.Reset("missing")
}

func TestFixedWindowLimiter_CheckInfo(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(2, 5*time.Minute, clock)

	info := l.Check("a")
	assert.True(t, info.Allowed)
	assert.Equal(t, 1, info.Remaining)
	assert.Equal(t, clock.Now().Add(5*time.Minute), info.ResetTime)

	l.Check("a")
	clock.Advance(90 * time.Second)
	info = l.Check("a")
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 210, info.RetryAfter)
}

func TestFixedWindowLimiter_SweepsAboveThreshold(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(5, time.Minute, clock)

	for i := 0; i <= SweepThreshold; i++ {
		l.Check(fmt.Sprintf("client-%d", i))
	}
	require.Equal(t, SweepThreshold+1, l.Len())

	clock.Advance(2 * time.Minute)
	l.Check("fresh")
	assert.Equal(t, 1, l.Len())
}

func TestFixedWindowLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(5, time.Minute, clock)

	l.Check("old")
	clock.Advance(30 * time.Second)
	l.Check("new")
	clock.Advance(45 * time.Second)

	assert.Equal(t, 1, l.Cleanup())
	assert.Equal(t, 0, l.Count("old"))
	assert.Equal(t, 1, l.Count("new"))
}

func TestFixedWindowLimiter_Concurrent(t *testing.T) {
	l := newTestLimiter(50, time.Minute, newFakeClock())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !l.IsRateLimited("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestNewFixedWindowLimiter_ClampsPolicy(t *testing.T) {
	l := NewFixedWindowLimiter(RateLimitPolicy{Bucket: "x", MaxRequests: 0, Window: 0})
	assert.Equal(t, 1, l.Policy().MaxRequests)
	assert.Equal(t, time.Minute, l.Policy().Window)
}

func TestRateLimitService_BucketsAreIsolated(t *testing.T) {
	svc := NewRateLimitService(DefaultRateLimitPolicies()...)

	for i := 0; i < 10; i++ {
		info, err := svc.Check(BucketLogin, "client")
		require.NoError(t, err)
		require.True(t, info.Allowed)
	}
	info, err := svc.Check(BucketLogin, "client")
	require.NoError(t, err)
	assert.False(t, info.Allowed)

	info, err = svc.Check(BucketChat, "client")
	require.NoError(t, err)
	assert.True(t, info.Allowed)

	svc.Reset(BucketLogin, "client")
	info, err = svc.Check(BucketLogin, "client")
	require.NoError(t, err)
	assert.True(t, info.Allowed)
}

func TestRateLimitService_UnknownBucket(t *testing.T) {
	svc := NewRateLimitService(DefaultRateLimitPolicies()...)

	_, err := svc.Check("nope", "client")
	assert.Error(t, err)
	assert.Equal(t, "Too many requests. Please try again later.", svc.Message("nope"))
	assert.Equal(t, "Too many login attempts. Please try again in 5 minutes.", svc.Message(BucketLogin))
}

func TestDefaultRateLimitPolicies(t *testing.T) {
	policies := map[string]RateLimitPolicy{}
	for _, p := range DefaultRateLimitPolicies() {
		policies[p.Bucket] = p
	}

	assert.Equal(t, 10, policies[BucketLogin].MaxRequests)
	assert.Equal(t, 5*time.Minute, policies[BucketLogin].Window)
	assert.Equal(t, 10, policies[BucketLogout].MaxRequests)
	assert.Equal(t, time.Minute, policies[BucketLogout].Window)
	assert.Len(t, policies, 7)
}

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		raw     string
		max     int
		window  time.Duration
		wantErr bool
	}{
		{raw: "10/5m", max: 10, window: 5 * time.Minute},
		{raw: " 3 / 30s ", max: 3, window: 30 * time.Second},
		{raw: "10", wantErr: true},
		{raw: "0/1m", wantErr: true},
		{raw: "5/soon", wantErr: true},
		{raw: "5/-1m", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			maxRequests, window, err := ParseRateLimit(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.max, maxRequests)
			assert.Equal(t, tt.window, window)
		})
	}
}
