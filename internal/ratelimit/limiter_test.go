package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(client), mr
}

func TestIPRateLimit_ExceedsAfterLimit(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < DefaultIPLimit; i++ {
		exceeded, err := l.CheckIPRateLimitWithPurpose(ctx, "1.2.3.4", "login")
		require.NoError(t, err)
		require.False(t, exceeded, "request %d", i)
		require.NoError(t, l.RecordIPRequestWithPurpose(ctx, "1.2.3.4", "login"))
	}

	exceeded, err := l.CheckIPRateLimitWithPurpose(ctx, "1.2.3.4", "login")
	require.NoError(t, err)
	assert.True(t, exceeded)

	// other purposes and other addresses keep their own windows
	exceeded, err = l.CheckIPRateLimitWithPurpose(ctx, "1.2.3.4", "register")
	require.NoError(t, err)
	assert.False(t, exceeded)

	exceeded, err = l.CheckIPRateLimit(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestIPRateLimit_WindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t)
	l.WithLimits(1, time.Minute, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.RecordIPRequest(ctx, "1.2.3.4"))
	exceeded, err := l.CheckIPRateLimit(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, exceeded)

	mr.FastForward(time.Minute + time.Second)

	exceeded, err = l.CheckIPRateLimit(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestEmailCooldown(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	on, err := l.CheckEmailCooldown(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, l.SetEmailCooldown(ctx, "A@b.com "))

	on, err = l.CheckEmailCooldown(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, on)

	mr.FastForward(DefaultEmailCooldown + time.Second)

	on, err = l.CheckEmailCooldown(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestLimiter_RedisDown(t *testing.T) {
	l, mr := newTestLimiter(t)
	mr.Close()

	_, err := l.CheckIPRateLimit(context.Background(), "1.2.3.4")
	assert.Error(t, err)
}

func TestRecordIPRequest_SetsWindowAtomically(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	require.NoError(t, l.RecordIPRequestWithPurpose(ctx, "1.2.3.4", "login"))
	assert.Equal(t, DefaultIPWindow, mr.TTL(ipKey("login", "1.2.3.4")))

	// a later request does not extend the window
	mr.FastForward(time.Minute)
	require.NoError(t, l.RecordIPRequestWithPurpose(ctx, "1.2.3.4", "login"))
	assert.Equal(t, DefaultIPWindow-time.Minute, mr.TTL(ipKey("login", "1.2.3.4")))
}

func TestRecordIPRequest_RepairsCounterWithoutTTL(t *testing.T) {
	l, mr := newTestLimiter(t)
	l.WithLimits(3, time.Minute, time.Minute)
	ctx := context.Background()

	// counter stranded without an expiry
	key := ipKey(defaultPurpose, "1.2.3.4")
	require.NoError(t, mr.Set(key, "7"))
	require.Zero(t, mr.TTL(key))

	require.NoError(t, l.RecordIPRequest(ctx, "1.2.3.4"))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)
	exceeded, err := l.CheckIPRateLimit(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, exceeded, "stranded counter should expire after one window")
}
