package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultIPLimit       = 10
	DefaultIPWindow      = 15 * time.Minute
	DefaultEmailCooldown = 2 * time.Minute

	defaultPurpose = "default"
)

// incrWindow counts one request and makes sure the counter has a TTL.
// A counter left without one (for example by an older client) gets the window again.
var incrWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// Limiter implements fixed-window IP rate limiting and per-email cooldowns on Redis
type Limiter struct {
	client        redis.Cmdable
	ipLimit       int64
	ipWindow      time.Duration
	emailCooldown time.Duration
}

// NewLimiter creates a limiter with the default limits (10 requests per 15 minutes, 2 minute cooldown)
func NewLimiter(client redis.Cmdable) *Limiter {
	return &Limiter{
		client:        client,
		ipLimit:       DefaultIPLimit,
		ipWindow:      DefaultIPWindow,
		emailCooldown: DefaultEmailCooldown,
	}
}

// WithLimits overrides the window parameters
func (l *Limiter) WithLimits(ipLimit int, ipWindow, emailCooldown time.Duration) *Limiter {
	l.ipLimit = int64(ipLimit)
	l.ipWindow = ipWindow
	l.emailCooldown = emailCooldown
	return l
}

func ipKey(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

func cooldownKey(email string) string {
	return fmt.Sprintf("ratelimit:email_cooldown:%s", strings.ToLower(strings.TrimSpace(email)))
}

// CheckIPRateLimit reports whether ip has used up the default window
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.CheckIPRateLimitWithPurpose(ctx, ip, defaultPurpose)
}

// RecordIPRequest counts a request from ip against the default window
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.RecordIPRequestWithPurpose(ctx, ip, defaultPurpose)
}

// CheckIPRateLimitWithPurpose reports whether ip has used up the window kept for purpose
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(purpose, ip)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	return count >= l.ipLimit, nil
}

// RecordIPRequestWithPurpose counts a request. The window starts with the first request.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	err := incrWindow.Run(ctx, l.client, []string{ipKey(purpose, ip)}, l.ipWindow.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return nil
}

// CheckEmailCooldown reports whether an email was used for a mail-sending request recently
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	n, err := l.client.Exists(ctx, cooldownKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}

	return n > 0, nil
}

// SetEmailCooldown starts the cooldown for email unless one is already running
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.SetNX(ctx, cooldownKey(email), "1", l.emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}

	return nil
}
