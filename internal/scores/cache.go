package scores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// generationTTL outlives any single read-through by a wide margin
const generationTTL = 24 * time.Hour

// setIfGeneration stores a top list only if no Record bumped the generation
// since the reader looked it up.
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisCache keeps each user's top-10 list per game in Redis.
// Every invalidation bumps a generation counter so a list read from the
// database before a newer score was recorded is never written back.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func topKey(userID uuid.UUID, game string) string {
	return fmt.Sprintf("scores:top:%s:%s", userID.String(), game)
}

func generationKey(userID uuid.UUID, game string) string {
	return fmt.Sprintf("scores:gen:%s:%s", userID.String(), game)
}

// Get returns the cached list. ok is false on a miss.
func (c *RedisCache) Get(ctx context.Context, userID uuid.UUID, game string) (entries []Entry, ok bool, err error) {
	raw, err := c.client.Get(ctx, topKey(userID, game)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read score cache: %w", err)
	}

	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode score cache: %w", err)
	}
	return entries, true, nil
}

// Generation returns the current invalidation counter, 0 if none was recorded
func (c *RedisCache) Generation(ctx context.Context, userID uuid.UUID, game string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(userID, game)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read score cache generation: %w", err)
	}
	return gen, nil
}

// Set stores entries unless the generation moved past gen. stored reports whether it was written.
func (c *RedisCache) Set(ctx context.Context, userID uuid.UUID, game string, entries []Entry, gen int64) (stored bool, err error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return false, fmt.Errorf("failed to encode score cache: %w", err)
	}

	keys := []string{generationKey(userID, game), topKey(userID, game)}
	n, err := setIfGeneration.Run(ctx, c.client, keys, strconv.FormatInt(gen, 10), raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to write score cache: %w", err)
	}
	return n == 1, nil
}

// Invalidate drops the cached list and bumps the generation in one transaction
func (c *RedisCache) Invalidate(ctx context.Context, userID uuid.UUID, game string) error {
	genKey := generationKey(userID, game)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, topKey(userID, game))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate score cache: %w", err)
	}
	return nil
}
