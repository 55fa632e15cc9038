package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListCache holds the rendered recent-leads list between writes.
//
// Every Invalidate starts a new generation. Set only stores a list for the
// generation its caller read before querying storage, so a list loaded before
// a write can never repopulate the cache after that write's invalidation.
type ListCache interface {
	Get(ctx context.Context) (CachedList, error)
	Set(ctx context.Context, generation int64, leads []*Lead) error
	Invalidate(ctx context.Context) error
}

// CachedList is the result of a cache read.
type CachedList struct {
	Leads      []*Lead
	Hit        bool
	Generation int64
}

// NoopListCache never stores anything; every read is a miss.
type NoopListCache struct{}

func (NoopListCache) Get(context.Context) (CachedList, error)    { return CachedList{}, nil }
func (NoopListCache) Set(context.Context, int64, []*Lead) error { return nil }
func (NoopListCache) Invalidate(context.Context) error          { return nil }

const (
	listCacheKey      = "buyers:list:v1"
	listGenerationKey = "buyers:list:gen"
)

// RedisListCache stores the list as one JSON document in Redis next to a
// generation counter.
type RedisListCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisListCache returns a Redis-backed cache. A zero ttl keeps entries until invalidated.
func NewRedisListCache(client *redis.Client, ttl time.Duration) *RedisListCache {
	if client == nil {
		panic("leads: redis client required")
	}
	return &RedisListCache{redis: client, ttl: ttl}
}

// Get reads the current generation and the cached list in one round trip.
func (c *RedisListCache) Get(ctx context.Context) (CachedList, error) {
	vals, err := c.redis.MGet(ctx, listGenerationKey, listCacheKey).Result()
	if err != nil {
		return CachedList{}, fmt.Errorf("leads: get list cache: %w", err)
	}

	generation, err := parseGeneration(vals[0])
	if err != nil {
		return CachedList{}, err
	}
	out := CachedList{Generation: generation}

	raw, ok := vals[1].(string)
	if !ok {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out.Leads); err != nil {
		return CachedList{}, fmt.Errorf("leads: unmarshal list cache: %w", err)
	}
	out.Hit = true
	return out, nil
}

// Set stores the list unless the cache was invalidated after generation was read.
func (c *RedisListCache) Set(ctx context.Context, generation int64, leads []*Lead) error {
	if leads == nil {
		leads = []*Lead{}
	}
	data, err := json.Marshal(leads)
	if err != nil {
		return fmt.Errorf("leads: marshal list cache: %w", err)
	}

	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, listGenerationKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		gen, err := parseGeneration(current)
		if err != nil {
			return err
		}
		if gen != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, listCacheKey, data, c.ttl)
			return nil
		})
		return err
	}, listGenerationKey)
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("leads: set list cache: %w", err)
	}
	return nil
}

// Invalidate bumps the generation and drops the cached list so the next read goes to storage.
func (c *RedisListCache) Invalidate(ctx context.Context) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, listGenerationKey)
		pipe.Del(ctx, listCacheKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("leads: invalidate list cache: %w", err)
	}
	return nil
}

func parseGeneration(v any) (int64, error) {
	switch g := v.(type) {
	case nil:
		return 0, nil
	case string:
		if g == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("leads: list cache generation %q: %w", g, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("leads: list cache generation has type %T", v)
	}
}
