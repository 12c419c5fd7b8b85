package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nao1215/jobharvest/internal/model"
)

// redisDefaultTimeout bounds a single Redis round trip when the caller's
// context has no deadline.
const redisDefaultTimeout = 5 * time.Second

// redisClient is the subset of *redis.Client the store uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisStore keeps the state in Redis under prefix+model.StateKey.
type RedisStore struct {
	client redisClient
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a store that connects to addr. A ttl of zero keeps
// the state forever.
func NewRedisStore(addr, prefix string, ttl time.Duration) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

// NewRedisStoreWithClient builds a store using a custom client (tests).
func NewRedisStoreWithClient(client redisClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, key: prefix + model.StateKey, ttl: ttl}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) (model.RunState, bool, error) {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.RunState{}, false, nil
		}
		return model.RunState{}, false, fmt.Errorf("failed to read state from redis: %w", err)
	}

	var st model.RunState
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return model.RunState{}, false, fmt.Errorf("failed to parse state from redis: %w", err)
	}
	return st, true, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, st model.RunState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()
	if err := s.client.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write state to redis: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, redisDefaultTimeout)
}
