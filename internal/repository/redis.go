package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crmdash/internal/config"
	"crmdash/internal/session"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

type RedisSessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisClient builds a Redis client from the config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, now: time.Now}
}

func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if s.Expired(r.now()) {
		return nil, nil
	}
	return &s, nil
}

// Save stores a snapshot of s with a TTL matching the session's remaining
// lifetime. An already expired session is removed instead.
func (r *RedisSessionRepository) Save(ctx context.Context, s *session.Session) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	snap := s.Snapshot()
	ttl := snap.TTL(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, snap.ID)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+snap.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in redis: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
