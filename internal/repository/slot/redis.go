package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
)

type redisRepo struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewRedis stores slots as plain string keys under namespace. A zero ttl keeps
// slots forever.
func NewRedis(client *redis.Client, namespace string, ttl time.Duration, logger zerolog.Logger) Repository {
	return &redisRepo{client: client, namespace: namespace, ttl: ttl, logger: logger}
}

// DialRedis parses a redis:// URL and verifies the connection.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *redisRepo) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

func (r *redisRepo) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("key", key).Msg("slot get failed")
		return nil, err
	}
	return v, nil
}

func (r *redisRepo) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("slot put failed")
		return err
	}
	return nil
}
