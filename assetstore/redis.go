package assetstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores assets as Redis string values under a common key prefix, for
// deployments where several workers share one overlay library.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps an existing client. Keys are stored as "<prefix>:<key>";
// prefix defaults to "docpipe:asset".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "docpipe:asset"
	}
	return &Redis{client: client, prefix: prefix}
}

func (s *Redis) key(key string) string {
	return s.prefix + ":" + key
}

func (s *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("assetstore: redis get %s: %w", key, err)
	}
	return data, nil
}

func (s *Redis) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("assetstore: redis set %s: %w", key, err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("assetstore: redis del %s: %w", key, err)
	}
	return nil
}
