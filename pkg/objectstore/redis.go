package objectstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps objects as plain string keys under a prefix.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "buildguide"
	}
	return &RedisStore{rdb: rdb, prefix: strings.TrimSuffix(prefix, ":")}
}

func (s *RedisStore) key(path string) string {
	return s.prefix + ":" + path
}

func (s *RedisStore) Put(ctx context.Context, path string, data []byte) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(path), data, 0).Err(); err != nil {
		return fmt.Errorf("redis put %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, path string) ([]byte, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	data, err := s.rdb.Get(ctx, s.key(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", path, err)
	}
	return data, nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := s.rdb.Scan(ctx, 0, s.key(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		out = append(out, strings.TrimPrefix(iter.Val(), s.prefix+":"))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis list %s: %w", prefix, err)
	}
	sort.Strings(out)
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
