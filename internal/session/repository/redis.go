package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rederly:session:"

// RedisRepository stores the session keys as fields of one redis hash per client id.
type RedisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepository returns a repository using client and the hash for clientID.
func NewRedisRepository(client *redis.Client, clientID string) *RedisRepository {
	return &RedisRepository{client: client, key: redisKeyPrefix + clientID}
}

// NewRedisClient parses a redis:// URL and returns a client. Caller must Close it.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// Get returns the value for key and whether it is present.
func (r *RedisRepository) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// GetAll returns every field of the client's hash.
func (r *RedisRepository) GetAll(ctx context.Context) (map[string]string, error) {
	m, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]string)
	}
	return m, nil
}

// PutAll writes all fields inside MULTI/EXEC.
func (r *RedisRepository) PutAll(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, values[k])
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, args...)
		return nil
	})
	return err
}

// Delete removes the given fields.
func (r *RedisRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.HDel(ctx, r.key, keys...).Err()
}
