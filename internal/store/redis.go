package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

// DefaultRedisKey is the hash holding id -> JSON spec.
const DefaultRedisKey = "ghari:reminders"

// RedisStore keeps specs in a single Redis hash.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "redis ping %s", addr)
	}
	return rdb, nil
}

// NewRedisStore wraps an existing client. An empty key uses DefaultRedisKey.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (r *RedisStore) List(ctx context.Context) ([]reminder.Spec, error) {
	raw, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis hgetall")
	}

	out := make([]reminder.Spec, 0, len(raw))
	for id, v := range raw {
		var s reminder.Spec
		if err := json.Unmarshal([]byte(v), &s); err != nil {
			return nil, errors.Wrapf(err, "decode reminder %s", id)
		}
		out = append(out, s)
	}
	sortSpecs(out)
	return out, nil
}

func (r *RedisStore) Save(ctx context.Context, spec reminder.Spec) error {
	b, err := json.Marshal(spec)
	if err != nil {
		return errors.Wrap(err, "encode reminder")
	}
	if err := r.rdb.HSet(ctx, r.key, spec.ID, b).Err(); err != nil {
		return errors.Wrap(err, "redis hset")
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.HDel(ctx, r.key, id).Err(); err != nil {
		return errors.Wrap(err, "redis hdel")
	}
	return nil
}
