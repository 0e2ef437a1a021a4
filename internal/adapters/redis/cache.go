package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/adapters/observability"
)

// Cache is the JSON-over-Redis view cache for directory reads. Keys are
// namespaced under "hauls:" so the instance can be shared with other services.
type Cache struct {
	c  *redis.Client
	ns string
}

func New(addr, pass string, db int) *Cache {
	return &Cache{
		c:  redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		ns: "hauls:",
	}
}

func (r *Cache) key(k string) string { return r.ns + k }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache("redis", "hit")
	return true, json.Unmarshal(v, dst)
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, r.key(key), b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, r.key(key)).Err()
}
