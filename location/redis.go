package location

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "aprsnoop:geo:"

// OpenRedis returns a client for addr, or nil when addr is empty.
func OpenRedis(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

// RedisGeocoder shares resolved places between processes. Successful results
// of the wrapped geocoder are stored for ttl; errors are passed through and
// never stored. Redis being unreachable only costs the shared tier.
type RedisGeocoder struct {
	rdb  *redis.Client
	next Geocoder
	ttl  time.Duration
}

// NewRedisGeocoder wraps next with a Redis tier.
func NewRedisGeocoder(rdb *redis.Client, next Geocoder, ttl time.Duration) *RedisGeocoder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGeocoder{rdb: rdb, next: next, ttl: ttl}
}

func redisKey(lat, lon float64) string {
	return redisKeyPrefix + strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

func (r *RedisGeocoder) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	key := redisKey(lat, lon)

	data, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p Place
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		log.Printf("Warning: dropping unreadable cached place %s", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("Warning: redis get %s: %v", key, err)
	}

	p, err := r.next.Reverse(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
			log.Printf("Warning: redis set %s: %v", key, err)
		}
	}
	return p, nil
}
