package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"hystore/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL = 15 * time.Minute
	// generation counters outlive any listing written under them
	versionTTL = 24 * time.Hour
)

// setIfVersionScript writes the listing only while the generation counter
// still holds the value the reader started from. A missing counter is 0.
var setIfVersionScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if current == false then current = '0' end
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: defaultTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Version(ctx context.Context, customerID string) (int64, error) {
	v, err := r.client.Get(ctx, versionKey(customerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return v, nil
}

func (r *RedisCache) Get(ctx context.Context, customerID string) ([]models.CartLineView, error) {
	data, err := r.client.Get(ctx, cacheKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var lines []models.CartLineView
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return lines, nil
}

func (r *RedisCache) Set(ctx context.Context, customerID string, version int64, lines []models.CartLineView) error {
	if lines == nil {
		lines = []models.CartLineView{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// jitter spreads expiry of carts cached at the same moment
	ttl := r.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	stored, err := setIfVersionScript.Run(ctx, r.client,
		[]string{cacheKey(customerID), versionKey(customerID)},
		strconv.FormatInt(version, 10), data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if stored == 0 {
		return ErrStaleVersion
	}
	return nil
}

// Delete drops the cached listing and advances the customer's generation.
func (r *RedisCache) Delete(ctx context.Context, customerID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(customerID))
		pipe.Expire(ctx, versionKey(customerID), versionTTL)
		pipe.Del(ctx, cacheKey(customerID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(customerID string) string {
	return fmt.Sprintf("cart:%s", customerID)
}

func versionKey(customerID string) string {
	return fmt.Sprintf("cart:version:%s", customerID)
}
