package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LocationCache holds the latest driver position and computed ETA per trip
// with a TTL. It is injected rather than process-global so multiple server
// instances can share one cache and tests can supply their own.
type LocationCache interface {
	SetTripLocation(ctx context.Context, tripID uint, lat, lng float64) error
	SetTripETA(ctx context.Context, tripID uint, est *Estimate) error
	// GetTripETA returns (nil, nil) when no ETA is cached.
	GetTripETA(ctx context.Context, tripID uint) (*Estimate, error)
	ClearTripETA(ctx context.Context, tripID uint) error
}

// RedisCache is the production LocationCache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis using a redis:// URL and verifies the
// connection.
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opt)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) SetTripLocation(ctx context.Context, tripID uint, lat, lng float64) error {
	locationData := map[string]interface{}{
		"lat":     lat,
		"lng":     lng,
		"updated": time.Now().Unix(),
	}

	data, err := json.Marshal(locationData)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("trip:location:%d", tripID)
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) SetTripETA(ctx context.Context, tripID uint, est *Estimate) error {
	data, err := json.Marshal(est)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("trip:eta:%d", tripID)
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) GetTripETA(ctx context.Context, tripID uint) (*Estimate, error) {
	key := fmt.Sprintf("trip:eta:%d", tripID)
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var est Estimate
	if err := json.Unmarshal([]byte(data), &est); err != nil {
		return nil, err
	}
	return &est, nil
}

func (c *RedisCache) ClearTripETA(ctx context.Context, tripID uint) error {
	key := fmt.Sprintf("trip:eta:%d", tripID)
	return c.client.Del(ctx, key).Err()
}
