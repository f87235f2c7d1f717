package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
	now       func() time.Time
}

func NewRedisCache(cfg config.RedisConfig, searchTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), searchTTL)
}

func NewRedisCacheWithClient(client *redis.Client, searchTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, searchTTL: searchTTL, now: time.Now}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetSearch returns nil, nil on a miss.
func (c *RedisCache) GetSearch(ctx context.Context, q domain.FlightSearch) (*domain.FlightPage, error) {
	key, err := c.searchKey(ctx, q)
	if err != nil {
		return nil, err
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var page domain.FlightPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *RedisCache) SetSearch(ctx context.Context, q domain.FlightSearch, page *domain.FlightPage) error {
	key, err := c.searchKey(ctx, q)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.searchTTL).Err()
}

// InvalidateSearch bumps the catalog version so every cached page goes stale
// at once. Old keys expire on their own TTL.
func (c *RedisCache) InvalidateSearch(ctx context.Context) error {
	return c.client.Incr(ctx, catalogVersionKey()).Err()
}

func (c *RedisCache) searchKey(ctx context.Context, q domain.FlightSearch) (string, error) {
	version, err := c.client.Get(ctx, catalogVersionKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	date := ""
	if q.DepartureDate != nil {
		date = q.DepartureDate.Format(time.DateOnly)
	}
	parts := []string{
		strings.ToLower(q.Source), strings.ToLower(q.Destination), date, string(q.SortBy),
		strconv.Itoa(q.Page), strconv.Itoa(q.Limit),
	}
	return fmt.Sprintf("cache:flights:v%d:%s", version, strings.Join(parts, "|")), nil
}

// Allow counts one hit against a fixed window for key. It reports whether the
// hit is within limit, how many hits remain and when the window resets.
func (c *RedisCache) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Duration, error) {
	now := c.now()
	windowStart := now.Truncate(window)
	redisKey := rateLimitKey(key, windowStart)

	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return true, limit, 0, err
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	reset := windowStart.Add(window).Sub(now)
	return count <= limit, remaining, reset, nil
}

func catalogVersionKey() string {
	return "cache:flights:version"
}

func rateLimitKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Unix())
}
