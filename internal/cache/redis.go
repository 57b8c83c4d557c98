package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/config"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
	}
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey()).Err()
}

// AcquireSweepLock elects a single sweep owner across worker
// processes. The TTL guards against a crashed owner wedging the sweep.
func (c *RedisCache) AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, sweepLockKey(), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSweepLock(ctx context.Context) error {
	return c.client.Del(ctx, sweepLockKey()).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func sweepLockKey() string {
	return "lock:holds:sweep"
}
