package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/skyclient/config"
	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, flightsTTL: flightsTTL}
}

// GetFlights returns nil, nil on a miss. Entries are re-validated when
// decoded; a tampered entry is dropped and reported as an error.
func (c *RedisCache) GetFlights(ctx context.Context, queryKey string) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey(queryKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		err = fmt.Errorf("decode cached flights: %w", err)
		if derr := c.InvalidateFlights(ctx, queryKey); derr != nil {
			return nil, errors.Join(err, derr)
		}
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, queryKey string, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(queryKey), payload, c.flightsTTL).Err()
}

// InvalidateFlights drops the cached result of one query.
func (c *RedisCache) InvalidateFlights(ctx context.Context, queryKey string) error {
	return c.client.Del(ctx, flightsKey(queryKey)).Err()
}

// AcquireSeatLock holds a seat class on a flight for one passenger while a
// booking is being written.
func (c *RedisCache) AcquireSeatLock(ctx context.Context, flightID int64, class domain.SeatClass, passenger string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatLockKey(flightID, class, passenger), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSeatLock(ctx context.Context, flightID int64, class domain.SeatClass, passenger string) error {
	return c.client.Del(ctx, seatLockKey(flightID, class, passenger)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func flightsKey(queryKey string) string {
	return "cache:flights:" + queryKey
}

func seatLockKey(flightID int64, class domain.SeatClass, passenger string) string {
	return fmt.Sprintf("lock:flight:%d:%s:%s", flightID, class, passenger)
}
