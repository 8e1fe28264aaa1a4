package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_Flights(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	key := "amsterdam|singapore|2026-11-02|-|economy"

	got, err := c.GetFlights(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	flight := testutil.Flight(t, 1, time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, c.SetFlights(ctx, key, []domain.Flight{flight}))
	assert.Equal(t, time.Minute, mr.TTL("cache:flights:"+key))

	got, err = c.GetFlights(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(flight))
	assert.Equal(t, flight.TotalDuration(), got[0].TotalDuration())

	mr.FastForward(2 * time.Minute)
	got, err = c.GetFlights(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_TamperedEntry(t *testing.T) {
	c, mr := newCache(t)
	require.NoError(t, mr.Set("cache:flights:k", `[{"id":1,"legs":[]}]`))

	_, err := c.GetFlights(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, mr.Exists("cache:flights:k"), "tampered entry is dropped")

	got, err := c.GetFlights(context.Background(), "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_InvalidateFlights(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	flight := testutil.Flight(t, 1, time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC))

	require.NoError(t, c.SetFlights(ctx, "a", []domain.Flight{flight}))
	require.NoError(t, c.SetFlights(ctx, "b", []domain.Flight{flight}))
	require.NoError(t, c.InvalidateFlights(ctx, "a"))

	assert.False(t, mr.Exists("cache:flights:a"))
	assert.True(t, mr.Exists("cache:flights:b"))
	require.NoError(t, c.InvalidateFlights(ctx, "missing"))
}

func TestRedisCache_SeatLock(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	ok, err := c.AcquireSeatLock(ctx, 1, domain.SeatClassBusiness, "Jane Traveler", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireSeatLock(ctx, 1, domain.SeatClassBusiness, "Jane Traveler", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseSeatLock(ctx, 1, domain.SeatClassBusiness, "Jane Traveler"))
	ok, err = c.AcquireSeatLock(ctx, 1, domain.SeatClassBusiness, "Jane Traveler", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
