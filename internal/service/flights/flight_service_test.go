package flights

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/skyclient/internal/cache"
	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/remote"
	"github.com/Domenick1991/skyclient/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) SearchFlights(ctx context.Context, query domain.FlightQuery) ([]domain.Flight, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context, queryKey string) ([]domain.Flight, error) {
	args := m.Called(ctx, queryKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, queryKey string, flights []domain.Flight) error {
	args := m.Called(ctx, queryKey, flights)
	return args.Error(0)
}

var query = domain.FlightQuery{
	DepartureCity:   "amsterdam",
	DestinationCity: "singapore",
	DepartureDate:   time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
	SeatClass:       domain.SeatClassEconomy,
}

func TestFlightService_Search_CacheMissThenHit(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	api := &MockSearcher{}
	service := NewFlightService(api, redisCache, logger.NewTestLogger(t))
	ctx := context.Background()

	late := testutil.Flight(t, 2, time.Date(2026, 11, 2, 18, 0, 0, 0, time.UTC))
	early := testutil.Flight(t, 1, time.Date(2026, 11, 2, 7, 0, 0, 0, time.UTC))
	api.On("SearchFlights", mock.Anything, query).Return([]domain.Flight{late, early}, nil).Once()

	first, err := service.Search(ctx, query)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(1), first[0].ID())
	assert.Equal(t, int64(2), first[1].ID())

	second, err := service.Search(ctx, query)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, int64(1), second[0].ID())

	api.AssertNumberOfCalls(t, "SearchFlights", 1)
	assert.True(t, mr.Exists("cache:flights:"+query.Key()))
}

func TestFlightService_Search_CacheErrorsAreNotFatal(t *testing.T) {
	api := &MockSearcher{}
	flightCache := &MockCache{}
	service := NewFlightService(api, flightCache, logger.NewNoOpLogger())

	flights := []domain.Flight{testutil.Flight(t, 1, time.Date(2026, 11, 2, 7, 0, 0, 0, time.UTC))}
	flightCache.On("GetFlights", mock.Anything, query.Key()).Return(nil, errors.New("redis down"))
	flightCache.On("SetFlights", mock.Anything, query.Key(), flights).Return(errors.New("redis down"))
	api.On("SearchFlights", mock.Anything, query).Return(flights, nil)

	got, err := service.Search(context.Background(), query)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	flightCache.AssertExpectations(t)
}

func TestFlightService_Search_NoCache(t *testing.T) {
	api := &MockSearcher{}
	service := NewFlightService(api, nil, logger.NewNoOpLogger())
	api.On("SearchFlights", mock.Anything, query).Return([]domain.Flight{}, nil).Twice()

	for i := 0; i < 2; i++ {
		got, err := service.Search(context.Background(), query)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	api.AssertExpectations(t)
}

func TestFlightService_Search_APIError(t *testing.T) {
	api := &MockSearcher{}
	flightCache := &MockCache{}
	service := NewFlightService(api, flightCache, logger.NewNoOpLogger())

	flightCache.On("GetFlights", mock.Anything, query.Key()).Return(nil, nil)
	api.On("SearchFlights", mock.Anything, query).Return(nil, &remote.Error{Kind: remote.KindServer, Status: 503})

	_, err := service.Search(context.Background(), query)
	assert.ErrorIs(t, err, domain.ErrServer)
	flightCache.AssertNotCalled(t, "SetFlights", mock.Anything, mock.Anything, mock.Anything)
}

func TestFlightService_Search_OutlivesCancelledCaller(t *testing.T) {
	api := &MockSearcher{}
	service := NewFlightService(api, nil, logger.NewTestLogger(t))
	flights := []domain.Flight{testutil.Flight(t, 1, time.Date(2026, 11, 2, 7, 0, 0, 0, time.UTC))}

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	calls := make(chan context.Context, 2)
	api.On("SearchFlights", mock.Anything, query).
		Run(func(args mock.Arguments) {
			calls <- args.Get(0).(context.Context)
			once.Do(func() { close(entered) })
			<-release
		}).
		Return(flights, nil)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := service.Search(first, query)
		firstErr <- err
	}()
	<-entered
	callCtx := <-calls

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.NoError(t, callCtx.Err())

	type result struct {
		flights []domain.Flight
		err     error
	}
	second := make(chan result, 1)
	go func() {
		got, err := service.Search(context.Background(), query)
		second <- result{got, err}
	}()
	close(release)

	got := <-second
	require.NoError(t, got.err)
	require.Len(t, got.flights, 1)
}
