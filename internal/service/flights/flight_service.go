package flights

import (
	"context"
	"sort"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/metrics"
	"golang.org/x/sync/singleflight"
)

type FlightUseCase interface {
	Search(ctx context.Context, query domain.FlightQuery) ([]domain.Flight, error)
}

type Searcher interface {
	SearchFlights(ctx context.Context, query domain.FlightQuery) ([]domain.Flight, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context, queryKey string) ([]domain.Flight, error)
	SetFlights(ctx context.Context, queryKey string, flights []domain.Flight) error
}

type FlightService struct {
	api    Searcher
	cache  FlightCache
	logger logger.Logger
	group  singleflight.Group
}

// NewFlightService builds the search service. cache may be nil.
func NewFlightService(api Searcher, cache FlightCache, log logger.Logger) *FlightService {
	return &FlightService{api: api, cache: cache, logger: log}
}

// Search returns the flights for query, earliest departure first. Results
// are cached per query; cache failures only cost a round trip. Identical
// searches in flight share one request that outlives a cancelled caller.
func (s *FlightService) Search(ctx context.Context, query domain.FlightQuery) ([]domain.Flight, error) {
	key := query.Key()

	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx, key)
		switch {
		case err != nil:
			metrics.FlightSearchCache.WithLabelValues("error").Inc()
			s.logger.Warn("flight cache read failed", map[string]interface{}{"key": key, "error": err})
		case cached != nil:
			metrics.FlightSearchCache.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.FlightSearchCache.WithLabelValues("miss").Inc()
		}
	}

	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		flights, err := s.api.SearchFlights(shared, query)
		if err != nil {
			return nil, err
		}
		sorted := make([]domain.Flight, len(flights))
		copy(sorted, flights)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].DepartureTime().Before(sorted[j].DepartureTime())
		})

		if s.cache != nil {
			if err := s.cache.SetFlights(shared, key, sorted); err != nil {
				s.logger.Warn("flight cache write failed", map[string]interface{}{"key": key, "error": err})
			}
		}
		return sorted, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Flight), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ FlightUseCase = (*FlightService)(nil)
