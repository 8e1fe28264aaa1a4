package fakeapi

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/repository"
)

type FlightUseCase interface {
	Search(ctx context.Context, query domain.FlightQuery) ([]domain.Flight, error)
}

type CatalogService struct {
	flights repository.FlightRepository
}

var _ FlightUseCase = (*CatalogService)(nil)

func NewCatalogService(flights repository.FlightRepository) *CatalogService {
	return &CatalogService{flights: flights}
}

// Search returns the flights between the two cities on the departure day
// and, for round trips, the flights back on the return day. Cities match
// case-insensitively; days are UTC calendar days.
func (s *CatalogService) Search(ctx context.Context, query domain.FlightQuery) ([]domain.Flight, error) {
	all, err := s.flights.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Flight, 0)
	for _, f := range all {
		if connects(f, query.DepartureCity, query.DestinationCity, query.DepartureDate) {
			out = append(out, f)
			continue
		}
		if query.ReturnDate != nil && connects(f, query.DestinationCity, query.DepartureCity, *query.ReturnDate) {
			out = append(out, f)
		}
	}
	return out, nil
}

func connects(f domain.Flight, from, to string, day time.Time) bool {
	return strings.EqualFold(f.DepartureAirport().City, from) &&
		strings.EqualFold(f.ArrivalAirport().City, to) &&
		sameDay(f.DepartureTime(), day)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
