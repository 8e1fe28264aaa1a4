// Package testutil provides shared fixtures for tests across packages.
package testutil

import (
	"testing"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
)

var (
	Amsterdam = domain.Airport{City: "Amsterdam", ShortName: "AMS", LongName: "Amsterdam Schiphol"}
	Dubai     = domain.Airport{City: "Dubai", ShortName: "DXB", LongName: "Dubai International"}
	Singapore = domain.Airport{City: "Singapore", ShortName: "SIN", LongName: "Singapore Changi"}
)

// RawFlight is AMS -> DXB -> SIN leaving at departure, 6h + 1h layover + 7h.
func RawFlight(id int64, departure time.Time) domain.RawFlight {
	ams, dxb, sin := Amsterdam, Dubai, Singapore
	dep := departure.UTC()
	return domain.RawFlight{
		ID:       id,
		FlightNr: "EK-148",
		Airline:  "Emirates",
		Price:    899,
		Legs: []domain.RawLeg{
			{
				DepartureAirport: &ams,
				ArrivalAirport:   &dxb,
				DepartureTime:    dep.Format(time.RFC3339),
				ArrivalTime:      dep.Add(6 * time.Hour).Format(time.RFC3339),
			},
			{
				DepartureAirport: &dxb,
				ArrivalAirport:   &sin,
				DepartureTime:    dep.Add(7 * time.Hour).Format(time.RFC3339),
				ArrivalTime:      dep.Add(14 * time.Hour).Format(time.RFC3339),
			},
		},
	}
}

func Flight(t testing.TB, id int64, departure time.Time) domain.Flight {
	t.Helper()
	f, err := domain.ParseFlight(RawFlight(id, departure))
	if err != nil {
		t.Fatalf("testutil.Flight: %v", err)
	}
	return f
}

func Booking(t testing.TB, id int64, status domain.BookingStatus, departure, bookedAt time.Time) domain.Booking {
	t.Helper()
	return domain.Booking{
		ID:            id,
		Flight:        Flight(t, 100+id, departure),
		SeatClass:     domain.SeatClassEconomy,
		PassengerName: "Jane Traveler",
		Status:        status,
		BookingNr:     "BR-" + time.Unix(id, 0).UTC().Format("150405"),
		BookedAt:      bookedAt.UTC(),
	}
}
