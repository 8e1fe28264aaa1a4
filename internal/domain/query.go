package domain

import (
	"fmt"
	"strings"
	"time"
)

// FlightQuery is a validated search request. ReturnDate is nil on one-way trips.
type FlightQuery struct {
	DepartureCity   string     `json:"departureCity"`
	DestinationCity string     `json:"destinationCity"`
	DepartureDate   time.Time  `json:"departureDate"`
	ReturnDate      *time.Time `json:"returnDate,omitempty"`
	SeatClass       SeatClass  `json:"seatClass"`
}

func (q FlightQuery) IsRoundTrip() bool { return q.ReturnDate != nil }

// Key identifies the query for caching; dates are reduced to calendar days.
func (q FlightQuery) Key() string {
	ret := "-"
	if q.ReturnDate != nil {
		ret = q.ReturnDate.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		strings.ToLower(q.DepartureCity),
		strings.ToLower(q.DestinationCity),
		q.DepartureDate.Format(time.DateOnly),
		ret,
		q.SeatClass,
	)
}
