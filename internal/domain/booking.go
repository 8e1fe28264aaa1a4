package domain

import (
	"fmt"
	"sort"
	"time"
)

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type SeatClass string

const (
	SeatClassEconomy  SeatClass = "economy"
	SeatClassBusiness SeatClass = "business"
)

func (c SeatClass) Valid() bool {
	return c == SeatClassEconomy || c == SeatClassBusiness
}

type Booking struct {
	ID            int64         `json:"id"`
	Flight        Flight        `json:"flight"`
	SeatClass     SeatClass     `json:"chosenClass"`
	PassengerName string        `json:"passengerName"`
	Status        BookingStatus `json:"status"`
	BookingNr     string        `json:"bookingNr"`
	BookedAt      time.Time     `json:"bookedAt"`
}

// CanCancel returns nil when b is active and its flight has not left yet.
func (b Booking) CanCancel(now time.Time) error {
	if b.Status != BookingStatusActive {
		return fmt.Errorf("%w: booking %d is %s, only active bookings can be cancelled", ErrInvalidTransition, b.ID, b.Status)
	}
	if b.Flight.IsZero() {
		return fmt.Errorf("%w: booking %d has no flight", ErrInvalidTransition, b.ID)
	}
	if b.Flight.HasDeparted(now) {
		return fmt.Errorf("%w: flight %s left at %s", ErrFlightDeparted, b.Flight.FlightNr(), b.Flight.DepartureTime().Format(time.RFC3339))
	}
	return nil
}

// CanDelete returns nil when b has been cancelled.
func (b Booking) CanDelete() error {
	if b.Status != BookingStatusCancelled {
		return fmt.Errorf("%w: booking %d is %s, only cancelled bookings can be deleted", ErrInvalidTransition, b.ID, b.Status)
	}
	return nil
}

// Validate checks the fields a server response must carry.
func (b Booking) Validate() error {
	verr := &ValidationError{}
	if b.ID <= 0 {
		verr.add("id", "must be a positive identifier", nil)
	}
	if b.Flight.IsZero() {
		verr.add("flight", "is required", nil)
	}
	if !b.SeatClass.Valid() {
		verr.add("chosenClass", fmt.Sprintf("unknown seat class %q", b.SeatClass), nil)
	}
	if b.Status != BookingStatusActive && b.Status != BookingStatusCancelled {
		verr.add("status", fmt.Sprintf("unknown status %q", b.Status), nil)
	}
	if b.PassengerName == "" {
		verr.add("passengerName", "is required", nil)
	}
	return verr.orNil()
}

// SortByBookedAt returns a copy of bookings ordered by creation time, oldest first.
func SortByBookedAt(bookings []Booking) []Booking {
	out := make([]Booking, len(bookings))
	copy(out, bookings)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BookedAt.Equal(out[j].BookedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].BookedAt.Before(out[j].BookedAt)
	})
	return out
}
