package remote

import (
	"context"

	"github.com/Domenick1991/skyclient/internal/domain"
)

// API is the booking service as seen by the client core.
type API interface {
	SearchFlights(ctx context.Context, query domain.FlightQuery) ([]domain.Flight, error)
	SignIn(ctx context.Context, email, password string) (AuthResponse, error)
	Register(ctx context.Context, fullName, email, password string) (AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (bool, error)
	ListBookings(ctx context.Context, token string) ([]domain.Booking, error)
	CreateBooking(ctx context.Context, token string, req CreateBookingRequest) (domain.Booking, error)
	CancelBooking(ctx context.Context, token string, bookingID int64) (domain.Booking, error)
	DeleteBooking(ctx context.Context, token string, bookingID int64) error
}

// Routes served by the booking API.
const (
	PathSearchFlights = "/flights/search"
	PathSignIn        = "/auth/signin"
	PathRegister      = "/auth/register"
	PathValidateToken = "/auth/validate"
	PathBookings      = "/bookings"
)

// Query parameters of PathSearchFlights.
const (
	ParamDepartureCity = "departureCity"
	ParamArrivalCity   = "arrivalCity"
	ParamDepartureDate = "departureDate"
	ParamReturnDate    = "returnDate"
	ParamSeatClass     = "seatClass"
)

// DateLayout is the calendar date format used in query parameters.
const DateLayout = "2006-01-02"

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type ValidateResponse struct {
	Valid bool `json:"valid"`
}

type CreateBookingRequest struct {
	FlightID      int64            `json:"flightId"`
	PassengerName string           `json:"passengerName"`
	SeatClass     domain.SeatClass `json:"chosenClass"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
