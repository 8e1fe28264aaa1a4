package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Upsert(ctx context.Context, flights []domain.Flight) error
}

// BookingRepository scopes every lookup to the owning user; a booking of
// another user is reported as ErrNotFound.
type BookingRepository interface {
	Create(ctx context.Context, userID int64, booking *domain.Booking) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	GetByID(ctx context.Context, userID, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, userID, id int64, status domain.BookingStatus) (*domain.Booking, error)
	Delete(ctx context.Context, userID, id int64) error
}
