package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
)

type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *User) error {
	key := strings.ToLower(user.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[key]; ok {
		return ErrEmailTaken
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	r.users[key] = *user
	return nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

type MemoryFlightRepository struct {
	mu      sync.RWMutex
	flights map[int64]domain.Flight
}

func NewMemoryFlightRepository() *MemoryFlightRepository {
	return &MemoryFlightRepository{flights: make(map[int64]domain.Flight)}
}

func (r *MemoryFlightRepository) List(_ context.Context) ([]domain.Flight, error) {
	r.mu.RLock()
	out := make([]domain.Flight, 0, len(r.flights))
	for _, f := range r.flights {
		out = append(out, f)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].DepartureTime().Before(out[j].DepartureTime())
	})
	return out, nil
}

func (r *MemoryFlightRepository) GetByID(_ context.Context, id int64) (*domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flights[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (r *MemoryFlightRepository) Upsert(_ context.Context, flights []domain.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range flights {
		r.flights[f.ID()] = f
	}
	return nil
}

type memoryBooking struct {
	userID  int64
	booking domain.Booking
}

type MemoryBookingRepository struct {
	mu       sync.RWMutex
	nextID   int64
	bookings map[int64]memoryBooking
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[int64]memoryBooking)}
}

func (r *MemoryBookingRepository) Create(_ context.Context, userID int64, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	booking.ID = r.nextID
	if booking.BookedAt.IsZero() {
		booking.BookedAt = time.Now().UTC()
	}
	r.bookings[booking.ID] = memoryBooking{userID: userID, booking: *booking}
	return nil
}

func (r *MemoryBookingRepository) ListByUser(_ context.Context, userID int64) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Booking, 0)
	for _, mb := range r.bookings {
		if mb.userID == userID {
			out = append(out, mb.booking)
		}
	}
	return domain.SortByBookedAt(out), nil
}

func (r *MemoryBookingRepository) GetByID(_ context.Context, userID, id int64) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mb, ok := r.bookings[id]
	if !ok || mb.userID != userID {
		return nil, ErrNotFound
	}
	return &mb.booking, nil
}

func (r *MemoryBookingRepository) UpdateStatus(_ context.Context, userID, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mb, ok := r.bookings[id]
	if !ok || mb.userID != userID {
		return nil, ErrNotFound
	}
	mb.booking.Status = status
	r.bookings[id] = mb
	return &mb.booking, nil
}

func (r *MemoryBookingRepository) Delete(_ context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mb, ok := r.bookings[id]
	if !ok || mb.userID != userID {
		return ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

var (
	_ UserRepository    = (*MemoryUserRepository)(nil)
	_ FlightRepository  = (*MemoryFlightRepository)(nil)
	_ BookingRepository = (*MemoryBookingRepository)(nil)
)
