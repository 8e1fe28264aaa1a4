package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/metrics"
	"github.com/Domenick1991/skyclient/internal/remote"
	"golang.org/x/sync/singleflight"
)

type BookingUseCase interface {
	List(ctx context.Context, token string) ([]domain.Booking, error)
	Create(ctx context.Context, token string, input CreateBookingInput) (domain.Booking, error)
	Cancel(ctx context.Context, booking domain.Booking, token string) (domain.Booking, error)
	Delete(ctx context.Context, booking domain.Booking, token string) error
	Bookings() []domain.Booking
	Get(id int64) (domain.Booking, bool)
}

// API is the part of the remote client bookings are synchronized with.
type API interface {
	ListBookings(ctx context.Context, token string) ([]domain.Booking, error)
	CreateBooking(ctx context.Context, token string, req remote.CreateBookingRequest) (domain.Booking, error)
	CancelBooking(ctx context.Context, token string, bookingID int64) (domain.Booking, error)
	DeleteBooking(ctx context.Context, token string, bookingID int64) error
}

// Confirmer asks the user to acknowledge an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

type CreateBookingInput struct {
	FlightID      int64
	PassengerName string
	SeatClass     domain.SeatClass
}

// BookingService keeps a local copy of the user's bookings in step with the
// server. The cache only changes after the server confirmed a call; a failed
// call leaves it as it was. Mutations of the same booking are serialized.
type BookingService struct {
	api       API
	confirmer Confirmer
	logger    logger.Logger
	now       func() time.Time

	mu    sync.RWMutex
	cache map[int64]domain.Booking

	locks *keyedMutex
	group singleflight.Group
}

var _ BookingUseCase = (*BookingService)(nil)

type BookingServiceOption func(*BookingService)

func WithConfirmer(c Confirmer) BookingServiceOption {
	return func(s *BookingService) {
		s.confirmer = c
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithLogger(l logger.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = l
	}
}

// NewBookingService builds the service. Without WithConfirmer every cancel
// and delete is refused with domain.ErrConfirmationRequired.
func NewBookingService(api API, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		api:    api,
		logger: logger.NewNoOpLogger(),
		now:    time.Now,
		cache:  make(map[int64]domain.Booking),
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// List fetches every booking and replaces the cache with the result.
// Concurrent calls for the same token share one request, which runs
// detached from any single caller; each caller still returns as soon as
// its own ctx is done.
func (s *BookingService) List(ctx context.Context, token string) ([]domain.Booking, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan("list:"+token, func() (interface{}, error) {
		bookings, err := s.api.ListBookings(shared, token)
		if err != nil {
			return nil, err
		}
		next := make(map[int64]domain.Booking, len(bookings))
		for _, b := range bookings {
			next[b.ID] = b
		}
		s.mu.Lock()
		s.cache = next
		s.mu.Unlock()
		metrics.CachedBookings.Set(float64(len(next)))
		return bookings, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		s.record("list", "abandoned")
		return nil, ctx.Err()
	}
	if res.Err != nil {
		s.record("list", "failed")
		s.logger.Warn("failed to list bookings", map[string]interface{}{"error": res.Err})
		return nil, res.Err
	}
	bookings := res.Val.([]domain.Booking)
	s.record("list", "ok")
	s.logger.Debug("bookings listed", map[string]interface{}{"count": len(bookings), "shared": res.Shared})
	return domain.SortByBookedAt(bookings), nil
}

func (s *BookingService) Create(ctx context.Context, token string, input CreateBookingInput) (domain.Booking, error) {
	created, err := s.api.CreateBooking(ctx, token, remote.CreateBookingRequest{
		FlightID:      input.FlightID,
		PassengerName: input.PassengerName,
		SeatClass:     input.SeatClass,
	})
	if err != nil {
		s.record("create", "failed")
		s.logger.Warn("failed to create booking", map[string]interface{}{"flight_id": input.FlightID, "error": err})
		return domain.Booking{}, err
	}

	s.mu.Lock()
	s.cache[created.ID] = created
	size := len(s.cache)
	s.mu.Unlock()
	metrics.CachedBookings.Set(float64(size))

	s.record("create", "ok")
	s.logger.Info("booking created", map[string]interface{}{"booking_id": created.ID, "booking_nr": created.BookingNr})
	return created, nil
}

// Cancel cancels an active booking whose flight has not departed, after the
// user confirmed it. On success the cached entry is replaced by the server's
// copy; the number of cached bookings does not change.
func (s *BookingService) Cancel(ctx context.Context, booking domain.Booking, token string) (domain.Booking, error) {
	unlock := s.locks.Lock(booking.ID)
	defer unlock()

	current := s.current(booking)
	if err := current.CanCancel(s.now()); err != nil {
		s.record("cancel", "rejected")
		return domain.Booking{}, err
	}
	prompt := fmt.Sprintf("Cancel booking %s for flight %s on %s?",
		current.BookingNr, current.Flight.FlightNr(), current.Flight.DepartureTime().Format("2006-01-02 15:04"))
	if err := s.confirm(ctx, "cancel", prompt); err != nil {
		return domain.Booking{}, err
	}

	updated, err := s.api.CancelBooking(ctx, token, current.ID)
	if err != nil {
		s.record("cancel", "failed")
		s.logger.Warn("failed to cancel booking", map[string]interface{}{"booking_id": current.ID, "error": err})
		return domain.Booking{}, err
	}
	if updated.ID != current.ID {
		s.record("cancel", "failed")
		return domain.Booking{}, fmt.Errorf("%w: cancelled booking %d but server returned %d", domain.ErrServer, current.ID, updated.ID)
	}

	s.mu.Lock()
	if _, ok := s.cache[updated.ID]; ok {
		s.cache[updated.ID] = updated
	}
	s.mu.Unlock()

	s.record("cancel", "ok")
	s.logger.Info("booking cancelled", map[string]interface{}{"booking_id": updated.ID, "status": string(updated.Status)})
	return updated, nil
}

// Delete removes a cancelled booking, after the user confirmed it. On
// success the entry is dropped from the cache.
func (s *BookingService) Delete(ctx context.Context, booking domain.Booking, token string) error {
	unlock := s.locks.Lock(booking.ID)
	defer unlock()

	current := s.current(booking)
	if err := current.CanDelete(); err != nil {
		s.record("delete", "rejected")
		return err
	}
	prompt := fmt.Sprintf("Permanently delete cancelled booking %s?", current.BookingNr)
	if err := s.confirm(ctx, "delete", prompt); err != nil {
		return err
	}

	if err := s.api.DeleteBooking(ctx, token, current.ID); err != nil {
		s.record("delete", "failed")
		s.logger.Warn("failed to delete booking", map[string]interface{}{"booking_id": current.ID, "error": err})
		return err
	}

	s.mu.Lock()
	delete(s.cache, current.ID)
	size := len(s.cache)
	s.mu.Unlock()
	metrics.CachedBookings.Set(float64(size))

	s.record("delete", "ok")
	s.logger.Info("booking deleted", map[string]interface{}{"booking_id": current.ID})
	return nil
}

// Bookings returns the cached bookings, oldest first.
func (s *BookingService) Bookings() []domain.Booking {
	s.mu.RLock()
	out := make([]domain.Booking, 0, len(s.cache))
	for _, b := range s.cache {
		out = append(out, b)
	}
	s.mu.RUnlock()
	return domain.SortByBookedAt(out)
}

func (s *BookingService) Get(id int64) (domain.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.cache[id]
	return b, ok
}

// current prefers the cached copy so a stale caller value cannot bypass a
// transition that already happened.
func (s *BookingService) current(b domain.Booking) domain.Booking {
	if cached, ok := s.Get(b.ID); ok {
		return cached
	}
	return b
}

func (s *BookingService) confirm(ctx context.Context, op, prompt string) error {
	if s.confirmer == nil {
		s.record(op, "unconfirmed")
		return fmt.Errorf("%w: no confirmation available for %s", domain.ErrConfirmationRequired, op)
	}
	ok, err := s.confirmer.Confirm(ctx, prompt)
	if err != nil {
		s.record(op, "unconfirmed")
		return fmt.Errorf("%w: %v", domain.ErrConfirmationRequired, err)
	}
	if !ok {
		s.record(op, "declined")
		return fmt.Errorf("%w: %s declined", domain.ErrConfirmationRequired, op)
	}
	return nil
}

func (s *BookingService) record(op, outcome string) {
	metrics.BookingMutations.WithLabelValues(op, outcome).Inc()
}
