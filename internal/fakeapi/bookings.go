package fakeapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/kafka"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/repository"
	"github.com/google/uuid"
)

const (
	seatLockTTL     = 30 * time.Second
	publishAttempts = 3
)

type BookingUseCase interface {
	List(ctx context.Context, account Account) ([]domain.Booking, error)
	Create(ctx context.Context, account Account, input CreateBookingInput) (domain.Booking, error)
	Cancel(ctx context.Context, account Account, id int64) (domain.Booking, error)
	Delete(ctx context.Context, account Account, id int64) error
}

type CreateBookingInput struct {
	FlightID      int64
	PassengerName string
	SeatClass     domain.SeatClass
}

// SeatLocker guards against two concurrent bookings of the same seat
// request. *cache.RedisCache satisfies it.
type SeatLocker interface {
	AcquireSeatLock(ctx context.Context, flightID int64, class domain.SeatClass, passenger string, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, flightID int64, class domain.SeatClass, passenger string) error
}

// Publisher delivers booking events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error
}

type BookingService struct {
	bookings repository.BookingRepository
	flights  repository.FlightRepository
	locker   SeatLocker
	events   Publisher
	topic    string
	logger   logger.Logger
	now      func() time.Time
}

var _ BookingUseCase = (*BookingService)(nil)

type BookingServiceOption func(*BookingService)

func WithSeatLocker(l SeatLocker) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = l
	}
}

func WithEvents(p Publisher, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.events = p
		s.topic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(bookings repository.BookingRepository, flights repository.FlightRepository, log logger.Logger, opts ...BookingServiceOption) *BookingService {
	s := &BookingService{
		bookings: bookings,
		flights:  flights,
		logger:   log.WithFields(map[string]interface{}{"component": "bookings"}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) List(ctx context.Context, account Account) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, account.UserID)
}

func (s *BookingService) Create(ctx context.Context, account Account, input CreateBookingInput) (domain.Booking, error) {
	passenger := strings.TrimSpace(input.PassengerName)
	var invalid []domain.FieldError
	if !input.SeatClass.Valid() {
		invalid = append(invalid, domain.FieldError{Field: "chosenClass", Message: fmt.Sprintf("unknown seat class %q", input.SeatClass)})
	}
	if passenger == "" {
		invalid = append(invalid, domain.FieldError{Field: "passengerName", Message: "is required"})
	}
	if len(invalid) > 0 {
		return domain.Booking{}, domain.NewValidationError(invalid...)
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return domain.Booking{}, err
	}
	if flight.HasDeparted(s.now()) {
		return domain.Booking{}, fmt.Errorf("%w: flight %s left at %s", domain.ErrFlightDeparted, flight.FlightNr(), flight.DepartureTime().Format(time.RFC3339))
	}

	if s.locker != nil {
		ok, err := s.locker.AcquireSeatLock(ctx, flight.ID(), input.SeatClass, passenger, seatLockTTL)
		if err != nil {
			return domain.Booking{}, fmt.Errorf("acquire seat lock: %w", err)
		}
		if !ok {
			return domain.Booking{}, ErrSeatLocked
		}
		defer func() {
			if err := s.locker.ReleaseSeatLock(context.WithoutCancel(ctx), flight.ID(), input.SeatClass, passenger); err != nil {
				s.logger.Warn("failed to release seat lock", map[string]interface{}{"flight_id": flight.ID(), "error": err})
			}
		}()
	}

	booking := domain.Booking{
		Flight:        *flight,
		SeatClass:     input.SeatClass,
		PassengerName: passenger,
		Status:        domain.BookingStatusActive,
		BookingNr:     newBookingNr(),
		BookedAt:      s.now().UTC(),
	}
	if err := s.bookings.Create(ctx, account.UserID, &booking); err != nil {
		return domain.Booking{}, err
	}

	s.logger.Info("booking created", map[string]interface{}{"user_id": account.UserID, "booking_id": booking.ID, "flight_id": flight.ID()})
	s.publish(ctx, kafka.BookingCreated, booking, account)
	return booking, nil
}

func (s *BookingService) Cancel(ctx context.Context, account Account, id int64) (domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, account.UserID, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := current.CanCancel(s.now()); err != nil {
		return domain.Booking{}, err
	}

	updated, err := s.bookings.UpdateStatus(ctx, account.UserID, id, domain.BookingStatusCancelled)
	if err != nil {
		return domain.Booking{}, err
	}
	s.logger.Info("booking cancelled", map[string]interface{}{"user_id": account.UserID, "booking_id": id})
	s.publish(ctx, kafka.BookingCancelled, *updated, account)
	return *updated, nil
}

func (s *BookingService) Delete(ctx context.Context, account Account, id int64) error {
	current, err := s.bookings.GetByID(ctx, account.UserID, id)
	if err != nil {
		return err
	}
	if err := current.CanDelete(); err != nil {
		return err
	}
	if err := s.bookings.Delete(ctx, account.UserID, id); err != nil {
		return err
	}
	s.logger.Info("booking deleted", map[string]interface{}{"user_id": account.UserID, "booking_id": id})
	s.publish(ctx, kafka.BookingDeleted, *current, account)
	return nil
}

// publish failures are logged; the booking change already happened.
func (s *BookingService) publish(ctx context.Context, typ kafka.BookingEventType, b domain.Booking, account Account) {
	if s.events == nil {
		return
	}
	event := kafka.NewBookingEvent(typ, b, account.Email, s.now())
	if err := s.events.PublishWithRetry(ctx, s.topic, b.BookingNr, event, publishAttempts); err != nil {
		s.logger.Error("failed to publish booking event", map[string]interface{}{"type": string(typ), "booking_id": b.ID, "error": err})
	}
}

func newBookingNr() string {
	return "BR-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
