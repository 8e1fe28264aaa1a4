package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingSelect = `SELECT b.id, b.seat_class, b.passenger_name, b.status, b.booking_nr, b.booked_at, ` + flightColumns + `
	FROM bookings b JOIN flights f ON f.id = b.flight_id`

func (r *PGBookingRepository) Create(ctx context.Context, userID int64, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id=$1)`, booking.Flight.ID()).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings (user_id, flight_id, seat_class, passenger_name, status, booking_nr, booked_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
		RETURNING id, booked_at`, userID, booking.Flight.ID(), booking.SeatClass, booking.PassengerName, booking.Status, booking.BookingNr, bookedAt(booking)).
		Scan(&booking.ID, &booking.BookedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, bookingSelect+` WHERE b.user_id=$1 ORDER BY b.booked_at, b.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Booking, error) {
	return notFound(scanBooking(r.db.QueryRow(ctx, bookingSelect+` WHERE b.user_id=$1 AND b.id=$2`, userID, id)))
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, userID, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE user_id=$2 AND id=$3`, status, userID, id)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, userID, id)
}

func (r *PGBookingRepository) Delete(ctx context.Context, userID, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE user_id=$1 AND id=$2`, userID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b domain.Booking
		c flightColumnValues
	)
	targets := append([]interface{}{&b.ID, &b.SeatClass, &b.PassengerName, &b.Status, &b.BookingNr, &b.BookedAt}, c.targets()...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	flight, err := c.parse()
	if err != nil {
		return nil, err
	}
	b.Flight = flight
	b.BookedAt = b.BookedAt.UTC()
	return &b, nil
}

func bookedAt(b *domain.Booking) *time.Time {
	if b.BookedAt.IsZero() {
		return nil
	}
	return &b.BookedAt
}

func notFound(b *domain.Booking, err error) (*domain.Booking, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
