package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Legs are stored as the JSON array of domain.RawLeg and go through
// domain.ParseFlight on every read.
type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `f.id, f.flight_nr, f.airline, f.price, f.legs`

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights f ORDER BY f.departure_time, f.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights f WHERE f.id=$1`, id)
	f, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) Upsert(ctx context.Context, flights []domain.Flight) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, f := range flights {
		legs, err := json.Marshal(f.Raw().Legs)
		if err != nil {
			return fmt.Errorf("encode legs of flight %d: %w", f.ID(), err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO flights (id, flight_nr, airline, price, departure_time, legs)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET flight_nr = EXCLUDED.flight_nr, airline = EXCLUDED.airline,
				price = EXCLUDED.price, departure_time = EXCLUDED.departure_time, legs = EXCLUDED.legs, updated_at = now()`,
			f.ID(), f.FlightNr(), f.Airline(), f.Price(), f.DepartureTime(), legs); err != nil {
			return fmt.Errorf("upsert flight %d: %w", f.ID(), err)
		}
	}
	return tx.Commit(ctx)
}

func scanFlight(row pgx.Row) (domain.Flight, error) {
	var c flightColumnValues
	if err := row.Scan(c.targets()...); err != nil {
		return domain.Flight{}, err
	}
	return c.parse()
}

type flightColumnValues struct {
	raw  domain.RawFlight
	legs []byte
}

func (c *flightColumnValues) targets() []interface{} {
	return []interface{}{&c.raw.ID, &c.raw.FlightNr, &c.raw.Airline, &c.raw.Price, &c.legs}
}

func (c *flightColumnValues) parse() (domain.Flight, error) {
	if err := json.Unmarshal(c.legs, &c.raw.Legs); err != nil {
		return domain.Flight{}, fmt.Errorf("decode legs of flight %d: %w", c.raw.ID, err)
	}
	return domain.ParseFlight(c.raw)
}

var _ FlightRepository = (*PGFlightRepository)(nil)
