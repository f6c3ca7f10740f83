package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCarNotFound signals the referenced car does not exist.
	ErrCarNotFound = errors.New("reservation: car not found")
	// ErrDuplicateDate signals the day is already listed for the car.
	ErrDuplicateDate = errors.New("reservation: date already listed")
	// ErrDateNotListed signals the day is not in the car's availability list.
	ErrDateNotListed = errors.New("reservation: date not listed")
	// ErrDateUnavailable signals the day is not open for booking.
	ErrDateUnavailable = errors.New("reservation: date not available")
	// ErrNotFound signals the reservation does not exist.
	ErrNotFound = errors.New("reservation: not found")
)

// Repository handles data access for the availability ledger. Methods taking
// a pgx.Tx run inside the service's transaction.
type Repository interface {
	CarExists(ctx context.Context, carID string) (bool, error)
	AddAvailableDate(ctx context.Context, carID, day string) error
	RemoveAvailableDate(ctx context.Context, carID, day string) error
	AvailableDates(ctx context.Context, carID string) ([]string, error)
	TakeAvailableDate(ctx context.Context, tx pgx.Tx, carID, day string) error
	InsertReservation(ctx context.Context, tx pgx.Tx, res Reservation) error
	DeleteReservation(ctx context.Context, tx pgx.Tx, reservationID string) (carID, day string, err error)
	RestoreAvailableDate(ctx context.Context, tx pgx.Tx, carID, day string) error
	HasActiveReservation(ctx context.Context, userID, sinceDay string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]Detail, error)
	ListAll(ctx context.Context) ([]Detail, error)
	PurgeCar(ctx context.Context, tx pgx.Tx, carID string) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed ledger repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CarExists reports whether the car row is present.
func (r *PGRepository) CarExists(ctx context.Context, carID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cars WHERE id = $1)`, carID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("reservation: check car: %w", err)
	}
	return exists, nil
}

// AddAvailableDate lists a day for the car. The composite primary key rejects
// duplicates; the foreign key rejects unknown cars.
func (r *PGRepository) AddAvailableDate(ctx context.Context, carID, day string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO car_available_dates (car_id, day) VALUES ($1, $2)`, carID, day)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrDuplicateDate
			case "23503":
				return ErrCarNotFound
			}
		}
		return fmt.Errorf("reservation: add date: %w", err)
	}
	return nil
}

// RemoveAvailableDate withdraws a listed day.
func (r *PGRepository) RemoveAvailableDate(ctx context.Context, carID, day string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM car_available_dates WHERE car_id = $1 AND day = $2`, carID, day)
	if err != nil {
		return fmt.Errorf("reservation: remove date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDateNotListed
	}
	return nil
}

// AvailableDates returns the car's listed days in ascending order.
func (r *PGRepository) AvailableDates(ctx context.Context, carID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT day FROM car_available_dates WHERE car_id = $1 ORDER BY day ASC`, carID)
	if err != nil {
		return nil, fmt.Errorf("reservation: list dates: %w", err)
	}
	defer rows.Close()

	days := make([]string, 0)
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("reservation: scan date: %w", err)
		}
		days = append(days, day.Format(DayFormat))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reservation: iterate dates: %w", err)
	}

	return days, nil
}

// TakeAvailableDate consumes a listed day inside the booking transaction.
// Zero rows affected means the day was never listed, or a concurrent booking
// got there first; either way it is not available.
func (r *PGRepository) TakeAvailableDate(ctx context.Context, tx pgx.Tx, carID, day string) error {
	tag, err := tx.Exec(ctx,
		`DELETE FROM car_available_dates WHERE car_id = $1 AND day = $2`, carID, day)
	if err != nil {
		return fmt.Errorf("reservation: take date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDateUnavailable
	}
	return nil
}

// InsertReservation writes the booking row. The unique (car_id, day)
// constraint is the at-most-one-reservation-per-day invariant.
func (r *PGRepository) InsertReservation(ctx context.Context, tx pgx.Tx, res Reservation) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO reservations (id, car_id, user_id, day, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		res.ID, res.CarID, res.UserID, res.Day, res.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDateUnavailable
		}
		return fmt.Errorf("reservation: insert: %w", err)
	}
	return nil
}

// DeleteReservation removes the booking row and reports which car and day it
// held.
func (r *PGRepository) DeleteReservation(ctx context.Context, tx pgx.Tx, reservationID string) (string, string, error) {
	var (
		carID string
		day   time.Time
	)
	err := tx.QueryRow(ctx,
		`DELETE FROM reservations WHERE id = $1 RETURNING car_id, day`, reservationID).
		Scan(&carID, &day)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", fmt.Errorf("reservation: delete: %w", err)
	}
	return carID, day.Format(DayFormat), nil
}

// RestoreAvailableDate relists a freed day. A no-op when the day is already
// listed or the car has since been deleted.
func (r *PGRepository) RestoreAvailableDate(ctx context.Context, tx pgx.Tx, carID, day string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO car_available_dates (car_id, day)
		SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM cars WHERE id = $1)
		ON CONFLICT DO NOTHING`,
		carID, day)
	if err != nil {
		return fmt.Errorf("reservation: restore date: %w", err)
	}
	return nil
}

// HasActiveReservation reports whether the user holds any reservation dated
// sinceDay or later.
func (r *PGRepository) HasActiveReservation(ctx context.Context, userID, sinceDay string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reservations WHERE user_id = $1 AND day >= $2)`,
		userID, sinceDay).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("reservation: check active: %w", err)
	}
	return exists, nil
}

const detailSQL = `
	SELECT r.id, r.car_id, r.user_id, r.day, r.created_at,
	       COALESCE(c.brand, ''), COALESCE(c.model, ''), COALESCE(u.email, '')
	FROM reservations r
	LEFT JOIN cars c ON c.id = r.car_id
	LEFT JOIN users u ON u.id = r.user_id
`

// ListForUser returns the user's reservations, newest first, with car and
// user references populated.
func (r *PGRepository) ListForUser(ctx context.Context, userID string) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, detailSQL+` WHERE r.user_id = $1 ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("reservation: list for user: %w", err)
	}
	defer rows.Close()
	return scanDetails(rows)
}

// ListAll returns every reservation, newest first.
func (r *PGRepository) ListAll(ctx context.Context) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, detailSQL+` ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("reservation: list all: %w", err)
	}
	defer rows.Close()
	return scanDetails(rows)
}

// PurgeCar removes the car's reservations and listed days inside the
// caller's transaction. Used by car deletion when the cascade policy is on.
func (r *PGRepository) PurgeCar(ctx context.Context, tx pgx.Tx, carID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM reservations WHERE car_id = $1`, carID); err != nil {
		return fmt.Errorf("reservation: purge reservations: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM car_available_dates WHERE car_id = $1`, carID); err != nil {
		return fmt.Errorf("reservation: purge dates: %w", err)
	}
	return nil
}

func scanDetails(rows pgx.Rows) ([]Detail, error) {
	details := make([]Detail, 0)
	for rows.Next() {
		var (
			d   Detail
			day time.Time
		)
		err := rows.Scan(
			&d.ID,
			&d.CarID,
			&d.UserID,
			&day,
			&d.CreatedAt,
			&d.CarBrand,
			&d.CarModel,
			&d.UserEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("reservation: scan detail: %w", err)
		}
		d.Day = day.Format(DayFormat)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reservation: iterate details: %w", err)
	}
	return details, nil
}
