package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrMissingUser signals a reserve request without a user id.
	ErrMissingUser = errors.New("reservation: user id is required")
	// ErrActiveReservationExists signals the single-active-reservation policy
	// refused a booking. Informational, not a failure of the car or date.
	ErrActiveReservationExists = errors.New("reservation: user already holds an active reservation")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ReserveParams contains the inputs to a booking attempt.
type ReserveParams struct {
	CarID  string
	UserID string
	Date   string
}

// Service is the availability ledger. It is the only writer of a car's
// listed dates and of reservation existence; every state transition that
// touches both runs inside a single transaction.
type Service struct {
	pool        TxBeginner
	repo        Repository
	policies    Policies
	idGenerator func() string
	now         func() time.Time
}

// NewService builds the ledger service.
func NewService(pool TxBeginner, repo Repository, policies Policies) *Service {
	return &Service{
		pool:        pool,
		repo:        repo,
		policies:    policies,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

// WithIDGenerator overrides ID generation for tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AddAvailableDate opens a calendar day for booking on the given car.
func (s *Service) AddAvailableDate(ctx context.Context, carID, date string) error {
	day, err := ParseDay(date)
	if err != nil {
		return err
	}
	return s.repo.AddAvailableDate(ctx, carID, day)
}

// RemoveAvailableDate withdraws a listed day from the given car.
func (s *Service) RemoveAvailableDate(ctx context.Context, carID, date string) error {
	day, err := ParseDay(date)
	if err != nil {
		return err
	}
	err = s.repo.RemoveAvailableDate(ctx, carID, day)
	if errors.Is(err, ErrDateNotListed) {
		// Distinguish a missing car from a missing date.
		exists, existsErr := s.repo.CarExists(ctx, carID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return ErrCarNotFound
		}
	}
	return err
}

// AvailableDates returns the car's open days, ascending and duplicate-free.
func (s *Service) AvailableDates(ctx context.Context, carID string) ([]string, error) {
	exists, err := s.repo.CarExists(ctx, carID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCarNotFound
	}
	return s.repo.AvailableDates(ctx, carID)
}

// Reserve books a listed day. Removing the day from the car's availability
// and creating the reservation commit together or not at all.
func (s *Service) Reserve(ctx context.Context, params ReserveParams) (Reservation, error) {
	day, err := ParseDay(params.Date)
	if err != nil {
		return Reservation{}, err
	}
	if params.UserID == "" {
		return Reservation{}, ErrMissingUser
	}

	exists, err := s.repo.CarExists(ctx, params.CarID)
	if err != nil {
		return Reservation{}, err
	}
	if !exists {
		return Reservation{}, ErrCarNotFound
	}

	if s.policies.SingleActiveReservation {
		today := s.now().UTC().Format(DayFormat)
		active, err := s.repo.HasActiveReservation(ctx, params.UserID, today)
		if err != nil {
			return Reservation{}, err
		}
		if active {
			return Reservation{}, ErrActiveReservationExists
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Reservation{}, fmt.Errorf("reservation: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.TakeAvailableDate(ctx, tx, params.CarID, day); err != nil {
		return Reservation{}, err
	}

	res := Reservation{
		ID:        s.idGenerator(),
		CarID:     params.CarID,
		UserID:    params.UserID,
		Day:       day,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.InsertReservation(ctx, tx, res); err != nil {
		return Reservation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Reservation{}, fmt.Errorf("reservation: commit tx: %w", err)
	}

	return res, nil
}

// Cancel deletes the reservation and hands its day back to the car. The
// restore is skipped if the day is somehow already listed, or if the car no
// longer exists.
func (s *Service) Cancel(ctx context.Context, reservationID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("reservation: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	carID, day, err := s.repo.DeleteReservation(ctx, tx, reservationID)
	if err != nil {
		return err
	}

	if err := s.repo.RestoreAvailableDate(ctx, tx, carID, day); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("reservation: commit tx: %w", err)
	}

	return nil
}

// ListForUser returns the user's reservations, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Detail, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	return s.repo.ListForUser(ctx, userID)
}

// ListAll returns every reservation, newest first. Admin use.
func (s *Service) ListAll(ctx context.Context) ([]Detail, error) {
	return s.repo.ListAll(ctx)
}
