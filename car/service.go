package car

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrMissingField signals a create request without brand or model.
	ErrMissingField = errors.New("car: brand and model are required")
	// ErrBadSort signals an unrecognized sort directive.
	ErrBadSort = errors.New("car: invalid sort directive")
	// ErrEmptyUpdate signals an update with no recognized fields.
	ErrEmptyUpdate = errors.New("car: no updatable fields provided")
)

// sortColumns maps sort directive fields to the columns they order by.
var sortColumns = map[string]string{
	"year":       "year",
	"horsepower": "horsepower",
	"price":      "price_per_day",
}

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ReservationPurger removes a car's reservations and listed dates inside the
// caller's transaction. Wired to the availability ledger so it remains the
// only writer of those tables.
type ReservationPurger interface {
	PurgeCar(ctx context.Context, tx pgx.Tx, carID string) error
}

// Repository handles data access for the car inventory.
type Repository interface {
	Create(ctx context.Context, c Car) (Car, error)
	GetByID(ctx context.Context, id string) (Car, error)
	List(ctx context.Context, filter Filter) ([]Car, error)
	Update(ctx context.Context, id string, params UpdateParams) (Car, error)
	Delete(ctx context.Context, tx pgx.Tx, id string) error
}

// Service exposes business-level inventory operations.
type Service struct {
	pool        TxBeginner
	repo        Repository
	purger      ReservationPurger
	cascade     bool
	idGenerator func() string
	now         func() time.Time
}

// NewService builds a Service using the provided pool and repository. When
// cascade is true and a purger is wired, deleting a car also removes its
// reservations and listed dates.
func NewService(pool TxBeginner, repo Repository, purger ReservationPurger, cascade bool) *Service {
	return &Service{
		pool:        pool,
		repo:        repo,
		purger:      purger,
		cascade:     cascade,
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

// Create adds a car to the inventory.
func (s *Service) Create(ctx context.Context, params CreateParams) (Car, error) {
	if strings.TrimSpace(params.Brand) == "" || strings.TrimSpace(params.Model) == "" {
		return Car{}, ErrMissingField
	}

	now := s.now().UTC()
	c := Car{
		ID:          s.idGenerator(),
		Brand:       strings.TrimSpace(params.Brand),
		Model:       strings.TrimSpace(params.Model),
		Type:        strings.TrimSpace(params.Type),
		Year:        params.Year,
		Horsepower:  params.Horsepower,
		PricePerDay: params.PricePerDay,
		ImageKey:    params.ImageKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return s.repo.Create(ctx, c)
}

// GetByID returns the car for the given identifier.
func (s *Service) GetByID(ctx context.Context, id string) (Car, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns cars matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Car, error) {
	if filter.Sort != "" {
		if _, _, err := parseSort(filter.Sort); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, filter)
}

// Update applies the allow-listed fields to an existing car.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (Car, error) {
	if params == (UpdateParams{}) {
		return Car{}, ErrEmptyUpdate
	}
	return s.repo.Update(ctx, id, params)
}

// Delete removes a car. With the cascade policy enabled, the car's
// reservations and listed dates are removed in the same transaction.
func (s *Service) Delete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("car: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if s.cascade && s.purger != nil {
		if err := s.purger.PurgeCar(ctx, tx, id); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("car: commit tx: %w", err)
	}

	return nil
}

// parseSort splits a "field-asc"/"field-desc" directive into a column and
// direction, rejecting anything off the allow-list.
func parseSort(directive string) (column, direction string, err error) {
	field, dir, found := strings.Cut(directive, "-")
	if !found {
		return "", "", ErrBadSort
	}
	column, ok := sortColumns[field]
	if !ok {
		return "", "", ErrBadSort
	}
	switch dir {
	case "asc":
		direction = "ASC"
	case "desc":
		direction = "DESC"
	default:
		return "", "", ErrBadSort
	}
	return column, direction, nil
}
