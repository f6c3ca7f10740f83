package car

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested car does not exist.
var ErrNotFound = errors.New("car: not found")

const carColumns = "id, brand, model, type, year, horsepower, price_per_day, image_key, created_at, updated_at"

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a new car row.
func (r *PGRepository) Create(ctx context.Context, c Car) (Car, error) {
	const insertSQL = `
		INSERT INTO cars (id, brand, model, type, year, horsepower, price_per_day, image_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + carColumns

	created, err := scanCar(r.pool.QueryRow(ctx, insertSQL,
		c.ID, c.Brand, c.Model, c.Type, c.Year, c.Horsepower, c.PricePerDay, c.ImageKey, c.CreatedAt, c.UpdatedAt))
	if err != nil {
		return Car{}, fmt.Errorf("car: create: %w", err)
	}

	return created, nil
}

// GetByID fetches a car by its primary key.
func (r *PGRepository) GetByID(ctx context.Context, id string) (Car, error) {
	const selectSQL = `SELECT ` + carColumns + ` FROM cars WHERE id = $1`

	c, err := scanCar(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Car{}, ErrNotFound
		}
		return Car{}, fmt.Errorf("car: query by id: %w", err)
	}

	return c, nil
}

// List fetches cars matching the filter, ordered by the sort directive when
// present and by creation time otherwise.
func (r *PGRepository) List(ctx context.Context, filter Filter) ([]Car, error) {
	var (
		where []string
		args  []any
	)

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(brand ILIKE $%d OR model ILIKE $%d)", len(args), len(args)))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		where = append(where, fmt.Sprintf("year = $%d", len(args)))
	}

	query := `SELECT ` + carColumns + ` FROM cars`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	orderBy := "created_at ASC"
	if filter.Sort != "" {
		column, direction, err := parseSort(filter.Sort)
		if err != nil {
			return nil, err
		}
		orderBy = column + " " + direction + ", created_at ASC"
	}
	query += " ORDER BY " + orderBy

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("car: list: %w", err)
	}
	defer rows.Close()

	cars := make([]Car, 0)
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("car: scan row: %w", err)
		}
		cars = append(cars, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("car: iterate rows: %w", err)
	}

	return cars, nil
}

// Update applies the non-nil fields and returns the updated row.
func (r *PGRepository) Update(ctx context.Context, id string, params UpdateParams) (Car, error) {
	set := []string{"updated_at = now()"}
	args := []any{id}

	appendSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Brand != nil {
		appendSet("brand", *params.Brand)
	}
	if params.Model != nil {
		appendSet("model", *params.Model)
	}
	if params.Type != nil {
		appendSet("type", *params.Type)
	}
	if params.Year != nil {
		appendSet("year", *params.Year)
	}
	if params.Horsepower != nil {
		appendSet("horsepower", *params.Horsepower)
	}
	if params.PricePerDay != nil {
		appendSet("price_per_day", *params.PricePerDay)
	}
	if params.ImageKey != nil {
		appendSet("image_key", *params.ImageKey)
	}

	query := `UPDATE cars SET ` + strings.Join(set, ", ") + ` WHERE id = $1 RETURNING ` + carColumns

	c, err := scanCar(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Car{}, ErrNotFound
		}
		return Car{}, fmt.Errorf("car: update: %w", err)
	}

	return c, nil
}

// Delete removes a car row inside the caller's transaction. Listed dates go
// with it via the schema cascade; reservation rows are the purger's business.
func (r *PGRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("car: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCar(row pgx.Row) (Car, error) {
	var c Car
	err := row.Scan(
		&c.ID,
		&c.Brand,
		&c.Model,
		&c.Type,
		&c.Year,
		&c.Horsepower,
		&c.PricePerDay,
		&c.ImageKey,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return Car{}, err
	}
	return c, nil
}
