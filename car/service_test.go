package car

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func fixedClock() time.Time {
	return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
}

func newTestService(repo Repository, purger ReservationPurger, cascade bool) (*Service, *fakePool) {
	pool := &fakePool{}
	svc := NewService(pool, repo, purger, cascade).
		WithIDGenerator(func() string { return "car-1" }).
		WithClock(fixedClock)
	return svc, pool
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService(newFakeRepo(), nil, false)

	if _, err := svc.Create(context.Background(), CreateParams{Model: "Corolla"}); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateParams{Brand: "  ", Model: "Corolla"}); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for blank brand, got %v", err)
	}
}

func TestService_CreateSetsIdentityAndTimestamps(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, nil, false)

	c, err := svc.Create(context.Background(), CreateParams{
		Brand:       " Toyota ",
		Model:       "Corolla",
		Year:        2021,
		Horsepower:  132,
		PricePerDay: decimal.NewFromInt(45),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID != "car-1" {
		t.Fatalf("expected generated id car-1, got %q", c.ID)
	}
	if c.Brand != "Toyota" {
		t.Fatalf("expected trimmed brand, got %q", c.Brand)
	}
	if !c.CreatedAt.Equal(fixedClock()) || !c.UpdatedAt.Equal(fixedClock()) {
		t.Fatalf("expected fixed timestamps, got %v / %v", c.CreatedAt, c.UpdatedAt)
	}
}

func TestService_ListSortValidation(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, nil, false)

	for _, bad := range []string{"year", "year-up", "color-asc", "asc-year"} {
		if _, err := svc.List(context.Background(), Filter{Sort: bad}); !errors.Is(err, ErrBadSort) {
			t.Fatalf("sort %q: expected ErrBadSort, got %v", bad, err)
		}
	}

	for _, ok := range []string{"year-asc", "horsepower-desc", "price-asc"} {
		if _, err := svc.List(context.Background(), Filter{Sort: ok}); err != nil {
			t.Fatalf("sort %q: unexpected error: %v", ok, err)
		}
	}
}

func TestService_UpdateRequiresFields(t *testing.T) {
	svc, _ := newTestService(newFakeRepo(), nil, false)

	if _, err := svc.Update(context.Background(), "car-1", UpdateParams{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Fatalf("expected ErrEmptyUpdate, got %v", err)
	}
}

func TestService_UpdateAppliesAllowList(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, nil, false)

	created, err := svc.Create(context.Background(), CreateParams{Brand: "Toyota", Model: "Corolla", Year: 2020})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	year := 2022
	updated, err := svc.Update(context.Background(), created.ID, UpdateParams{Year: &year})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Year != 2022 {
		t.Fatalf("expected year 2022, got %d", updated.Year)
	}
	if updated.Brand != "Toyota" || updated.Model != "Corolla" {
		t.Fatalf("unset fields mutated: %+v", updated)
	}
}

func TestService_DeleteWithoutCascade(t *testing.T) {
	repo := newFakeRepo()
	purger := &fakePurger{}
	svc, pool := newTestService(repo, purger, false)

	created, err := svc.Create(context.Background(), CreateParams{Brand: "Toyota", Model: "Corolla"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if purger.purged {
		t.Fatal("expected purger to be skipped with cascade off")
	}
	if pool.tx == nil || !pool.tx.committed {
		t.Fatal("expected delete transaction to commit")
	}
}

func TestService_DeleteCascades(t *testing.T) {
	repo := newFakeRepo()
	purger := &fakePurger{}
	svc, pool := newTestService(repo, purger, true)

	created, err := svc.Create(context.Background(), CreateParams{Brand: "Toyota", Model: "Corolla"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !purger.purged {
		t.Fatal("expected purger to run with cascade on")
	}
	if pool.tx == nil || !pool.tx.committed {
		t.Fatal("expected delete transaction to commit")
	}
}

func TestService_DeleteNotFound(t *testing.T) {
	svc, pool := newTestService(newFakeRepo(), nil, false)

	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if pool.tx == nil || pool.tx.committed {
		t.Fatal("expected delete transaction to roll back")
	}
}

type fakeRepo struct {
	cars map[string]Car
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{cars: make(map[string]Car)}
}

func (f *fakeRepo) Create(_ context.Context, c Car) (Car, error) {
	f.cars[c.ID] = c
	return c, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (Car, error) {
	c, ok := f.cars[id]
	if !ok {
		return Car{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) List(_ context.Context, _ Filter) ([]Car, error) {
	out := make([]Car, 0, len(f.cars))
	for _, c := range f.cars {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, id string, params UpdateParams) (Car, error) {
	c, ok := f.cars[id]
	if !ok {
		return Car{}, ErrNotFound
	}
	if params.Brand != nil {
		c.Brand = *params.Brand
	}
	if params.Model != nil {
		c.Model = *params.Model
	}
	if params.Type != nil {
		c.Type = *params.Type
	}
	if params.Year != nil {
		c.Year = *params.Year
	}
	if params.Horsepower != nil {
		c.Horsepower = *params.Horsepower
	}
	if params.PricePerDay != nil {
		c.PricePerDay = *params.PricePerDay
	}
	if params.ImageKey != nil {
		c.ImageKey = *params.ImageKey
	}
	f.cars[id] = c
	return c, nil
}

func (f *fakeRepo) Delete(_ context.Context, _ pgx.Tx, id string) error {
	if _, ok := f.cars[id]; !ok {
		return ErrNotFound
	}
	delete(f.cars, id)
	return nil
}

type fakePurger struct {
	purged bool
}

func (f *fakePurger) PurgeCar(_ context.Context, _ pgx.Tx, _ string) error {
	f.purged = true
	return nil
}

type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	panic("not implemented")
}
