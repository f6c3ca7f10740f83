package reservation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestLedger_Integration connects to a real PostgreSQL via DATABASE_URL and
// verifies the repository + service behavior end to end, including the
// reserve/cancel round trip.
func TestLedger_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if !tableExists(ctx, t, pool, "cars") || !tableExists(ctx, t, pool, "car_available_dates") || !tableExists(ctx, t, pool, "reservations") {
		t.Skip("database schema missing; apply migrations/ first")
	}

	var userID string
	if err := pool.QueryRow(ctx, `INSERT INTO users (email, password_hash) VALUES ($1, 'x') RETURNING id`,
		fmt.Sprintf("itest+%d@example.com", time.Now().UnixNano())).Scan(&userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	carID := uuid.NewString()
	if _, err := pool.Exec(ctx, `
		INSERT INTO cars (id, brand, model, type, year, horsepower, price_per_day)
		VALUES ($1, 'Toyota', 'Corolla', 'sedan', 2020, 132, 45.00)`, carID); err != nil {
		t.Fatalf("seed car: %v", err)
	}

	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM reservations WHERE car_id = $1`, carID)
		pool.Exec(ctx2, `DELETE FROM car_available_dates WHERE car_id = $1`, carID)
		pool.Exec(ctx2, `DELETE FROM cars WHERE id = $1`, carID)
		pool.Exec(ctx2, `DELETE FROM users WHERE id = $1`, userID)
	})

	svc := NewService(pool, NewRepository(pool), Policies{})

	for _, day := range []string{"2031-01-12", "2031-01-10"} {
		if err := svc.AddAvailableDate(ctx, carID, day); err != nil {
			t.Fatalf("add %s: %v", day, err)
		}
	}

	// duplicate listing is rejected by the composite key
	if err := svc.AddAvailableDate(ctx, carID, "2031-01-10"); !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("expected ErrDuplicateDate, got %v", err)
	}

	dates, err := svc.AvailableDates(ctx, carID)
	if err != nil {
		t.Fatalf("available dates: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2031-01-10" || dates[1] != "2031-01-12" {
		t.Fatalf("expected sorted [2031-01-10 2031-01-12], got %v", dates)
	}

	res, err := svc.Reserve(ctx, ReserveParams{CarID: carID, UserID: userID, Date: "2031-01-10"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// reserved day left the availability list
	dates, err = svc.AvailableDates(ctx, carID)
	if err != nil {
		t.Fatalf("available dates after reserve: %v", err)
	}
	if len(dates) != 1 || dates[0] != "2031-01-12" {
		t.Fatalf("expected [2031-01-12], got %v", dates)
	}

	// second reserve on the same day loses
	if _, err := svc.Reserve(ctx, ReserveParams{CarID: carID, UserID: userID, Date: "2031-01-10"}); !errors.Is(err, ErrDateUnavailable) {
		t.Fatalf("expected ErrDateUnavailable, got %v", err)
	}

	details, err := svc.ListForUser(ctx, userID)
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(details) != 1 || details[0].ID != res.ID || details[0].CarBrand != "Toyota" {
		t.Fatalf("unexpected details: %+v", details)
	}

	if err := svc.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Cancel(ctx, res.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second cancel, got %v", err)
	}

	// cancel puts the day back
	dates, err = svc.AvailableDates(ctx, carID)
	if err != nil {
		t.Fatalf("available dates after cancel: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2031-01-10" {
		t.Fatalf("expected restored [2031-01-10 2031-01-12], got %v", dates)
	}

	// cancel after the car is gone must not resurrect availability rows
	res2, err := svc.Reserve(ctx, ReserveParams{CarID: carID, UserID: userID, Date: "2031-01-12"})
	if err != nil {
		t.Fatalf("reserve before delete: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM cars WHERE id = $1`, carID); err != nil {
		t.Fatalf("delete car: %v", err)
	}
	if err := svc.Cancel(ctx, res2.ID); err != nil {
		t.Fatalf("cancel after car delete: %v", err)
	}
	var orphaned int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM car_available_dates WHERE car_id = $1`, carID).Scan(&orphaned); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphaned != 0 {
		t.Fatalf("expected no availability rows for deleted car, got %d", orphaned)
	}
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name).Scan(&exists); err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
