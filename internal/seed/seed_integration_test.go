package seed

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"porch-petals/internal/migrate"
)

func TestApply_SeedsSampleInventory(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	// Twice, to prove it is idempotent.
	for i := 0; i < 2; i++ {
		if err := Apply(ctx, pool); err != nil {
			t.Fatalf("seed apply: %v", err)
		}
	}

	var available, total int
	err = pool.QueryRow(ctx, `SELECT available, total FROM inventory_items WHERE id = 'mock-1'`).Scan(&available, &total)
	if err != nil {
		t.Fatalf("query seeded row: %v", err)
	}
	if available != 3 || total != 5 {
		t.Fatalf("unexpected seeded counts %d/%d", available, total)
	}
}
