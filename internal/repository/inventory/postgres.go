package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
)

type postgresRepo struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// Connect opens the inventory database through lib/pq.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to inventory database: %w", err)
	}
	db.SetMaxOpenConns(10)
	return db, nil
}

func NewPostgres(db *sqlx.DB, logger zerolog.Logger) Repository {
	return &postgresRepo{db: db, logger: logger}
}

// ListAvailable returns rows whose availability is strictly greater than
// minAvailable.
func (r *postgresRepo) ListAvailable(ctx context.Context, minAvailable int) ([]domain.InventoryItem, error) {
	const q = `SELECT id, name, available, total, updated_at FROM inventory_items WHERE available > $1 ORDER BY name`
	var items []domain.InventoryItem
	if err := r.db.SelectContext(ctx, &items, q, minAvailable); err != nil {
		r.logger.Error().Err(err).Msg("inventory repo: list")
		return nil, err
	}
	r.logger.Debug().Int("count", len(items)).Msg("inventory repo: list")
	return items, nil
}

func (r *postgresRepo) SetAvailable(ctx context.Context, id string, available int) error {
	const q = `UPDATE inventory_items SET available = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, q, available, id)
	if err != nil {
		return fmt.Errorf("error updating availability for %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected for %s: %w", id, err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Decrement lowers availability by quantity in a single statement, clamped at
// zero, and returns the new count.
func (r *postgresRepo) Decrement(ctx context.Context, id string, quantity int) (int, error) {
	const q = `UPDATE inventory_items SET available = GREATEST(available - $1, 0), updated_at = now() WHERE id = $2 RETURNING available`
	var remaining int
	if err := r.db.QueryRowxContext(ctx, q, quantity, id).Scan(&remaining); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("error decrementing availability for %s: %w", id, err)
	}
	return remaining, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, item domain.InventoryItem) error {
	const q = `INSERT INTO inventory_items (id, name, available, total, updated_at)
VALUES (:id, :name, :available, :total, now())
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, available = EXCLUDED.available, total = EXCLUDED.total, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, q, item); err != nil {
		r.logger.Error().Err(err).Str("id", item.ID).Msg("inventory repo: upsert")
		return err
	}
	return nil
}
