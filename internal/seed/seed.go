package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"porch-petals/internal/service/inventory"
)

// Apply loads the sample bouquet inventory for manual testing. Existing rows
// are reset to the sample counts.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `
INSERT INTO inventory_items (id, name, available, total, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    available = EXCLUDED.available,
    total = EXCLUDED.total,
    updated_at = EXCLUDED.updated_at
`
	for _, item := range inventory.SampleInventory(time.Now()) {
		if _, err := pool.Exec(ctx, q, item.ID, item.Name, item.Available, item.Total); err != nil {
			return fmt.Errorf("upsert inventory %s: %w", item.ID, err)
		}
	}
	return nil
}
