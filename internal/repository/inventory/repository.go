package inventory

import (
	"context"

	"porch-petals/internal/domain"
)

// Repository is the Postgres-backed inventory source.
type Repository interface {
	ListAvailable(ctx context.Context, minAvailable int) ([]domain.InventoryItem, error)
	SetAvailable(ctx context.Context, id string, available int) error
	Decrement(ctx context.Context, id string, quantity int) (int, error)
	Upsert(ctx context.Context, item domain.InventoryItem) error
}
