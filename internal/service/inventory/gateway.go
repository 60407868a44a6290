package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
)

// Source is an external store of bouquet availability rows.
type Source interface {
	ListAvailable(ctx context.Context, minAvailable int) ([]domain.InventoryItem, error)
	SetAvailable(ctx context.Context, id string, available int) error
	// Decrement lowers availability by quantity, clamped at zero, as one
	// atomic step from the caller's point of view.
	Decrement(ctx context.Context, id string, quantity int) (int, error)
}

// Gateway serves the bouquet catalog from a Source, falling back to the
// sample inventory when no source is configured or the source fails.
type Gateway struct {
	source Source
	logger zerolog.Logger
	now    func() time.Time
}

// NewGateway builds a Gateway. A nil source selects the sample inventory.
func NewGateway(source Source, logger zerolog.Logger) *Gateway {
	return &Gateway{source: source, logger: logger, now: time.Now}
}

// FetchInventory returns rows with positive availability. Source errors are
// logged and replaced by the sample rows; only context cancellation is
// returned.
func (g *Gateway) FetchInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	if g.source == nil {
		return SampleInventory(g.now()), nil
	}

	items, err := g.source.ListAvailable(ctx, 0)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		g.logger.Error().Err(err).Msg("fetch inventory failed, serving sample data")
		return SampleInventory(g.now()), nil
	}
	return items, nil
}

// FetchProducts returns the current bouquets.
func (g *Gateway) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	items, err := g.FetchInventory(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		products = append(products, BouquetFromItem(item))
	}
	return products, nil
}

// UpdateAvailability writes an absolute availability count for one row.
func (g *Gateway) UpdateAvailability(ctx context.Context, id string, available int) error {
	if g.source == nil {
		g.logger.Info().Str("id", id).Int("available", available).Msg("demo mode: skipping availability update")
		return nil
	}
	if err := g.source.SetAvailable(ctx, id, available); err != nil {
		g.logger.Error().Err(err).Str("id", id).Msg("update availability failed")
		return fmt.Errorf("update availability %s: %w", id, err)
	}
	return nil
}

// ProcessOrder decrements availability for every bouquet line. Rows the
// source no longer knows are skipped; the first other error aborts.
func (g *Gateway) ProcessOrder(ctx context.Context, lines []domain.CartLine) error {
	for _, line := range lines {
		if line.Kind != domain.KindBouquet {
			continue
		}
		if g.source == nil {
			g.logger.Info().Str("id", line.ProductID).Int("quantity", line.Quantity).Msg("demo mode: skipping decrement")
			continue
		}
		remaining, err := g.source.Decrement(ctx, line.ProductID, line.Quantity)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				g.logger.Warn().Str("id", line.ProductID).Msg("ordered bouquet not in inventory, skipping")
				continue
			}
			return fmt.Errorf("decrement %s: %w", line.ProductID, err)
		}
		g.logger.Debug().Str("id", line.ProductID).Int("remaining", remaining).Msg("inventory decremented")
	}
	return nil
}

// Houseplants returns the static houseplant catalog.
func (g *Gateway) Houseplants() []domain.Product {
	out := make([]domain.Product, len(houseplants))
	copy(out, houseplants)
	return out
}

// Houseplant looks up a houseplant by id.
func (g *Gateway) Houseplant(id string) (domain.Product, error) {
	for _, p := range houseplants {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}
