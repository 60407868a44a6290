package notion

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/jomei/notionapi"

	"porch-petals/internal/domain"
)

const (
	propName      = "Name"
	propAvailable = "Available"
	propTotal     = "Total"
)

// InventorySource reads bouquet availability rows from a Notion database.
type InventorySource struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID

	// rowLocks serializes read-modify-write decrements per page; the API has
	// no conditional update.
	rowLocks sync.Map
}

func NewInventorySource(client *notionapi.Client, databaseID string) *InventorySource {
	return &InventorySource{client: client, databaseID: notionapi.DatabaseID(databaseID)}
}

// ListAvailable returns every row whose Available count is greater than
// minAvailable, following pagination cursors.
func (s *InventorySource) ListAvailable(ctx context.Context, minAvailable int) ([]domain.InventoryItem, error) {
	threshold := float64(minAvailable)
	req := &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: propAvailable,
			Number:   &notionapi.NumberFilterCondition{GreaterThan: &threshold},
		},
	}

	var items []domain.InventoryItem
	for {
		resp, err := s.client.Database.Query(ctx, s.databaseID, req)
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Results {
			items = append(items, itemFromPage(p))
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return items, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

func (s *InventorySource) SetAvailable(ctx context.Context, id string, available int) error {
	return s.writeAvailable(ctx, id, available)
}

// Decrement re-reads the row under a per-row lock and writes the clamped
// result. Writers in other processes are not coordinated.
func (s *InventorySource) Decrement(ctx context.Context, id string, quantity int) (int, error) {
	unlock := s.lockRow(id)
	defer unlock()

	page, err := s.client.Page.Get(ctx, notionapi.PageID(id))
	if err != nil {
		if isNotFound(err) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	remaining := max(0, itemFromPage(*page).Available-quantity)
	if err := s.writeAvailable(ctx, id, remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *InventorySource) writeAvailable(ctx context.Context, id string, available int) error {
	_, err := s.client.Page.Update(ctx, notionapi.PageID(id), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			propAvailable: &notionapi.NumberProperty{Number: float64(available)},
		},
	})
	if isNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

func (s *InventorySource) lockRow(id string) func() {
	v, _ := s.rowLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func isNotFound(err error) bool {
	var apiErr *notionapi.Error
	return errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Code == "object_not_found")
}

func itemFromPage(p notionapi.Page) domain.InventoryItem {
	return domain.InventoryItem{
		ID:          string(p.ID),
		Name:        Prop(p.Properties, propName).StringOr(""),
		Available:   Prop(p.Properties, propAvailable).IntOr(0),
		Total:       Prop(p.Properties, propTotal).IntOr(0),
		LastUpdated: p.LastEditedTime,
	}
}
