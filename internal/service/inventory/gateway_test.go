package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
)

type stubSource struct {
	mu        sync.Mutex
	items     map[string]*domain.InventoryItem
	listErr   error
	setErr    error
	lastMin   int
	lastSetID string
	lastSetN  int
}

func newStubSource(items ...domain.InventoryItem) *stubSource {
	s := &stubSource{items: map[string]*domain.InventoryItem{}}
	for i := range items {
		item := items[i]
		s.items[item.ID] = &item
	}
	return s
}

func (s *stubSource) ListAvailable(_ context.Context, minAvailable int) ([]domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMin = minAvailable
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.InventoryItem
	for _, id := range []string{"row-1", "row-2", "row-3"} {
		if item, ok := s.items[id]; ok && item.Available > minAvailable {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubSource) SetAvailable(_ context.Context, id string, available int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSetID = id
	s.lastSetN = available
	return s.setErr
}

func (s *stubSource) Decrement(_ context.Context, id string, quantity int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	item.Available = max(0, item.Available-quantity)
	return item.Available, nil
}

func TestFetchProductsWithoutSourceReturnsSample(t *testing.T) {
	g := NewGateway(nil, zerolog.Nop())
	first, err := g.FetchProducts(context.Background())
	if err != nil {
		t.Fatalf("FetchProducts: %v", err)
	}
	second, _ := g.FetchProducts(context.Background())

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected three sample bouquets, got %d and %d", len(first), len(second))
	}
	wantIDs := []string{"mock-1", "mock-2", "mock-3"}
	for i, id := range wantIDs {
		if first[i].ID != id || second[i].ID != id {
			t.Fatalf("unstable sample ids: %s %s", first[i].ID, second[i].ID)
		}
		if first[i].Kind != domain.KindBouquet {
			t.Fatalf("expected bouquet kind, got %s", first[i].Kind)
		}
	}
	mz := first[0]
	if mz.Name != "Minnie Zinnie" || mz.Available != 3 || mz.TotalCapacity != 5 || mz.Price != 12 || mz.Size != "small" {
		t.Fatalf("unexpected sample bouquet %+v", mz)
	}
}

func TestFetchProductsMapsSourceRows(t *testing.T) {
	src := newStubSource(
		domain.InventoryItem{ID: "row-1", Name: "Cosmos Cascade", Available: 4, Total: 6},
		domain.InventoryItem{ID: "row-2", Name: "Mystery Bunch", Available: 1, Total: 1},
		domain.InventoryItem{ID: "row-3", Name: "Garden Mix", Available: 0, Total: 3},
	)
	g := NewGateway(src, zerolog.Nop())

	products, err := g.FetchProducts(context.Background())
	if err != nil {
		t.Fatalf("FetchProducts: %v", err)
	}
	if src.lastMin != 0 {
		t.Fatalf("expected availability filter > 0, got %d", src.lastMin)
	}
	if len(products) != 2 {
		t.Fatalf("expected sold-out row to be filtered, got %d products", len(products))
	}
	if products[0].Price != 15 || products[0].TotalCapacity != 6 || products[0].Flowers[0] != "Cosmos" {
		t.Fatalf("unexpected mapping %+v", products[0])
	}
	if products[1].Price != 12 || products[1].Description != defaultBouquet.Description || products[1].Size != "small" {
		t.Fatalf("expected defaults for unknown bouquet, got %+v", products[1])
	}
}

func TestFetchProductsFallsBackOnError(t *testing.T) {
	src := newStubSource()
	src.listErr = errors.New("connection reset")
	g := NewGateway(src, zerolog.Nop())

	products, err := g.FetchProducts(context.Background())
	if err != nil {
		t.Fatalf("expected fallback, got %v", err)
	}
	if len(products) != 3 || products[0].ID != "mock-1" {
		t.Fatalf("expected sample fallback, got %+v", products)
	}
}

func TestFetchProductsReturnsCancellation(t *testing.T) {
	src := newStubSource()
	src.listErr = context.Canceled
	g := NewGateway(src, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.FetchProducts(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestUpdateAvailability(t *testing.T) {
	if err := NewGateway(nil, zerolog.Nop()).UpdateAvailability(context.Background(), "mock-1", 2); err != nil {
		t.Fatalf("demo mode should not fail: %v", err)
	}

	src := newStubSource()
	g := NewGateway(src, zerolog.Nop())
	if err := g.UpdateAvailability(context.Background(), "row-1", 2); err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if src.lastSetID != "row-1" || src.lastSetN != 2 {
		t.Fatalf("unexpected write %s=%d", src.lastSetID, src.lastSetN)
	}

	src.setErr = errors.New("rate limited")
	if err := g.UpdateAvailability(context.Background(), "row-1", 2); err == nil {
		t.Fatalf("expected source error to propagate")
	}
}

func TestProcessOrderDecrementsBouquetsOnly(t *testing.T) {
	src := newStubSource(domain.InventoryItem{ID: "row-1", Name: "Garden Mix", Available: 2, Total: 3})
	g := NewGateway(src, zerolog.Nop())

	err := g.ProcessOrder(context.Background(), []domain.CartLine{
		{Kind: domain.KindBouquet, ProductID: "row-1", Quantity: 5},
		{Kind: domain.KindBouquet, ProductID: "unknown", Quantity: 1},
		{Kind: domain.KindHouseplant, ProductID: "row-1", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("ProcessOrder: %v", err)
	}
	if got := src.items["row-1"].Available; got != 0 {
		t.Fatalf("expected clamp to zero, got %d", got)
	}
}

func TestProcessOrderConcurrentOrdersBothApply(t *testing.T) {
	src := newStubSource(domain.InventoryItem{ID: "row-1", Name: "Minnie Zinnie", Available: 3, Total: 5})
	g := NewGateway(src, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.ProcessOrder(context.Background(), []domain.CartLine{{Kind: domain.KindBouquet, ProductID: "row-1", Quantity: 1}}); err != nil {
				t.Errorf("ProcessOrder: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := src.items["row-1"].Available; got != 1 {
		t.Fatalf("expected both decrements to land (1), got %d", got)
	}
}

func TestHouseplants(t *testing.T) {
	g := NewGateway(nil, zerolog.Nop())
	plants := g.Houseplants()
	if len(plants) != 3 {
		t.Fatalf("expected three houseplants, got %d", len(plants))
	}
	plants[0].Name = "mutated"
	if g.Houseplants()[0].Name != "Pothos" {
		t.Fatalf("catalog must not be shared with callers")
	}
	p, err := g.Houseplant("rubber-plant-1")
	if err != nil || p.Price != 15 || p.PlantType != "plant" {
		t.Fatalf("unexpected houseplant %+v %v", p, err)
	}
	if _, err := g.Houseplant("cactus"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
