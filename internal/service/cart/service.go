package cart

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
)

// Snapshot is a read-only view of a cart.
type Snapshot struct {
	Lines      []domain.CartLine `json:"lines"`
	TotalItems int               `json:"totalItems"`
	TotalPrice int64             `json:"totalPrice"`
}

// Service hands out per-session carts. Work on one session is serialized
// inside this process; other processes sharing the slot store are
// last-write-wins.
type Service struct {
	slots  slotRepo
	logger zerolog.Logger
	locks  sync.Map
}

func New(slots slotRepo, logger zerolog.Logger) *Service {
	return &Service{slots: slots, logger: logger}
}

// Key returns the slot key for a session; the empty session maps to SlotKey.
func Key(base, session string) string {
	if session == "" {
		return base
	}
	return base + ":" + session
}

// With opens the session's cart and runs fn while holding the session lock.
// fn is not called when the cart cannot be read.
func (s *Service) With(ctx context.Context, session string, fn func(*Store) error) error {
	unlock := s.lockSession(session)
	defer unlock()

	store, err := Open(ctx, s.slots, Key(SlotKey, session), s.logger)
	if err != nil {
		return err
	}
	return fn(store)
}

func (s *Service) Get(ctx context.Context, session string) (Snapshot, error) {
	var snap Snapshot
	err := s.With(ctx, session, func(st *Store) error {
		snap = snapshotOf(st)
		return nil
	})
	return snap, err
}

func (s *Service) Add(ctx context.Context, session string, p domain.Product, quantity int) (Snapshot, error) {
	return s.mutate(ctx, session, func(st *Store) error { return st.AddItem(ctx, p, quantity) })
}

func (s *Service) UpdateQuantity(ctx context.Context, session string, ref domain.ProductRef, quantity int) (Snapshot, error) {
	return s.mutate(ctx, session, func(st *Store) error { return st.UpdateQuantity(ctx, ref, quantity) })
}

func (s *Service) Remove(ctx context.Context, session string, ref domain.ProductRef) (Snapshot, error) {
	return s.mutate(ctx, session, func(st *Store) error { return st.RemoveItem(ctx, ref) })
}

func (s *Service) Clear(ctx context.Context, session string) (Snapshot, error) {
	return s.mutate(ctx, session, func(st *Store) error { return st.Clear(ctx) })
}

func (s *Service) mutate(ctx context.Context, session string, fn func(*Store) error) (Snapshot, error) {
	var snap Snapshot
	err := s.With(ctx, session, func(st *Store) error {
		if err := fn(st); err != nil {
			return err
		}
		snap = snapshotOf(st)
		return nil
	})
	return snap, err
}

func (s *Service) lockSession(session string) func() {
	v, _ := s.locks.LoadOrStore(session, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func snapshotOf(st *Store) Snapshot {
	return Snapshot{
		Lines:      st.Lines(),
		TotalItems: st.TotalItems(),
		TotalPrice: st.TotalPrice(),
	}
}
