package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
)

// SlotKey is the persisted slot holding the default cart.
const SlotKey = "porch-petals-cart"

type slotRepo interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Store is one cart mirrored to a persisted slot. It is loaded once when
// opened and written back in full after every mutation. A Store is not safe
// for concurrent use; Service serializes access per session.
type Store struct {
	slots  slotRepo
	key    string
	lines  []domain.CartLine
	logger zerolog.Logger
}

// Open hydrates a Store from its slot. A missing slot or one holding data
// that does not parse starts an empty cart; the parse failure is logged. Any
// other read error is returned so a transient outage never overwrites the
// stored cart on the next save.
func Open(ctx context.Context, slots slotRepo, key string, logger zerolog.Logger) (*Store, error) {
	s := &Store{slots: slots, key: key, logger: logger}

	raw, err := slots.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s, nil
		}
		logger.Error().Err(err).Str("slot", key).Msg("error loading cart")
		return nil, fmt.Errorf("load cart %s: %w", key, err)
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		logger.Error().Err(err).Str("slot", key).Msg("error parsing saved cart, starting empty")
		return s, nil
	}
	s.lines = lines
	return s, nil
}

// AddItem increments the line for p, or appends one. A non-positive quantity
// adds one. Stock is not checked.
func (s *Store) AddItem(ctx context.Context, p domain.Product, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}
	if i := s.index(p.Ref()); i >= 0 {
		s.lines[i].Quantity += quantity
	} else {
		s.lines = append(s.lines, domain.CartLine{
			Kind:      p.Kind,
			ProductID: p.ID,
			Product:   p,
			Quantity:  quantity,
		})
	}
	return s.save(ctx)
}

// UpdateQuantity replaces the quantity of ref's line. Zero or less removes the
// line; an unknown ref changes nothing.
func (s *Store) UpdateQuantity(ctx context.Context, ref domain.ProductRef, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, ref)
	}
	if i := s.index(ref); i >= 0 {
		s.lines[i].Quantity = quantity
	}
	return s.save(ctx)
}

func (s *Store) RemoveItem(ctx context.Context, ref domain.ProductRef) error {
	if i := s.index(ref); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	return s.save(ctx)
}

func (s *Store) Clear(ctx context.Context) error {
	s.lines = nil
	return s.save(ctx)
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) TotalItems() int {
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice uses the prices captured when each line was added.
func (s *Store) TotalPrice() int64 {
	var total int64
	for _, l := range s.lines {
		total += l.LineTotal()
	}
	return total
}

func (s *Store) index(ref domain.ProductRef) int {
	for i, l := range s.lines {
		if l.Ref() == ref {
			return i
		}
	}
	return -1
}

func (s *Store) save(ctx context.Context) error {
	lines := s.lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	if err := s.slots.Put(ctx, s.key, raw); err != nil {
		s.logger.Error().Err(err).Str("slot", s.key).Msg("error saving cart")
		return err
	}
	return nil
}
