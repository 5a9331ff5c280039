package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
	"github.com/Cmetankaaa/shop-next/internal/metrics"
	"github.com/Cmetankaaa/shop-next/internal/port"
)

var ErrMalformedCart = errors.New("malformed persisted cart")

// CartStore owns the cart lines of one session. Mutations are serialized and
// each one is followed by a full write of the lines to the repository.
type CartStore struct {
	mu        sync.Mutex
	sessionID string
	repo      port.CartRepository
	catalog   port.CatalogLookup
	lines     []domain.CartLine
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewCartStore(sessionID string, repo port.CartRepository, catalog port.CatalogLookup, logger *zap.Logger, m *metrics.Metrics) *CartStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartStore{
		sessionID: sessionID,
		repo:      repo,
		catalog:   catalog,
		logger:    logger.With(zap.String("session_id", sessionID)),
		metrics:   m,
	}
}

// Hydrate is the session-start hook. It replaces the in-memory lines with the
// persisted ones; a missing or malformed value yields an empty cart.
func (s *CartStore) Hydrate(ctx context.Context) domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx)
	switch {
	case errors.Is(err, port.ErrNotFound):
		s.lines = nil
	case err != nil:
		s.logger.Warn("cart hydrate failed, starting empty", zap.Error(err))
		s.metrics.PersistenceFailure("read")
		s.lines = nil
	default:
		s.lines = lines
	}
	return s.snapshotLocked()
}

func (s *CartStore) load(ctx context.Context) ([]domain.CartLine, error) {
	data, err := s.repo.Load(ctx, s.sessionID)
	if err != nil {
		return nil, err
	}
	return DecodeCart(data)
}

// DecodeCart parses persisted lines and rejects anything that would break the
// cart invariants.
func DecodeCart(data []byte) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}
	seen := make(map[int64]struct{}, len(lines))
	for i, line := range lines {
		if err := validate.Struct(line); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCart, i, err)
		}
		if _, dup := seen[line.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %d", ErrMalformedCart, line.ID)
		}
		seen[line.ID] = struct{}{}
	}
	return lines, nil
}

// SetQuantity overwrites the quantity of productID. Zero (or a negative value)
// removes the line. A new line is only created for products in the catalog.
func (s *CartStore) SetQuantity(ctx context.Context, productID int64, quantity int) domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applyLocked(productID, max(quantity, 0)) {
		s.onMutation(ctx)
	}
	return s.snapshotLocked()
}

// Step adds delta to the current quantity of productID, never going below zero.
func (s *CartStore) Step(ctx context.Context, productID int64, delta int) domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := QuantityOf(productID, domain.CartSnapshot{Lines: s.lines})
	if s.applyLocked(productID, StepQuantity(current, delta)) {
		s.onMutation(ctx)
	}
	return s.snapshotLocked()
}

func (s *CartStore) applyLocked(productID int64, quantity int) bool {
	idx := s.indexLocked(productID)

	if quantity == 0 {
		if idx < 0 {
			return false
		}
		s.lines = append(s.lines[:idx:idx], s.lines[idx+1:]...)
		s.metrics.CartMutation("remove")
		return true
	}

	if idx >= 0 {
		if s.lines[idx].Quantity == quantity {
			return false
		}
		s.lines[idx].Quantity = quantity
		s.metrics.CartMutation("update")
		return true
	}

	entry, ok := s.catalog.Find(productID)
	if !ok {
		s.logger.Debug("ignoring quantity for unknown product", zap.Int64("product_id", productID))
		return false
	}
	s.lines = append(s.lines, domain.CartLine{
		ID:       entry.ID,
		Title:    entry.Title,
		Price:    entry.Price,
		Quantity: quantity,
	})
	s.metrics.CartMutation("add")
	return true
}

func (s *CartStore) indexLocked(productID int64) int {
	for i, line := range s.lines {
		if line.ID == productID {
			return i
		}
	}
	return -1
}

// onMutation persists the full line set. A failed write is logged and the
// in-memory change stands.
func (s *CartStore) onMutation(ctx context.Context) {
	data, err := json.Marshal(s.linesOrEmpty())
	if err == nil {
		err = s.repo.Save(ctx, s.sessionID, data)
	}
	if err != nil {
		s.logger.Warn("cart persist failed", zap.Error(err))
		s.metrics.PersistenceFailure("write")
	}
}

// Clear empties the cart and erases the persisted value.
func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.metrics.CartMutation("clear")
	if err := s.repo.Delete(ctx, s.sessionID); err != nil {
		s.logger.Warn("cart erase failed", zap.Error(err))
		s.metrics.PersistenceFailure("delete")
	}
}

func (s *CartStore) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *CartStore) snapshotLocked() domain.CartSnapshot {
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return domain.CartSnapshot{Lines: lines}
}

func (s *CartStore) linesOrEmpty() []domain.CartLine {
	if s.lines == nil {
		return []domain.CartLine{}
	}
	return s.lines
}

