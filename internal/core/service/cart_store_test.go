package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
	"github.com/Cmetankaaa/shop-next/internal/port"
)

// Mock CartRepository
type mockCartRepo struct {
	mu        sync.Mutex
	data      map[string][]byte
	saves     int
	deletes   int
	loadErr   error
	saveErr   error
	deleteErr error
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{data: make(map[string][]byte)}
}

func (m *mockCartRepo) Load(ctx context.Context, sessionID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	data, ok := m.data[sessionID]
	if !ok {
		return nil, port.ErrNotFound
	}
	return data, nil
}

func (m *mockCartRepo) Save(ctx context.Context, sessionID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[sessionID] = append([]byte(nil), data...)
	return nil
}

func (m *mockCartRepo) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.data, sessionID)
	return nil
}

func (m *mockCartRepo) stored(t *testing.T, sessionID string) []domain.CartLine {
	t.Helper()
	m.mu.Lock()
	data, ok := m.data[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	lines, err := DecodeCart(data)
	if err != nil {
		t.Fatalf("stored cart is malformed: %v", err)
	}
	return lines
}

func testCatalog() domain.Catalog {
	return domain.Catalog{
		{ID: 5, Title: "Widget", Price: decimal.NewFromInt(100)},
		{ID: 7, Title: "Gadget", Price: decimal.RequireFromString("19.99")},
		{ID: 9, Title: "Free sample", Price: decimal.Zero},
	}
}

func newTestCartStore(repo *mockCartRepo) *CartStore {
	return NewCartStore("session-1", repo, testCatalog(), nil, nil)
}

func TestSetQuantity_AddsLineFromCatalog(t *testing.T) {
	repo := newMockCartRepo()
	store := newTestCartStore(repo)

	snap := store.SetQuantity(context.Background(), 5, 2)

	if len(snap.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(snap.Lines))
	}
	line := snap.Lines[0]
	if line.ID != 5 || line.Title != "Widget" || !line.Price.Equal(decimal.NewFromInt(100)) || line.Quantity != 2 {
		t.Errorf("unexpected line: %+v", line)
	}

	stored := repo.stored(t, "session-1")
	if len(stored) != 1 || stored[0].Quantity != 2 {
		t.Errorf("expected persisted line with quantity 2, got %+v", stored)
	}
}

func TestSetQuantity_OverwritesExisting(t *testing.T) {
	repo := newMockCartRepo()
	store := newTestCartStore(repo)
	ctx := context.Background()

	store.SetQuantity(ctx, 5, 2)
	snap := store.SetQuantity(ctx, 5, 7)

	if len(snap.Lines) != 1 || snap.Lines[0].Quantity != 7 {
		t.Errorf("expected single line with quantity 7, got %+v", snap.Lines)
	}
}

func TestSetQuantity_ZeroRemoves(t *testing.T) {
	repo := newMockCartRepo()
	store := newTestCartStore(repo)
	ctx := context.Background()

	store.SetQuantity(ctx, 5, 3)
	store.SetQuantity(ctx, 7, 1)
	snap := store.SetQuantity(ctx, 5, 0)

	if _, ok := snap.Line(5); ok {
		t.Error("expected line 5 to be removed")
	}
	if len(snap.Lines) != 1 || snap.Lines[0].ID != 7 {
		t.Errorf("expected only line 7 to remain, got %+v", snap.Lines)
	}
	if stored := repo.stored(t, "session-1"); len(stored) != 1 {
		t.Errorf("expected 1 persisted line, got %d", len(stored))
	}
}

func TestSetQuantity_ZeroOnAbsentLineIsNoop(t *testing.T) {
	repo := newMockCartRepo()
	store := newTestCartStore(repo)

	snap := store.SetQuantity(context.Background(), 5, 0)

	if !snap.IsEmpty() {
		t.Errorf("expected empty cart, got %+v", snap.Lines)
	}
	if repo.saves != 0 {
		t.Errorf("expected no persistence write, got %d", repo.saves)
	}
}

func TestSetQuantity_ZeroRemovesProductMissingFromCatalog(t *testing.T) {
	repo := newMockCartRepo()
	repo.data["session-1"] = []byte(`[{"id":42,"title":"Retired","price":10,"quantity":1}]`)
	store := newTestCartStore(repo)
	ctx := context.Background()
	store.Hydrate(ctx)

	snap := store.SetQuantity(ctx, 42, 0)

	if !snap.IsEmpty() {
		t.Errorf("expected retired product to be removable, got %+v", snap.Lines)
	}
}

func TestSetQuantity_NegativeTreatedAsZero(t *testing.T) {
	repo := newMockCartRepo()
	store := newTestCartStore(repo)
	ctx := context.Background()

	store.SetQuantity(ctx, 5, 4)
	snap := store.SetQuantity(ctx, 5, -3)

	if !snap.IsEmpty() {
		t.Errorf("expected negative quantity to remove the line, got %+v", snap.Lines)
	}
}

func TestSetQuantity_UnknownProductIsNoop(t *testing.T) {
	repo := newMockCartRepo()
	store := newTestCartStore(repo)

	snap := store.SetQuantity(context.Background(), 404, 3)

	if !snap.IsEmpty() {
		t.Errorf("expected no line for unknown product, got %+v", snap.Lines)
	}
	if repo.saves != 0 {
		t.Errorf("expected no persistence write, got %d", repo.saves)
	}
}

func TestSetQuantity_Uniqueness(t *testing.T) {
	store := newTestCartStore(newMockCartRepo())
	ctx := context.Background()

	ops := []struct {
		id  int64
		qty int
	}{
		{5, 1}, {7, 2}, {5, 3}, {9, 1}, {7, 0}, {7, 5}, {5, 0}, {5, 2}, {404, 1}, {9, 9},
	}
	var snap domain.CartSnapshot
	for _, op := range ops {
		snap = store.SetQuantity(ctx, op.id, op.qty)

		seen := make(map[int64]bool)
		for _, line := range snap.Lines {
			if seen[line.ID] {
				t.Fatalf("duplicate line for product %d after %+v", line.ID, op)
			}
			if line.Quantity <= 0 {
				t.Fatalf("non-positive quantity for product %d", line.ID)
			}
			seen[line.ID] = true
		}
	}

	// insertion order: 9 was added before 7 was re-added, 5 last
	want := []int64{9, 7, 5}
	if len(snap.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(snap.Lines))
	}
	for i, id := range want {
		if snap.Lines[i].ID != id {
			t.Errorf("line %d: expected product %d, got %d", i, id, snap.Lines[i].ID)
		}
	}
}

func TestTotal(t *testing.T) {
	store := newTestCartStore(newMockCartRepo())
	ctx := context.Background()

	store.SetQuantity(ctx, 5, 2)
	store.SetQuantity(ctx, 7, 3)
	snap := store.SetQuantity(ctx, 9, 4)

	want := decimal.RequireFromString("259.97")
	if !snap.Total().Equal(want) {
		t.Errorf("expected total %s, got %s", want, snap.Total())
	}

	snap = store.SetQuantity(ctx, 7, 0)
	if !snap.Total().Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected total 200 after removal, got %s", snap.Total())
	}
}

func TestStep(t *testing.T) {
	store := newTestCartStore(newMockCartRepo())
	ctx := context.Background()

	snap := store.Step(ctx, 5, 1)
	if QuantityOf(5, snap) != 1 {
		t.Errorf("expected quantity 1, got %d", QuantityOf(5, snap))
	}
	snap = store.Step(ctx, 5, 1)
	if QuantityOf(5, snap) != 2 {
		t.Errorf("expected quantity 2, got %d", QuantityOf(5, snap))
	}
	snap = store.Step(ctx, 5, -5)
	if _, ok := snap.Line(5); ok {
		t.Error("expected stepping below zero to remove the line")
	}
}

func TestStep_HugeDeltaKeepsLine(t *testing.T) {
	store := newTestCartStore(newMockCartRepo())
	ctx := context.Background()

	store.Step(ctx, 5, 1)
	snap := store.Step(ctx, 5, math.MaxInt)
	if QuantityOf(5, snap) != math.MaxInt {
		t.Errorf("expected saturated quantity, got %d", QuantityOf(5, snap))
	}
}

func TestHydrate_RestoresPersisted(t *testing.T) {
	repo := newMockCartRepo()
	repo.data["session-1"] = []byte(`[{"id":5,"title":"Widget","price":100,"quantity":2},{"id":7,"title":"Gadget","price":"19.99","quantity":1}]`)
	store := newTestCartStore(repo)

	snap := store.Hydrate(context.Background())

	if len(snap.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(snap.Lines))
	}
	if !snap.Total().Equal(decimal.RequireFromString("219.99")) {
		t.Errorf("expected total 219.99, got %s", snap.Total())
	}
}

func TestHydrate_MissingYieldsEmpty(t *testing.T) {
	store := newTestCartStore(newMockCartRepo())

	if snap := store.Hydrate(context.Background()); !snap.IsEmpty() {
		t.Errorf("expected empty cart, got %+v", snap.Lines)
	}
}

func TestHydrate_CorruptYieldsEmpty(t *testing.T) {
	cases := map[string]string{
		"not json":          `{{{`,
		"wrong shape":       `{"id":5}`,
		"zero quantity":     `[{"id":5,"title":"Widget","price":100,"quantity":0}]`,
		"negative price":    `[{"id":5,"title":"Widget","price":-1,"quantity":1}]`,
		"missing title":     `[{"id":5,"price":100,"quantity":1}]`,
		"bad price":         `[{"id":5,"title":"Widget","price":"abc","quantity":1}]`,
		"duplicate product": `[{"id":5,"title":"Widget","price":1,"quantity":1},{"id":5,"title":"Widget","price":1,"quantity":2}]`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newMockCartRepo()
			repo.data["session-1"] = []byte(raw)
			store := newTestCartStore(repo)

			snap := store.Hydrate(context.Background())
			if !snap.IsEmpty() {
				t.Errorf("expected empty cart, got %+v", snap.Lines)
			}
		})
	}
}

func TestHydrate_ReadErrorYieldsEmpty(t *testing.T) {
	repo := newMockCartRepo()
	repo.loadErr = errors.New("connection refused")
	store := newTestCartStore(repo)

	if snap := store.Hydrate(context.Background()); !snap.IsEmpty() {
		t.Errorf("expected empty cart, got %+v", snap.Lines)
	}
}

func TestSetQuantity_WriteFailureKeepsInMemoryChange(t *testing.T) {
	repo := newMockCartRepo()
	repo.saveErr = errors.New("disk full")
	store := newTestCartStore(repo)

	snap := store.SetQuantity(context.Background(), 5, 1)

	if QuantityOf(5, snap) != 1 {
		t.Errorf("expected in-memory quantity 1, got %d", QuantityOf(5, snap))
	}
	if repo.saves != 1 {
		t.Errorf("expected one write attempt, got %d", repo.saves)
	}
}

func TestClear_ErasesPersisted(t *testing.T) {
	repo := newMockCartRepo()
	store := newTestCartStore(repo)
	ctx := context.Background()

	store.SetQuantity(ctx, 5, 1)
	store.Clear(ctx)

	if !store.Snapshot().IsEmpty() {
		t.Error("expected empty cart after clear")
	}
	if _, ok := repo.data["session-1"]; ok {
		t.Error("expected persisted cart to be erased")
	}

	// a fresh session starts empty
	if snap := newTestCartStore(repo).Hydrate(ctx); !snap.IsEmpty() {
		t.Errorf("expected empty rehydrated cart, got %+v", snap.Lines)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store := newTestCartStore(newMockCartRepo())
	ctx := context.Background()

	snap := store.SetQuantity(ctx, 5, 1)
	snap.Lines[0].Quantity = 99

	if QuantityOf(5, store.Snapshot()) != 1 {
		t.Error("expected snapshot mutation not to leak into the store")
	}
}

func TestSetQuantity_Concurrent(t *testing.T) {
	repo := newMockCartRepo()
	store := newTestCartStore(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.SetQuantity(ctx, []int64{5, 7, 9}[n%3], n%4)
		}(i)
	}
	wg.Wait()

	snap := store.Snapshot()
	seen := make(map[int64]bool)
	for _, line := range snap.Lines {
		if seen[line.ID] {
			t.Fatalf("duplicate line for product %d", line.ID)
		}
		seen[line.ID] = true
	}

	// persisted value matches the final in-memory state
	stored := repo.stored(t, "session-1")
	if len(stored) != len(snap.Lines) {
		t.Errorf("expected %d persisted lines, got %d", len(snap.Lines), len(stored))
	}
}
