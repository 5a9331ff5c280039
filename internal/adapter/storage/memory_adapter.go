package storage

import (
	"context"
	"sync"

	"github.com/Cmetankaaa/shop-next/internal/port"
)

// MemoryAdapter keeps carts in process memory. Values are copied in and out.
type MemoryAdapter struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{carts: make(map[string][]byte)}
}

func (m *MemoryAdapter) Load(ctx context.Context, sessionID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.carts[sessionID]
	if !ok {
		return nil, port.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryAdapter) Save(ctx context.Context, sessionID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryAdapter) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}
