package port

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing is stored for the session.
var ErrNotFound = errors.New("cart not found")

type CartRepository interface {
	// Load returns the serialized cart lines stored for the session
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Save replaces the stored cart atomically; readers never see a partial value
	Save(ctx context.Context, sessionID string, data []byte) error

	// Delete erases the stored cart, no error if absent
	Delete(ctx context.Context, sessionID string) error
}
