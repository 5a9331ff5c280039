package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Cmetankaaa/shop-next/internal/port"
)

const createCartSessionsTable = `
	CREATE TABLE IF NOT EXISTS cart_sessions (
		session_id VARCHAR(64) NOT NULL PRIMARY KEY,
		cart_lines MEDIUMBLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

// MySQLAdapter stores each session's cart as one row; the upsert replaces
// the value in a single statement.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// EnsureSchema creates the cart_sessions table if it is missing.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createCartSessionsTable); err != nil {
		return fmt.Errorf("create cart_sessions: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Load(ctx context.Context, sessionID string) ([]byte, error) {
	var data []byte
	err := m.db.QueryRowContext(ctx, `
		SELECT cart_lines FROM cart_sessions WHERE session_id = ?`, sessionID,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	return data, nil
}

func (m *MySQLAdapter) Save(ctx context.Context, sessionID string, data []byte) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO cart_sessions (session_id, cart_lines, updated_at)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE cart_lines = VALUES(cart_lines), updated_at = NOW()`,
		sessionID, data,
	)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Delete(ctx context.Context, sessionID string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM cart_sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
