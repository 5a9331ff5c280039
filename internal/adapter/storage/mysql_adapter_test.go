package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Cmetankaaa/shop-next/internal/port"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/storefront?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	return db
}

func TestMySQLSaveLoad(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema setup failed: %v", err)
	}
	db.ExecContext(ctx, `DELETE FROM cart_sessions WHERE session_id = 'test-session'`)

	first := []byte(`[{"id":5,"title":"Widget","price":"100","quantity":1}]`)
	second := []byte(`[{"id":5,"title":"Widget","price":"100","quantity":3}]`)

	if err := adapter.Save(ctx, "test-session", first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := adapter.Save(ctx, "test-session", second); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, err := adapter.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != string(second) {
		t.Errorf("expected %s, got %s", second, got)
	}

	// Verify a single row per session
	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cart_sessions WHERE session_id = 'test-session'`).Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	// Cleanup
	db.ExecContext(ctx, `DELETE FROM cart_sessions WHERE session_id = 'test-session'`)
}

func TestMySQLLoad_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema setup failed: %v", err)
	}

	_, err := adapter.Load(ctx, "no-such-session")
	if !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestMySQLDelete(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	if err := adapter.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema setup failed: %v", err)
	}

	if err := adapter.Save(ctx, "test-delete", []byte(`[]`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := adapter.Delete(ctx, "test-delete"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := adapter.Load(ctx, "test-delete"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}
}
