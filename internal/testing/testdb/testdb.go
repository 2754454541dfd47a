// Package testdb opens schema-migrated in-memory stores for tests.
package testdb

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/cuongbtq/swayam-be/internal/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DiscardLogger returns a logger that drops everything
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// New returns a Storage backed by a private in-memory SQLite database
func New(t testing.TB) *storage.Storage {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})

	store := storage.NewStorage(db, DiscardLogger())
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return store
}
