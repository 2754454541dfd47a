// Package storage is the record store for users, jobs, safety policies and
// the supporting collections. Queries are written with ? placeholders and
// rebound for the connected driver, so the same store runs on PostgreSQL
// and on SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when no record matches the lookup
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert collides with a unique key
	ErrDuplicate = errors.New("record already exists")
)

// Storage handles all database operations
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// DB returns the underlying connection pool
func (s *Storage) DB() *sqlx.DB {
	return s.db
}

// Ping checks the database connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind converts ? placeholders to the driver's bind style
func (s *Storage) rebind(query string) string {
	return s.db.Rebind(query)
}

// withTx runs fn inside a transaction, rolling back on error
func (s *Storage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction",
				slog.Any("error", rbErr),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// JobFilter narrows ListJobs. Empty fields are ignored.
type JobFilter struct {
	Status     string
	Category   string
	EmployerID string
	WorkerID   string
	PageSize   int
	Cursor     *JobCursor
}

// JobCursor marks the last job of the previous page
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}
