package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cuongbtq/swayam-be/internal/domain"
)

// CreateSOSAlert records an SOS alert
func (s *Storage) CreateSOSAlert(ctx context.Context, alert *domain.SOSAlert) error {
	query := `
		INSERT INTO sos_alerts (
			alert_id, worker_id, worker_name, location, emergency_type, status, created_at
		) VALUES (
			:alert_id, :worker_id, :worker_name, :location, :emergency_type, :status, :created_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, alert); err != nil {
		return fmt.Errorf("failed to create sos alert: %w", err)
	}

	return nil
}

const schemeColumns = `
	scheme_id, title, description, category, eligibility, benefits,
	how_to_apply, external_link, state, icon, created_at`

// UpsertScheme inserts a scheme unless one with the same title exists.
// It reports whether a row was written.
func (s *Storage) UpsertScheme(ctx context.Context, scheme *domain.Scheme) (bool, error) {
	query := `
		INSERT INTO schemes (` + schemeColumns + `
		) VALUES (
			:scheme_id, :title, :description, :category, :eligibility, :benefits,
			:how_to_apply, :external_link, :state, :icon, :created_at
		)
		ON CONFLICT (title) DO NOTHING
	`

	result, err := s.db.NamedExecContext(ctx, query, scheme)
	if err != nil {
		return false, fmt.Errorf("failed to insert scheme: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListSchemes lists schemes, optionally restricted to a category
// (case-insensitive)
func (s *Storage) ListSchemes(ctx context.Context, category string) ([]domain.Scheme, error) {
	query := `SELECT ` + schemeColumns + ` FROM schemes`
	args := []interface{}{}

	if category != "" {
		query += " WHERE LOWER(category) = ?"
		args = append(args, strings.ToLower(category))
	}
	query += " ORDER BY title"

	schemes := []domain.Scheme{}
	if err := s.db.SelectContext(ctx, &schemes, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list schemes: %w", err)
	}

	return schemes, nil
}

// FindScheme retrieves a scheme by its ID
func (s *Storage) FindScheme(ctx context.Context, schemeID string) (*domain.Scheme, error) {
	query := s.rebind(`SELECT ` + schemeColumns + ` FROM schemes WHERE scheme_id = ?`)

	var scheme domain.Scheme
	if err := s.db.GetContext(ctx, &scheme, query, schemeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get scheme: %w", err)
	}

	return &scheme, nil
}

// ImpactStats counts users, jobs, policies and alerts
func (s *Storage) ImpactStats(ctx context.Context) (*domain.ImpactStats, error) {
	query := s.rebind(`
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = ?) AS total_workers,
			(SELECT COUNT(*) FROM users WHERE role = ?) AS total_employers,
			(SELECT COUNT(*) FROM jobs) AS total_jobs,
			(SELECT COUNT(*) FROM safety_policies) AS policies_activated,
			(SELECT COUNT(*) FROM sos_alerts) AS sos_responded
	`)

	var stats domain.ImpactStats
	if err := s.db.GetContext(ctx, &stats, query, domain.RoleWorker, domain.RoleEmployer); err != nil {
		return nil, fmt.Errorf("failed to compute impact stats: %w", err)
	}

	return &stats, nil
}
