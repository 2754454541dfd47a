package storage

import (
	"context"
	"fmt"
)

// schema is portable between PostgreSQL and SQLite. Timestamps are stored
// as UTC TIMESTAMP columns.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL CHECK (role IN ('worker','employer')),
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		completed_jobs INTEGER NOT NULL DEFAULT 0,
		rating DOUBLE PRECISION,
		total_ratings INTEGER NOT NULL DEFAULT 0,
		safety_score INTEGER,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_role_idx ON users (email, role)`,

	`CREATE TABLE IF NOT EXISTS jobs (
		job_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL,
		pay DOUBLE PRECISION NOT NULL,
		duration TEXT NOT NULL,
		employer_id TEXT NOT NULL,
		employer_name TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('open','assigned','completed')),
		worker_id TEXT,
		worker_name TEXT,
		safety_fee DOUBLE PRECISION NOT NULL,
		min_trust_score INTEGER,
		assigned_at TIMESTAMP,
		completed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CHECK ((status = 'open') = (worker_id IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_status_created_idx ON jobs (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS jobs_worker_idx ON jobs (worker_id)`,
	`CREATE INDEX IF NOT EXISTS jobs_employer_idx ON jobs (employer_id)`,

	`CREATE TABLE IF NOT EXISTS safety_policies (
		policy_id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		job_title TEXT NOT NULL,
		worker_id TEXT NOT NULL,
		worker_name TEXT NOT NULL,
		fee_paid DOUBLE PRECISION NOT NULL,
		coverage TEXT NOT NULL,
		activated_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('active','expired','used'))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS safety_policies_job_idx ON safety_policies (job_id)`,
	`CREATE INDEX IF NOT EXISTS safety_policies_worker_idx ON safety_policies (worker_id)`,

	`CREATE TABLE IF NOT EXISTS ratings (
		rating_id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		rater_id TEXT NOT NULL,
		ratee_id TEXT NOT NULL,
		score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
		review TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ratings_job_rater_idx ON ratings (job_id, rater_id)`,
	`CREATE INDEX IF NOT EXISTS ratings_ratee_idx ON ratings (ratee_id)`,

	`CREATE TABLE IF NOT EXISTS sos_alerts (
		alert_id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		worker_name TEXT NOT NULL,
		location TEXT NOT NULL,
		emergency_type TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS schemes (
		scheme_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		eligibility TEXT NOT NULL,
		benefits TEXT NOT NULL,
		how_to_apply TEXT NOT NULL,
		external_link TEXT,
		state TEXT,
		icon TEXT NOT NULL DEFAULT 'shield',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS schemes_title_idx ON schemes (title)`,
}

// Migrate creates the tables and indexes if they do not exist
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	s.logger.Info("Database schema is up to date")
	return nil
}
