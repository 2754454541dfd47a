package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/jmoiron/sqlx"
)

const jobColumns = `
	job_id, title, category, description, location, pay, duration,
	employer_id, employer_name, status, worker_id, worker_name,
	safety_fee, min_trust_score, assigned_at, completed_at, created_at, updated_at`

// CreateJob inserts a new job record
func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `
		) VALUES (
			:job_id, :title, :category, :description, :location, :pay, :duration,
			:employer_id, :employer_name, :status, :worker_id, :worker_name,
			:safety_fee, :min_trust_score, :assigned_at, :completed_at, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// FindJob retrieves a job by its ID
func (s *Storage) FindJob(ctx context.Context, jobID string) (*domain.Job, error) {
	query := s.rebind(`SELECT ` + jobColumns + ` FROM jobs WHERE job_id = ?`)

	var job domain.Job
	if err := s.db.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// CompareAndAssignJob assigns the job to the worker only if its status is
// still expectedStatus at write time. It reports whether the write matched.
func (s *Storage) CompareAndAssignJob(ctx context.Context, jobID, expectedStatus, workerID, workerName string, at time.Time) (bool, error) {
	query := s.rebind(`
		UPDATE jobs
		SET status = ?,
		    worker_id = ?,
		    worker_name = ?,
		    assigned_at = ?,
		    updated_at = ?
		WHERE job_id = ?
		  AND status = ?
	`)

	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusAssigned, workerID, workerName, at, at, jobID, expectedStatus)
	if err != nil {
		return false, fmt.Errorf("failed to assign job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Job assignment precondition failed",
			slog.String("job_id", jobID),
			slog.String("expected_status", expectedStatus),
			slog.String("worker_id", workerID),
		)
		return false, nil
	}

	return true, nil
}

// CompleteJob moves an assigned job owned by employerID to completed and
// credits the worker with a completed job, in one transaction. It reports
// whether the job was in a completable state.
func (s *Storage) CompleteJob(ctx context.Context, jobID, employerID string, at time.Time) (bool, error) {
	completed := false

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var workerID sql.NullString
		err := tx.GetContext(ctx, &workerID, tx.Rebind(`SELECT worker_id FROM jobs WHERE job_id = ?`), jobID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get job: %w", err)
		}

		result, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE jobs
			SET status = ?,
			    completed_at = ?,
			    updated_at = ?
			WHERE job_id = ?
			  AND employer_id = ?
			  AND status = ?
		`), domain.JobStatusCompleted, at, at, jobID, employerID, domain.JobStatusAssigned)
		if err != nil {
			return fmt.Errorf("failed to complete job: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 || !workerID.Valid {
			return nil
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE users
			SET completed_jobs = completed_jobs + 1
			WHERE user_id = ?
		`), workerID.String)
		if err != nil {
			return fmt.Errorf("failed to credit worker: %w", err)
		}

		completed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return completed, nil
}

// ListJobs lists jobs newest first. It fetches PageSize+1 rows so callers
// can tell whether another page exists.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}

	if filter.EmployerID != "" {
		query += " AND employer_id = ?"
		args = append(args, filter.EmployerID)
	}

	if filter.WorkerID != "" {
		query += " AND worker_id = ?"
		args = append(args, filter.WorkerID)
	}

	if filter.Cursor != nil {
		query += " AND (created_at < ? OR (created_at = ? AND job_id < ?))"
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.JobID)
	}

	// Order by created_at DESC, job_id DESC for consistent pagination
	query += " ORDER BY created_at DESC, job_id DESC"

	if filter.PageSize > 0 {
		query += " LIMIT ?"
		args = append(args, filter.PageSize+1)
	}

	jobs := []domain.Job{}
	if err := s.db.SelectContext(ctx, &jobs, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// ListJobsMissingPolicy returns assigned or completed jobs that have no
// safety policy and were assigned before the cutoff
func (s *Storage) ListJobsMissingPolicy(ctx context.Context, assignedBefore time.Time, limit int) ([]domain.Job, error) {
	query := s.rebind(`
		SELECT j.job_id, j.title, j.category, j.description, j.location, j.pay, j.duration,
		       j.employer_id, j.employer_name, j.status, j.worker_id, j.worker_name,
		       j.safety_fee, j.min_trust_score, j.assigned_at, j.completed_at, j.created_at, j.updated_at
		FROM jobs j
		LEFT JOIN safety_policies p ON p.job_id = j.job_id
		WHERE j.status IN (?, ?)
		  AND p.policy_id IS NULL
		  AND j.assigned_at < ?
		ORDER BY j.assigned_at
		LIMIT ?
	`)

	jobs := []domain.Job{}
	err := s.db.SelectContext(ctx, &jobs, query,
		domain.JobStatusAssigned, domain.JobStatusCompleted, assignedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs missing policy: %w", err)
	}

	return jobs, nil
}
