package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cuongbtq/swayam-be/internal/domain"
)

const policyColumns = `
	policy_id, job_id, job_title, worker_id, worker_name,
	fee_paid, coverage, activated_at, status`

// InsertSafetyPolicy persists a policy. It returns ErrDuplicate when a
// policy for the same job already exists.
func (s *Storage) InsertSafetyPolicy(ctx context.Context, policy *domain.SafetyPolicy) error {
	query := `
		INSERT INTO safety_policies (` + policyColumns + `
		) VALUES (
			:policy_id, :job_id, :job_title, :worker_id, :worker_name,
			:fee_paid, :coverage, :activated_at, :status
		)
		ON CONFLICT (job_id) DO NOTHING
	`

	result, err := s.db.NamedExecContext(ctx, query, policy)
	if err != nil {
		return fmt.Errorf("failed to insert safety policy: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDuplicate
	}

	return nil
}

// FindPolicy retrieves a policy by its ID
func (s *Storage) FindPolicy(ctx context.Context, policyID string) (*domain.SafetyPolicy, error) {
	return s.getPolicy(ctx, `SELECT `+policyColumns+` FROM safety_policies WHERE policy_id = ?`, policyID)
}

// FindPolicyByJob retrieves the policy activated for a job
func (s *Storage) FindPolicyByJob(ctx context.Context, jobID string) (*domain.SafetyPolicy, error) {
	return s.getPolicy(ctx, `SELECT `+policyColumns+` FROM safety_policies WHERE job_id = ?`, jobID)
}

func (s *Storage) getPolicy(ctx context.Context, query string, arg string) (*domain.SafetyPolicy, error) {
	var policy domain.SafetyPolicy
	if err := s.db.GetContext(ctx, &policy, s.rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get safety policy: %w", err)
	}

	return &policy, nil
}

// ListPoliciesByWorker lists a worker's policies, most recent first
func (s *Storage) ListPoliciesByWorker(ctx context.Context, workerID string) ([]domain.SafetyPolicy, error) {
	query := s.rebind(`
		SELECT ` + policyColumns + `
		FROM safety_policies
		WHERE worker_id = ?
		ORDER BY activated_at DESC, policy_id DESC
	`)

	policies := []domain.SafetyPolicy{}
	if err := s.db.SelectContext(ctx, &policies, query, workerID); err != nil {
		return nil, fmt.Errorf("failed to list safety policies: %w", err)
	}

	for i := range policies {
		if len(policies[i].Coverage) == 0 {
			policies[i].Coverage = domain.DefaultCoverage()
		}
	}

	return policies, nil
}
