package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/internal/storage"
	"github.com/cuongbtq/swayam-be/internal/trust"
	"github.com/cuongbtq/swayam-be/shared/telemetry"
	"go.opentelemetry.io/otel/codes"
)

// ApplyResult identifies the job a worker now holds and the policy covering it
type ApplyResult struct {
	JobID      string
	PolicyID   string
	TrustScore int
	Policy     *domain.SafetyPolicy
}

// ApplyForJob assigns an open job to a worker whose trust score meets the
// job's threshold and activates the worker's safety policy for it.
//
// Exactly one of several concurrent applicants wins; the others receive an
// INVALID_STATE error and leave no trace. If the claim lands but the policy
// cannot be written the assignment stands, a repair is requested and an
// INCONSISTENT error is returned.
func (s *Service) ApplyForJob(ctx context.Context, jobID, workerID, workerName string) (*ApplyResult, error) {
	ctx, span := s.tracer.Start(ctx, "ApplyForJob")
	defer span.End()
	span.SetAttributes(
		telemetry.String("job.id", jobID),
		telemetry.String("worker.id", workerID),
	)

	result, err := s.apply(ctx, jobID, workerID, workerName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
		return nil, err
	}

	span.SetAttributes(telemetry.String("policy.id", result.PolicyID))
	return result, nil
}

func (s *Service) apply(ctx context.Context, jobID, workerID, workerName string) (*ApplyResult, error) {
	if jobID == "" || workerID == "" {
		return nil, domain.InvalidInput("job_id and worker_id are required", nil)
	}

	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, storeError("job not found", err)
	}

	if job.Status != domain.JobStatusOpen {
		return nil, domain.InvalidState("job already taken", nil)
	}

	worker, err := s.store.FindUser(ctx, workerID, domain.RoleWorker)
	if err != nil {
		return nil, storeError("worker not found", err)
	}

	score := trust.Score(trust.MetricsFor(worker))
	required := job.RequiredTrustScore(s.cfg.DefaultMinTrustScore)
	if score < required {
		s.logger.Info("Application rejected by trust gate",
			slog.String("job_id", jobID),
			slog.String("worker_id", workerID),
			slog.Int("trust_score", score),
			slog.Int("required_trust_score", required),
		)
		return nil, domain.Forbidden(required, score)
	}

	if workerName == "" {
		workerName = worker.Name
	}

	now := s.now()
	if err := s.claim(ctx, jobID, workerID, workerName, now); err != nil {
		return nil, err
	}

	s.logger.Info("Job assigned",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
		slog.Int("trust_score", score),
	)

	policy, err := s.persistPolicy(ctx, s.newPolicy(job, workerID, workerName, now))
	if err != nil {
		s.requestRepair(ctx, jobID, workerID, err)
		return nil, domain.Inconsistent(jobID, workerID, err)
	}

	s.logger.Info("Safety policy activated",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
		slog.String("policy_id", policy.PolicyID),
		slog.Float64("fee_paid", policy.FeePaid),
	)

	return &ApplyResult{
		JobID:      jobID,
		PolicyID:   policy.PolicyID,
		TrustScore: score,
		Policy:     policy,
	}, nil
}

// claim runs the conditional open -> assigned transition. A store error
// leaves the outcome unknown, so the job is re-read before any retry: a
// claim that landed is kept and one that lost the race is reported.
func (s *Service) claim(ctx context.Context, jobID, workerID, workerName string, at time.Time) error {
	attempts := s.cfg.ClaimRetries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, s.backoff(attempt-1)); err != nil {
				return domain.Unavailable("claim interrupted", errors.Join(lastErr, err))
			}
		}

		assigned, err := s.store.CompareAndAssignJob(ctx, jobID, domain.JobStatusOpen, workerID, workerName, at)
		if err == nil {
			if assigned {
				return nil
			}
			if attempt == 0 {
				return domain.InvalidState("job already taken", nil)
			}
			// an earlier ambiguous write may have been ours
			return s.resolveLostClaim(ctx, jobID, workerID, lastErr)
		}
		lastErr = err

		s.logger.Warn("Job claim outcome unknown, re-reading job",
			slog.String("job_id", jobID),
			slog.String("worker_id", workerID),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)

		job, findErr := s.store.FindJob(ctx, jobID)
		if findErr != nil {
			lastErr = errors.Join(err, findErr)
			continue
		}

		if job.IsAssignedTo(workerID) {
			s.logger.Info("Job claim landed despite store error",
				slog.String("job_id", jobID),
				slog.String("worker_id", workerID),
			)
			return nil
		}

		if job.Status != domain.JobStatusOpen {
			return domain.InvalidState("job already taken", nil)
		}
	}

	return domain.Unavailable(fmt.Sprintf("could not claim job after %d attempts", attempts), lastErr)
}

// resolveLostClaim decides a retried claim that matched no open job. The job
// is re-read so a write that committed behind an earlier error still counts.
func (s *Service) resolveLostClaim(ctx context.Context, jobID, workerID string, lastErr error) error {
	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return domain.Unavailable("claim outcome unknown", errors.Join(lastErr, err))
	}

	if job.IsAssignedTo(workerID) {
		s.logger.Info("Job claim landed despite store error",
			slog.String("job_id", jobID),
			slog.String("worker_id", workerID),
		)
		return nil
	}

	return domain.InvalidState("job already taken", nil)
}

// persistPolicy writes the policy with exponential backoff. A policy that
// already exists for the job wins over the new one.
func (s *Service) persistPolicy(ctx context.Context, policy *domain.SafetyPolicy) (*domain.SafetyPolicy, error) {
	attempts := s.cfg.PolicyInsertRetries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := s.store.InsertSafetyPolicy(ctx, policy)
		if err == nil {
			if attempt > 0 {
				s.logger.Info("Safety policy persisted after retry",
					slog.String("job_id", policy.JobID),
					slog.Int("attempt", attempt+1),
				)
			}
			return policy, nil
		}

		if errors.Is(err, storage.ErrDuplicate) {
			existing, findErr := s.store.FindPolicyByJob(ctx, policy.JobID)
			if findErr == nil {
				return existing, nil
			}
			err = findErr
		}
		lastErr = err

		if attempt < attempts-1 {
			delay := s.backoff(attempt)
			s.logger.Warn("Failed to persist safety policy, retrying...",
				slog.String("job_id", policy.JobID),
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", attempts),
				slog.Duration("retry_after", delay),
				slog.Any("error", err),
			)
			if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
				return nil, errors.Join(lastErr, sleepErr)
			}
		}
	}

	return nil, fmt.Errorf("failed to persist safety policy after %d attempts: %w", attempts, lastErr)
}

func (s *Service) requestRepair(ctx context.Context, jobID, workerID string, cause error) {
	s.logger.Error("Job assigned without safety policy",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
		slog.Any("error", cause),
	)

	if s.repairs == nil {
		return
	}

	// the request context may already be done
	repairCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.repairs.RequestPolicyRepair(repairCtx, jobID); err != nil {
		s.logger.Error("Failed to request policy repair, leaving it to the sweep",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
	}
}
