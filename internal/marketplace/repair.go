package marketplace

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/internal/storage"
	"github.com/cuongbtq/swayam-be/shared/telemetry"
)

// RepairPolicy makes sure an assigned or completed job has its safety
// policy. It is idempotent: an existing policy is returned untouched.
func (s *Service) RepairPolicy(ctx context.Context, jobID string) (*domain.SafetyPolicy, error) {
	ctx, span := s.tracer.Start(ctx, "RepairPolicy")
	defer span.End()
	span.SetAttributes(telemetry.String("job.id", jobID))

	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, storeError("job not found", err)
	}

	if job.Status == domain.JobStatusOpen || job.WorkerID == nil {
		return nil, domain.InvalidState("job has no assignment to cover", nil)
	}

	existing, err := s.store.FindPolicyByJob(ctx, jobID)
	if err == nil {
		span.SetAttributes(telemetry.Bool("policy.existing", true))
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, storeError("policy lookup failed", err)
	}

	workerName := ""
	if job.WorkerName != nil {
		workerName = *job.WorkerName
	}

	activatedAt := s.now()
	if job.AssignedAt != nil {
		activatedAt = *job.AssignedAt
	}

	policy, err := s.persistPolicy(ctx, s.newPolicy(job, *job.WorkerID, workerName, activatedAt))
	if err != nil {
		return nil, domain.Unavailable("could not persist safety policy", err)
	}

	s.logger.Info("Safety policy repaired",
		slog.String("job_id", jobID),
		slog.String("worker_id", *job.WorkerID),
		slog.String("policy_id", policy.PolicyID),
	)

	span.SetAttributes(telemetry.String("policy.id", policy.PolicyID))
	return policy, nil
}
