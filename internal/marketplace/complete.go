package marketplace

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/shared/telemetry"
)

// CompleteJob lets the employer who posted an assigned job mark it
// completed. The worker is credited with a completed job.
func (s *Service) CompleteJob(ctx context.Context, jobID, employerID string) (*domain.Job, error) {
	ctx, span := s.tracer.Start(ctx, "CompleteJob")
	defer span.End()
	span.SetAttributes(
		telemetry.String("job.id", jobID),
		telemetry.String("employer.id", employerID),
	)

	if jobID == "" || employerID == "" {
		return nil, domain.InvalidInput("job_id and employer_id are required", nil)
	}

	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, storeError("job not found", err)
	}

	if job.EmployerID != employerID {
		return nil, domain.NewError(domain.KindForbidden, "only the posting employer can complete this job", nil)
	}

	if job.Status != domain.JobStatusAssigned {
		return nil, domain.InvalidState("job is not assigned", nil)
	}

	completed, err := s.store.CompleteJob(ctx, jobID, employerID, s.now())
	if err != nil {
		return nil, storeError("job not found", err)
	}
	if !completed {
		return nil, domain.InvalidState("job is not assigned", nil)
	}

	s.logger.Info("Job completed",
		slog.String("job_id", jobID),
		slog.String("employer_id", employerID),
	)

	job, err = s.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, storeError("job not found", err)
	}
	return job, nil
}
