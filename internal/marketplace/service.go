// Package marketplace runs the job application workflow: the trust gate,
// the atomic claim of an open job and the creation of the worker's safety
// policy.
package marketplace

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/internal/storage"
	"github.com/cuongbtq/swayam-be/shared/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Store is the slice of the record store the workflow depends on
type Store interface {
	FindJob(ctx context.Context, jobID string) (*domain.Job, error)
	CompareAndAssignJob(ctx context.Context, jobID, expectedStatus, workerID, workerName string, at time.Time) (bool, error)
	CompleteJob(ctx context.Context, jobID, employerID string, at time.Time) (bool, error)
	FindUser(ctx context.Context, userID, role string) (*domain.User, error)
	InsertSafetyPolicy(ctx context.Context, policy *domain.SafetyPolicy) error
	FindPolicyByJob(ctx context.Context, jobID string) (*domain.SafetyPolicy, error)
}

// RepairQueue accepts jobs that were assigned without a persisted policy
type RepairQueue interface {
	RequestPolicyRepair(ctx context.Context, jobID string) error
}

// Config tunes the workflow
type Config struct {
	DefaultMinTrustScore int
	DefaultSafetyFee     float64
	ClaimRetries         int
	PolicyInsertRetries  int
	RetryInterval        time.Duration
	BackoffMultiplier    float64
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		DefaultMinTrustScore: domain.DefaultMinTrustScore,
		DefaultSafetyFee:     domain.DefaultSafetyFee,
		ClaimRetries:         2,
		PolicyInsertRetries:  3,
		RetryInterval:        100 * time.Millisecond,
		BackoffMultiplier:    2.0,
	}
}

// Service coordinates job applications against a Store
type Service struct {
	store   Store
	repairs RepairQueue
	cfg     Config
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
	newID   func() string
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewService creates a workflow service. repairs may be nil, in which case
// unrepaired assignments are only logged and left to the periodic sweep.
func NewService(store Store, repairs RepairQueue, cfg Config, logger *slog.Logger) *Service {
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = 2.0
	}
	if cfg.ClaimRetries < 0 {
		cfg.ClaimRetries = 0
	}
	if cfg.PolicyInsertRetries < 0 {
		cfg.PolicyInsertRetries = 0
	}

	return &Service{
		store:   store,
		repairs: repairs,
		cfg:     cfg,
		logger:  logger,
		tracer:  telemetry.GetTracer("swayam/marketplace"),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:   uuid.NewString,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoff returns the delay before retry number attempt (zero based)
func (s *Service) backoff(attempt int) time.Duration {
	return time.Duration(float64(s.cfg.RetryInterval) * math.Pow(s.cfg.BackoffMultiplier, float64(attempt)))
}

// storeError maps a store failure onto the canonical error kinds
func storeError(message string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NotFound(message, err)
	}
	return domain.Unavailable("store unavailable", err)
}

// safetyFee is the fee charged for a job's policy
func (s *Service) safetyFee(job *domain.Job) float64 {
	if job.SafetyFee > 0 {
		return job.SafetyFee
	}
	return s.cfg.DefaultSafetyFee
}

func (s *Service) newPolicy(job *domain.Job, workerID, workerName string, at time.Time) *domain.SafetyPolicy {
	return &domain.SafetyPolicy{
		PolicyID:    s.newID(),
		JobID:       job.JobID,
		JobTitle:    job.Title,
		WorkerID:    workerID,
		WorkerName:  workerName,
		FeePaid:     s.safetyFee(job),
		Coverage:    domain.DefaultCoverage(),
		ActivatedAt: at,
		Status:      domain.PolicyStatusActive,
	}
}
