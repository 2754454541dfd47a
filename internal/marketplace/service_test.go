package marketplace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func newTestService(store Store, repairs RepairQueue) *Service {
	cfg := DefaultConfig()
	cfg.RetryInterval = time.Millisecond

	svc := NewService(store, repairs, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return fixedNow }
	svc.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	ids := 0
	var mu sync.Mutex
	svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		ids++
		return fmt.Sprintf("policy-%d", ids)
	}
	return svc
}

// seed stores an open job and a worker with default metrics (score 85)
func seed(store *fakeStore) (*domain.Job, *domain.User) {
	job := &domain.Job{
		JobID:        "job-1",
		Title:        "House Cleaning",
		Category:     "Cleaning",
		Location:     "Delhi",
		Pay:          500,
		EmployerID:   "employer-1",
		EmployerName: "Rajesh Kumar",
		Status:       domain.JobStatusOpen,
		SafetyFee:    2,
		CreatedAt:    fixedNow.Add(-time.Hour),
		UpdatedAt:    fixedNow.Add(-time.Hour),
	}
	worker := &domain.User{
		UserID: "worker-1",
		Name:   "Priya Sharma",
		Role:   domain.RoleWorker,
	}
	store.addJob(job)
	store.addUser(worker)
	return job, worker
}

func TestApplyForJob_Success(t *testing.T) {
	store := newFakeStore()
	job, worker := seed(store)
	svc := newTestService(store, nil)

	result, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")
	require.NoError(t, err)

	assert.Equal(t, job.JobID, result.JobID)
	assert.Equal(t, "policy-1", result.PolicyID)
	assert.Equal(t, 85, result.TrustScore)

	got := store.job(job.JobID)
	assert.Equal(t, domain.JobStatusAssigned, got.Status)
	require.NotNil(t, got.WorkerID)
	assert.Equal(t, worker.UserID, *got.WorkerID)
	assert.Equal(t, worker.Name, *got.WorkerName)
	assert.Equal(t, fixedNow, *got.AssignedAt)

	require.Equal(t, 1, store.policyCount())
	policy, err := store.FindPolicyByJob(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, result.PolicyID, policy.PolicyID)
	assert.Equal(t, job.Title, policy.JobTitle)
	assert.Equal(t, worker.UserID, policy.WorkerID)
	assert.Equal(t, worker.Name, policy.WorkerName)
	assert.Equal(t, 2.0, policy.FeePaid)
	assert.Equal(t, domain.DefaultCoverage(), policy.Coverage)
	assert.Equal(t, fixedNow, policy.ActivatedAt)
	assert.Equal(t, domain.PolicyStatusActive, policy.Status)
}

func TestApplyForJob_FeeAndNameDefaults(t *testing.T) {
	store := newFakeStore()
	job, worker := seed(store)
	job.SafetyFee = 0
	svc := newTestService(store, nil)
	svc.cfg.DefaultSafetyFee = 3.5

	result, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "Priya S.")
	require.NoError(t, err)

	assert.Equal(t, 3.5, result.Policy.FeePaid)
	assert.Equal(t, "Priya S.", result.Policy.WorkerName)
	assert.Equal(t, "Priya S.", *store.job(job.JobID).WorkerName)
}

func TestApplyForJob_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(store *fakeStore, job *domain.Job, worker *domain.User)
		jobID    string
		workerID string
		wantKind domain.Kind
	}{
		{
			name:     "missing ids",
			jobID:    "",
			workerID: "worker-1",
			wantKind: domain.KindInvalidInput,
		},
		{
			name:     "unknown job",
			jobID:    "job-404",
			workerID: "worker-1",
			wantKind: domain.KindNotFound,
		},
		{
			name:     "unknown worker",
			jobID:    "job-1",
			workerID: "worker-404",
			wantKind: domain.KindNotFound,
		},
		{
			name: "applicant is an employer",
			setup: func(store *fakeStore, _ *domain.Job, _ *domain.User) {
				store.addUser(&domain.User{UserID: "employer-2", Name: "E", Role: domain.RoleEmployer})
			},
			jobID:    "job-1",
			workerID: "employer-2",
			wantKind: domain.KindNotFound,
		},
		{
			name: "job already assigned",
			setup: func(_ *fakeStore, job *domain.Job, _ *domain.User) {
				other := "worker-9"
				job.Status = domain.JobStatusAssigned
				job.WorkerID = &other
			},
			jobID:    "job-1",
			workerID: "worker-1",
			wantKind: domain.KindInvalidState,
		},
		{
			name: "job completed",
			setup: func(_ *fakeStore, job *domain.Job, _ *domain.User) {
				other := "worker-9"
				job.Status = domain.JobStatusCompleted
				job.WorkerID = &other
			},
			jobID:    "job-1",
			workerID: "worker-1",
			wantKind: domain.KindInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			job, worker := seed(store)
			if tt.setup != nil {
				tt.setup(store, job, worker)
			}
			before := store.job("job-1")
			svc := newTestService(store, nil)

			result, err := svc.ApplyForJob(context.Background(), tt.jobID, tt.workerID, "")

			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
			assert.Equal(t, before, store.job("job-1"))
			assert.Equal(t, 0, store.policyCount())
		})
	}
}

func TestApplyForJob_TrustGate(t *testing.T) {
	tests := []struct {
		name         string
		minTrust     *int
		defaultTrust int
		worker       domain.User
		wantRequired int
		wantActual   int
		allowed      bool
	}{
		{
			name:         "new worker passes default threshold",
			defaultTrust: 40,
			worker:       domain.User{},
			allowed:      true,
		},
		{
			name:         "job threshold above score",
			minTrust:     intPtr(90),
			defaultTrust: 40,
			worker:       domain.User{},
			wantRequired: 90,
			wantActual:   85,
		},
		{
			name:         "configured default above score",
			defaultTrust: 80,
			worker:       domain.User{Rating: floatPtr(3.0), SafetyScore: intPtr(50)},
			wantRequired: 80,
			wantActual:   65,
		},
		{
			name:         "score equal to threshold passes",
			minTrust:     intPtr(85),
			defaultTrust: 40,
			worker:       domain.User{},
			allowed:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			job, _ := seed(store)
			job.MinTrustScore = tt.minTrust
			worker := tt.worker
			worker.UserID = "worker-2"
			worker.Name = "Anjali"
			worker.Role = domain.RoleWorker
			store.addUser(&worker)

			svc := newTestService(store, nil)
			svc.cfg.DefaultMinTrustScore = tt.defaultTrust
			before := store.job(job.JobID)

			_, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")

			if tt.allowed {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

			var gate *domain.TrustGateError
			require.True(t, errors.As(err, &gate))
			assert.Equal(t, tt.wantRequired, gate.Required)
			assert.Equal(t, tt.wantActual, gate.Actual)

			assert.Equal(t, before, store.job(job.JobID))
			assert.Equal(t, 0, store.assignCalls)
			assert.Equal(t, 0, store.policyCount())
		})
	}
}

func TestApplyForJob_ConcurrentApplicants(t *testing.T) {
	store := newFakeStore()
	job, _ := seed(store)
	svc := newTestService(store, nil)

	const applicants = 16
	for i := 0; i < applicants; i++ {
		store.addUser(&domain.User{
			UserID: fmt.Sprintf("applicant-%d", i),
			Name:   fmt.Sprintf("Applicant %d", i),
			Role:   domain.RoleWorker,
		})
	}

	var wg sync.WaitGroup
	errs := make([]error, applicants)
	start := make(chan struct{})

	for i := 0; i < applicants; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			_, errs[n] = svc.ApplyForJob(context.Background(), job.JobID, fmt.Sprintf("applicant-%d", n), "")
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	}

	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, store.policyCount())

	got := store.job(job.JobID)
	policy, err := store.FindPolicyByJob(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, *got.WorkerID, policy.WorkerID)
}

func TestApplyForJob_AmbiguousClaim(t *testing.T) {
	t.Run("write landed", func(t *testing.T) {
		store := newFakeStore()
		job, worker := seed(store)
		store.onAssign = func(int) (bool, error) { return true, errStoreDown }
		svc := newTestService(store, nil)

		result, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")
		require.NoError(t, err)

		assert.Equal(t, 1, store.assignCalls)
		assert.Equal(t, 1, store.policyCount())
		assert.Equal(t, job.JobID, result.JobID)
	})

	t.Run("write lost then retried", func(t *testing.T) {
		store := newFakeStore()
		job, worker := seed(store)
		store.onAssign = func(call int) (bool, error) {
			if call == 1 {
				return false, errStoreDown
			}
			return true, nil
		}
		svc := newTestService(store, nil)

		_, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")
		require.NoError(t, err)

		assert.Equal(t, 2, store.assignCalls)
		assert.Equal(t, worker.UserID, *store.job(job.JobID).WorkerID)
	})

	t.Run("another worker won meanwhile", func(t *testing.T) {
		store := newFakeStore()
		job, worker := seed(store)
		store.onAssign = func(int) (bool, error) {
			other := "worker-9"
			store.jobs[job.JobID].Status = domain.JobStatusAssigned
			store.jobs[job.JobID].WorkerID = &other
			return false, errStoreDown
		}
		svc := newTestService(store, nil)

		_, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")
		require.Error(t, err)

		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
		assert.Equal(t, 1, store.assignCalls)
		assert.Equal(t, 0, store.policyCount())
	})

	t.Run("write landed while re-read failed", func(t *testing.T) {
		store := newFakeStore()
		job, worker := seed(store)
		store.onAssign = func(call int) (bool, error) {
			if call == 1 {
				return true, errStoreDown
			}
			return true, nil
		}
		// first lookup is the apply precheck, the re-read fails once
		store.onFind = func(call int) error {
			if call == 2 {
				return errStoreDown
			}
			return nil
		}
		svc := newTestService(store, nil)

		result, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")
		require.NoError(t, err)

		assert.Equal(t, 2, store.assignCalls)
		assert.Equal(t, domain.JobStatusAssigned, store.job(job.JobID).Status)
		assert.Equal(t, worker.UserID, *store.job(job.JobID).WorkerID)
		assert.Equal(t, 1, store.policyCount())
		assert.Equal(t, job.JobID, result.JobID)
	})

	t.Run("write landed and store stays unreadable", func(t *testing.T) {
		store := newFakeStore()
		job, worker := seed(store)
		store.onAssign = func(call int) (bool, error) {
			if call == 1 {
				return true, errStoreDown
			}
			return true, nil
		}
		store.onFind = func(call int) error {
			if call > 1 {
				return errStoreDown
			}
			return nil
		}
		svc := newTestService(store, nil)

		_, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")
		require.Error(t, err)

		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
		assert.ErrorIs(t, err, errStoreDown)
		assert.Equal(t, worker.UserID, *store.job(job.JobID).WorkerID)
	})

	t.Run("store stays down", func(t *testing.T) {
		store := newFakeStore()
		job, worker := seed(store)
		store.onAssign = func(int) (bool, error) { return false, errStoreDown }
		svc := newTestService(store, nil)

		_, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")
		require.Error(t, err)

		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
		assert.ErrorIs(t, err, errStoreDown)
		assert.Equal(t, svc.cfg.ClaimRetries+1, store.assignCalls)
		assert.Equal(t, domain.JobStatusOpen, store.job(job.JobID).Status)
		assert.Equal(t, 0, store.policyCount())
	})
}

func TestApplyForJob_PolicyInsertRetries(t *testing.T) {
	store := newFakeStore()
	job, worker := seed(store)
	store.onInsert = func(call int) error {
		if call < 3 {
			return errStoreDown
		}
		return nil
	}
	svc := newTestService(store, nil)

	result, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")
	require.NoError(t, err)

	assert.Equal(t, 3, store.insertCalls)
	assert.Equal(t, 1, store.policyCount())
	assert.NotEmpty(t, result.PolicyID)
}

func TestApplyForJob_DuplicatePolicyResolves(t *testing.T) {
	store := newFakeStore()
	job, worker := seed(store)
	existing := &domain.SafetyPolicy{
		PolicyID: "policy-existing",
		JobID:    job.JobID,
		WorkerID: worker.UserID,
		Status:   domain.PolicyStatusActive,
	}
	store.policies[job.JobID] = existing
	svc := newTestService(store, nil)

	result, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")
	require.NoError(t, err)

	assert.Equal(t, "policy-existing", result.PolicyID)
	assert.Equal(t, 1, store.policyCount())
}

func TestApplyForJob_PolicyRetriesExhausted(t *testing.T) {
	store := newFakeStore()
	job, worker := seed(store)
	store.onInsert = func(int) error { return errStoreDown }
	repairs := &fakeRepairQueue{}
	svc := newTestService(store, repairs)

	result, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")
	require.Error(t, err)
	assert.Nil(t, result)

	assert.Equal(t, domain.KindInconsistent, domain.KindOf(err))
	var inconsistency *domain.InconsistencyError
	require.True(t, errors.As(err, &inconsistency))
	assert.Equal(t, job.JobID, inconsistency.JobID)
	assert.Equal(t, worker.UserID, inconsistency.WorkerID)
	assert.ErrorIs(t, err, errStoreDown)

	assert.Equal(t, svc.cfg.PolicyInsertRetries+1, store.insertCalls)
	assert.Equal(t, domain.JobStatusAssigned, store.job(job.JobID).Status)
	assert.Equal(t, []string{job.JobID}, repairs.jobs)

	// the reconciler later fills the gap
	store.onInsert = nil
	policy, err := svc.RepairPolicy(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, worker.UserID, policy.WorkerID)
	assert.Equal(t, fixedNow, policy.ActivatedAt)
	assert.Equal(t, 1, store.policyCount())
}

func TestApplyForJob_RepairQueueFailureIsLogged(t *testing.T) {
	store := newFakeStore()
	job, worker := seed(store)
	store.onInsert = func(int) error { return errStoreDown }
	repairs := &fakeRepairQueue{err: errors.New("broker down")}
	svc := newTestService(store, repairs)

	_, err := svc.ApplyForJob(context.Background(), job.JobID, worker.UserID, "")

	assert.Equal(t, domain.KindInconsistent, domain.KindOf(err))
	assert.Len(t, repairs.jobs, 1)
}

func TestRepairPolicy(t *testing.T) {
	t.Run("open job", func(t *testing.T) {
		store := newFakeStore()
		job, _ := seed(store)
		svc := newTestService(store, nil)

		_, err := svc.RepairPolicy(context.Background(), job.JobID)
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
		assert.Equal(t, 0, store.policyCount())
	})

	t.Run("unknown job", func(t *testing.T) {
		svc := newTestService(newFakeStore(), nil)

		_, err := svc.RepairPolicy(context.Background(), "job-404")
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("idempotent", func(t *testing.T) {
		store := newFakeStore()
		job, worker := seed(store)
		name := worker.Name
		assignedAt := fixedNow.Add(-10 * time.Minute)
		job.Status = domain.JobStatusAssigned
		job.WorkerID = &worker.UserID
		job.WorkerName = &name
		job.AssignedAt = &assignedAt
		svc := newTestService(store, nil)

		first, err := svc.RepairPolicy(context.Background(), job.JobID)
		require.NoError(t, err)
		assert.Equal(t, assignedAt, first.ActivatedAt)
		assert.Equal(t, name, first.WorkerName)

		second, err := svc.RepairPolicy(context.Background(), job.JobID)
		require.NoError(t, err)
		assert.Equal(t, first.PolicyID, second.PolicyID)
		assert.Equal(t, 1, store.insertCalls)
		assert.Equal(t, 1, store.policyCount())
	})

	t.Run("store down", func(t *testing.T) {
		store := newFakeStore()
		job, worker := seed(store)
		job.Status = domain.JobStatusAssigned
		job.WorkerID = &worker.UserID
		store.onInsert = func(int) error { return errStoreDown }
		svc := newTestService(store, nil)

		_, err := svc.RepairPolicy(context.Background(), job.JobID)
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
		assert.ErrorIs(t, err, errStoreDown)
	})
}

func TestCompleteJob(t *testing.T) {
	store := newFakeStore()
	job, worker := seed(store)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_, err := svc.CompleteJob(ctx, job.JobID, job.EmployerID)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err), "open job")

	_, err = svc.ApplyForJob(ctx, job.JobID, worker.UserID, "")
	require.NoError(t, err)

	_, err = svc.CompleteJob(ctx, job.JobID, "employer-other")
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = svc.CompleteJob(ctx, "job-404", job.EmployerID)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = svc.CompleteJob(ctx, "", job.EmployerID)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	completed, err := svc.CompleteJob(ctx, job.JobID, job.EmployerID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, completed.Status)
	assert.Equal(t, fixedNow, *completed.CompletedAt)

	w, err := store.FindUser(ctx, worker.UserID, domain.RoleWorker)
	require.NoError(t, err)
	assert.Equal(t, 1, w.CompletedJobs)

	_, err = svc.CompleteJob(ctx, job.JobID, job.EmployerID)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err), "already completed")
}

func TestBackoff(t *testing.T) {
	svc := NewService(newFakeStore(), nil, Config{
		RetryInterval:     100 * time.Millisecond,
		BackoffMultiplier: 2,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, 100*time.Millisecond, svc.backoff(0))
	assert.Equal(t, 200*time.Millisecond, svc.backoff(1))
	assert.Equal(t, 400*time.Millisecond, svc.backoff(2))
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Microsecond))
}
