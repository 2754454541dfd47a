package marketplace_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/internal/marketplace"
	"github.com/cuongbtq/swayam-be/internal/testing/testdb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyForJob_SQLStore(t *testing.T) {
	store := testdb.New(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	employer := &domain.User{UserID: uuid.NewString(), Name: "Rajesh", Email: "r@e.com", Role: domain.RoleEmployer, CreatedAt: now}
	require.NoError(t, store.CreateUser(ctx, employer))

	const applicants = 6
	for i := 0; i < applicants; i++ {
		require.NoError(t, store.CreateUser(ctx, &domain.User{
			UserID:    fmt.Sprintf("w-%d", i),
			Name:      fmt.Sprintf("Worker %d", i),
			Email:     fmt.Sprintf("w%d@worker.com", i),
			Role:      domain.RoleWorker,
			CreatedAt: now,
		}))
	}

	job := &domain.Job{
		JobID:        uuid.NewString(),
		Title:        "Elderly Care",
		Category:     "Caregiving",
		Location:     "Mumbai",
		Pay:          800,
		Duration:     domain.DefaultDuration,
		EmployerID:   employer.UserID,
		EmployerName: employer.Name,
		Status:       domain.JobStatusOpen,
		SafetyFee:    2,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.CreateJob(ctx, job))

	svc := marketplace.NewService(store, nil, marketplace.DefaultConfig(), testdb.DiscardLogger())

	var wg sync.WaitGroup
	results := make([]*marketplace.ApplyResult, applicants)
	errs := make([]error, applicants)
	for i := 0; i < applicants; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = svc.ApplyForJob(ctx, job.JobID, fmt.Sprintf("w-%d", n), "")
		}(i)
	}
	wg.Wait()

	var winner *marketplace.ApplyResult
	for i, err := range errs {
		if err == nil {
			require.Nil(t, winner, "more than one applicant won")
			winner = results[i]
			continue
		}
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	}
	require.NotNil(t, winner)

	got, err := store.FindJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusAssigned, got.Status)

	policy, err := store.FindPolicyByJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, winner.PolicyID, policy.PolicyID)
	assert.Equal(t, *got.WorkerID, policy.WorkerID)

	completed, err := svc.CompleteJob(ctx, job.JobID, employer.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, completed.Status)

	// nothing left to repair
	missing, err := store.ListJobsMissingPolicy(ctx, time.Now().UTC().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, missing)
}
