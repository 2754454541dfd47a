package marketplace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/internal/storage"
)

var errStoreDown = errors.New("connection reset by peer")

// fakeStore keeps records in memory. The assign and insert hooks let tests
// inject failures; assign hooks may still apply the write.
type fakeStore struct {
	mu       sync.Mutex
	jobs     map[string]*domain.Job
	users    map[string]*domain.User
	policies map[string]*domain.SafetyPolicy

	findCalls   int
	assignCalls int
	insertCalls int

	// onAssign runs before the conditional write. Returning apply=false
	// skips the write; a non-nil error is returned to the caller.
	onAssign func(call int) (apply bool, err error)
	// onInsert returns an error to fail the insert for the given call
	onInsert func(call int) error
	// onFind returns an error to fail the job lookup for the given call
	onFind func(call int) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:     map[string]*domain.Job{},
		users:    map[string]*domain.User{},
		policies: map[string]*domain.SafetyPolicy{},
	}
}

func (f *fakeStore) addJob(job *domain.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.JobID] = job
}

func (f *fakeStore) addUser(user *domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.UserID] = user
}

func (f *fakeStore) job(jobID string) domain.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.jobs[jobID]
}

func (f *fakeStore) policyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.policies)
}

func (f *fakeStore) FindJob(_ context.Context, jobID string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.findCalls++
	if f.onFind != nil {
		if err := f.onFind(f.findCalls); err != nil {
			return nil, err
		}
	}

	job, ok := f.jobs[jobID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (f *fakeStore) CompareAndAssignJob(_ context.Context, jobID, expectedStatus, workerID, workerName string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.assignCalls++
	apply, hookErr := true, error(nil)
	if f.onAssign != nil {
		apply, hookErr = f.onAssign(f.assignCalls)
	}

	job, ok := f.jobs[jobID]
	if apply && ok && job.Status == expectedStatus {
		job.Status = domain.JobStatusAssigned
		job.WorkerID = &workerID
		job.WorkerName = &workerName
		job.AssignedAt = &at
		job.UpdatedAt = at
		if hookErr != nil {
			return false, hookErr
		}
		return true, nil
	}

	if hookErr != nil {
		return false, hookErr
	}
	return false, nil
}

func (f *fakeStore) CompleteJob(_ context.Context, jobID, employerID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[jobID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if job.EmployerID != employerID || job.Status != domain.JobStatusAssigned {
		return false, nil
	}

	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &at
	if worker, ok := f.users[*job.WorkerID]; ok {
		worker.CompletedJobs++
	}
	return true, nil
}

func (f *fakeStore) FindUser(_ context.Context, userID, role string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok || (role != "" && user.Role != role) {
		return nil, storage.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeStore) InsertSafetyPolicy(_ context.Context, policy *domain.SafetyPolicy) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls++
	if f.onInsert != nil {
		if err := f.onInsert(f.insertCalls); err != nil {
			return err
		}
	}

	if _, exists := f.policies[policy.JobID]; exists {
		return storage.ErrDuplicate
	}
	cp := *policy
	f.policies[policy.JobID] = &cp
	return nil
}

func (f *fakeStore) FindPolicyByJob(_ context.Context, jobID string) (*domain.SafetyPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	policy, ok := f.policies[jobID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *policy
	return &cp, nil
}

type fakeRepairQueue struct {
	mu   sync.Mutex
	jobs []string
	err  error
}

func (q *fakeRepairQueue) RequestPolicyRepair(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, jobID)
	return q.err
}
