package domain

import "time"

// Job is a posted piece of work and the owner of its own lifecycle status.
// WorkerID is set if and only if Status is not open.
type Job struct {
	JobID         string     `db:"job_id" json:"job_id"`
	Title         string     `db:"title" json:"title"`
	Category      string     `db:"category" json:"category"`
	Description   string     `db:"description" json:"description"`
	Location      string     `db:"location" json:"location"`
	Pay           float64    `db:"pay" json:"pay"`
	Duration      string     `db:"duration" json:"duration"`
	EmployerID    string     `db:"employer_id" json:"employer_id"`
	EmployerName  string     `db:"employer_name" json:"employer_name"`
	Status        string     `db:"status" json:"status"`
	WorkerID      *string    `db:"worker_id" json:"worker_id,omitempty"`
	WorkerName    *string    `db:"worker_name" json:"worker_name,omitempty"`
	SafetyFee     float64    `db:"safety_fee" json:"safety_fee"`
	MinTrustScore *int       `db:"min_trust_score" json:"min_trust_score,omitempty"`
	AssignedAt    *time.Time `db:"assigned_at" json:"assigned_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// RequiredTrustScore returns the job's threshold or fallback when the job sets none
func (j *Job) RequiredTrustScore(fallback int) int {
	if j.MinTrustScore != nil {
		return *j.MinTrustScore
	}
	return fallback
}

// IsAssignedTo reports whether the job is held by workerID
func (j *Job) IsAssignedTo(workerID string) bool {
	return j.Status != JobStatusOpen && j.WorkerID != nil && *j.WorkerID == workerID
}
