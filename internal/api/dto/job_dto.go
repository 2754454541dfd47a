package dto

import (
	"time"

	"github.com/cuongbtq/swayam-be/internal/domain"
)

type CreateJobRequest struct {
	Title         string  `json:"title" binding:"required"`
	Category      string  `json:"category" binding:"required"`
	Description   string  `json:"description"`
	Location      string  `json:"location" binding:"required"`
	Pay           float64 `json:"pay" binding:"required"`
	Duration      string  `json:"duration"`
	EmployerID    string  `json:"employer_id" binding:"required"`
	SafetyFee     float64 `json:"safety_fee" binding:"gte=0"`
	MinTrustScore *int    `json:"min_trust_score" binding:"omitempty,min=0,max=100"`
}

type ListJobsRequest struct {
	Status     string `form:"status"`
	Category   string `form:"category"`
	EmployerID string `form:"employer_id"`
	WorkerID   string `form:"worker_id"`
	PageSize   int    `form:"page_size"`
	Cursor     string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type ApplyJobRequest struct {
	WorkerID   string `json:"worker_id" binding:"required"`
	WorkerName string `json:"worker_name"`
}

type ApplyJobResponse struct {
	Message      string `json:"message"`
	JobID        string `json:"job_id"`
	PolicyID     string `json:"policy_id,omitempty"`
	TrustScore   int    `json:"trust_score,omitempty"`
	PolicyStatus string `json:"policy_status"`
}

type CompleteJobRequest struct {
	EmployerID string `json:"employer_id" binding:"required"`
}

type JobDTO struct {
	JobID         string  `json:"job_id"`
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Location      string  `json:"location"`
	Pay           float64 `json:"pay"`
	Duration      string  `json:"duration"`
	EmployerID    string  `json:"employer_id"`
	EmployerName  string  `json:"employer_name"`
	Status        string  `json:"status"`
	WorkerID      *string `json:"worker_id,omitempty"`
	WorkerName    *string `json:"worker_name,omitempty"`
	SafetyFee     float64 `json:"safety_fee"`
	MinTrustScore *int    `json:"min_trust_score,omitempty"`
	AssignedAt    string  `json:"assigned_at,omitempty"`
	CompletedAt   string  `json:"completed_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// NewJobDTO renders a job for the API
func NewJobDTO(job *domain.Job) JobDTO {
	return JobDTO{
		JobID:         job.JobID,
		Title:         job.Title,
		Category:      job.Category,
		Description:   job.Description,
		Location:      job.Location,
		Pay:           job.Pay,
		Duration:      job.Duration,
		EmployerID:    job.EmployerID,
		EmployerName:  job.EmployerName,
		Status:        job.Status,
		WorkerID:      job.WorkerID,
		WorkerName:    job.WorkerName,
		SafetyFee:     job.SafetyFee,
		MinTrustScore: job.MinTrustScore,
		AssignedAt:    formatTime(job.AssignedAt),
		CompletedAt:   formatTime(job.CompletedAt),
		CreatedAt:     job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     job.UpdatedAt.Format(time.RFC3339),
	}
}

// NewJobDTOs renders a list of jobs
func NewJobDTOs(jobs []domain.Job) []JobDTO {
	out := make([]JobDTO, len(jobs))
	for i := range jobs {
		out[i] = NewJobDTO(&jobs[i])
	}
	return out
}
