package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cuongbtq/swayam-be/internal/api/dto"
	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateJob handles POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		badRequest(c, "Invalid request body")
		return
	}

	employer, err := h.storage.FindUser(c.Request.Context(), req.EmployerID, domain.RoleEmployer)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, h.logger, domain.NotFound("employer not found", err))
			return
		}
		respondError(c, h.logger, domain.Unavailable("store unavailable", err))
		return
	}

	duration := strings.TrimSpace(req.Duration)
	if duration == "" {
		duration = domain.DefaultDuration
	}

	safetyFee := req.SafetyFee
	if safetyFee == 0 {
		safetyFee = domain.DefaultSafetyFee
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	job := domain.Job{
		JobID:         uuid.NewString(),
		Title:         req.Title,
		Category:      req.Category,
		Description:   req.Description,
		Location:      req.Location,
		Pay:           req.Pay,
		Duration:      duration,
		EmployerID:    employer.UserID,
		EmployerName:  employer.Name,
		Status:        domain.JobStatusOpen,
		SafetyFee:     safetyFee,
		MinTrustScore: req.MinTrustScore,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.storage.CreateJob(c.Request.Context(), &job); err != nil {
		respondError(c, h.logger, domain.Unavailable("failed to create job", err))
		return
	}

	h.logger.Info("Job created",
		slog.String("job_id", job.JobID),
		slog.String("employer_id", job.EmployerID),
		slog.String("category", job.Category),
	)

	c.JSON(http.StatusCreated, dto.NewJobDTO(&job))
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		badRequest(c, "job_id must be a valid UUID")
		return
	}

	job, err := h.storage.FindJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, h.logger, domain.NotFound("job not found", err))
			return
		}
		respondError(c, h.logger, domain.Unavailable("failed to get job", err))
		return
	}

	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs newest first with optional filters and cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Invalid query parameters", slog.String("error", err.Error()))
		badRequest(c, "Invalid query parameters")
		return
	}

	if req.Status != "" && !domain.IsValidJobStatus(req.Status) {
		badRequest(c, "status must be one of open, assigned, completed")
		return
	}

	h.listJobs(c, req)
}

// ListWorkerJobs handles GET /api/v1/workers/:worker_id/jobs
func (h *JobHandler) ListWorkerJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	req.WorkerID = c.Param("worker_id")
	req.EmployerID = ""
	h.listJobs(c, req)
}

func (h *JobHandler) listJobs(c *gin.Context, req dto.ListJobsRequest) {
	if req.PageSize <= 0 {
		req.PageSize = h.defaultPageSize
	}

	if req.PageSize > h.maxPageSize {
		req.PageSize = h.maxPageSize
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Warn("Invalid cursor", slog.String("error", err.Error()))
		badRequest(c, "Invalid cursor")
		return
	}

	filter := storage.JobFilter{
		Status:     req.Status,
		Category:   req.Category,
		EmployerID: req.EmployerID,
		WorkerID:   req.WorkerID,
		PageSize:   req.PageSize,
		Cursor:     cursor,
	}

	jobs, err := h.storage.ListJobs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, domain.Unavailable("failed to list jobs", err))
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&storage.JobCursor{
			CreatedAt: lastJob.CreatedAt,
			JobID:     lastJob.JobID,
		})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       dto.NewJobDTOs(jobs),
		NextCursor: nextCursor,
	})
}

// ApplyForJob handles POST /api/v1/jobs/:job_id/apply
// Assigns the job to the worker and activates their safety policy
func (h *JobHandler) ApplyForJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		badRequest(c, "job_id must be a valid UUID")
		return
	}

	var req dto.ApplyJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := h.marketplace.ApplyForJob(c.Request.Context(), jobID, req.WorkerID, req.WorkerName)
	if err != nil {
		if domain.IsKind(err, domain.KindInconsistent) {
			// the assignment stands; the policy is written by reconciliation
			c.JSON(http.StatusAccepted, dto.ApplyJobResponse{
				Message:      "Job accepted, safety policy activation pending",
				JobID:        jobID,
				PolicyStatus: "pending_reconciliation",
			})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ApplyJobResponse{
		Message:      "Job accepted successfully",
		JobID:        result.JobID,
		PolicyID:     result.PolicyID,
		TrustScore:   result.TrustScore,
		PolicyStatus: domain.PolicyStatusActive,
	})
}

// CompleteJob handles POST /api/v1/jobs/:job_id/complete
func (h *JobHandler) CompleteJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		badRequest(c, "job_id must be a valid UUID")
		return
	}

	var req dto.CompleteJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	job, err := h.marketplace.CompleteJob(c.Request.Context(), jobID, req.EmployerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}
