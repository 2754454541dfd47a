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
	"github.com/cuongbtq/swayam-be/internal/trust"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		badRequest(c, "Invalid request body")
		return
	}

	user := domain.User{
		UserID:    uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     req.Phone,
		Role:      req.Role,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := h.storage.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			c.JSON(http.StatusConflict, dto.ErrorResponse{
				Error: "User already exists",
				Kind:  string(domain.KindInvalidState),
			})
			return
		}
		respondError(c, h.logger, domain.Unavailable("failed to create user", err))
		return
	}

	h.logger.Info("User registered",
		slog.String("user_id", user.UserID),
		slog.String("role", user.Role),
	)

	c.JSON(http.StatusCreated, user)
}

// GetUser handles GET /api/v1/users/:user_id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, ok := h.findUser(c, c.Param("user_id"), "")
	if !ok {
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetTrustScore handles GET /api/v1/workers/:worker_id/trust-score
func (h *UserHandler) GetTrustScore(c *gin.Context) {
	worker, ok := h.findUser(c, c.Param("worker_id"), domain.RoleWorker)
	if !ok {
		return
	}

	score := trust.Score(trust.MetricsFor(worker))

	c.JSON(http.StatusOK, dto.TrustScoreResponse{
		WorkerID:      worker.UserID,
		TrustScore:    score,
		Reliability:   trust.Reliability(score),
		CompletedJobs: worker.CompletedJobs,
		Rating:        worker.Rating,
		SafetyScore:   worker.SafetyScore,
	})
}

// CreateRating handles POST /api/v1/ratings
// Either party of a completed job may rate the other once
func (h *UserHandler) CreateRating(c *gin.Context) {
	var req dto.CreateRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		badRequest(c, "Invalid request body")
		return
	}

	ctx := c.Request.Context()

	job, err := h.storage.FindJob(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, h.logger, domain.NotFound("job not found", err))
			return
		}
		respondError(c, h.logger, domain.Unavailable("failed to get job", err))
		return
	}

	if job.Status != domain.JobStatusCompleted || job.WorkerID == nil {
		respondError(c, h.logger, domain.InvalidState("only completed jobs can be rated", nil))
		return
	}

	parties := map[string]string{
		job.EmployerID: *job.WorkerID,
		*job.WorkerID:  job.EmployerID,
	}
	if counterpart, ok := parties[req.RaterID]; !ok || counterpart != req.RateeID {
		respondError(c, h.logger, domain.InvalidInput("rater and ratee must be the two parties of the job", nil))
		return
	}

	rating := domain.Rating{
		RatingID:  uuid.NewString(),
		JobID:     req.JobID,
		RaterID:   req.RaterID,
		RateeID:   req.RateeID,
		Score:     req.Rating,
		Review:    req.Review,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := h.storage.CreateRating(ctx, &rating); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			respondError(c, h.logger, domain.InvalidState("job already rated by this user", err))
		case errors.Is(err, storage.ErrNotFound):
			respondError(c, h.logger, domain.NotFound("ratee not found", err))
		default:
			respondError(c, h.logger, domain.Unavailable("failed to store rating", err))
		}
		return
	}

	h.logger.Info("Rating recorded",
		slog.String("job_id", rating.JobID),
		slog.String("ratee_id", rating.RateeID),
		slog.Int("rating", rating.Score),
	)

	c.JSON(http.StatusCreated, rating)
}

// ListRatings handles GET /api/v1/users/:user_id/ratings
func (h *UserHandler) ListRatings(c *gin.Context) {
	user, ok := h.findUser(c, c.Param("user_id"), "")
	if !ok {
		return
	}

	ratings, err := h.storage.ListRatingsForUser(c.Request.Context(), user.UserID)
	if err != nil {
		respondError(c, h.logger, domain.Unavailable("failed to list ratings", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.UserID,
		"rating":        user.Rating,
		"total_ratings": user.TotalRatings,
		"ratings":       ratings,
	})
}

// findUser loads a user or writes the error response
func (h *UserHandler) findUser(c *gin.Context, userID, role string) (*domain.User, bool) {
	if userID == "" {
		badRequest(c, "user id is required")
		return nil, false
	}

	user, err := h.storage.FindUser(c.Request.Context(), userID, role)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, h.logger, domain.NotFound("user not found", err))
			return nil, false
		}
		respondError(c, h.logger, domain.Unavailable("failed to get user", err))
		return nil, false
	}

	return user, true
}
