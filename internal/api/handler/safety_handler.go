package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/swayam-be/internal/api/dto"
	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetPolicy handles GET /api/v1/policies/:policy_id
func (h *SafetyHandler) GetPolicy(c *gin.Context) {
	policyID := c.Param("policy_id")
	if _, err := uuid.Parse(policyID); err != nil {
		badRequest(c, "policy_id must be a valid UUID")
		return
	}

	policy, err := h.storage.FindPolicy(c.Request.Context(), policyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, h.logger, domain.NotFound("policy not found", err))
			return
		}
		respondError(c, h.logger, domain.Unavailable("failed to get policy", err))
		return
	}

	c.JSON(http.StatusOK, policy)
}

// ListWorkerPolicies handles GET /api/v1/workers/:worker_id/policies
func (h *SafetyHandler) ListWorkerPolicies(c *gin.Context) {
	policies, err := h.storage.ListPoliciesByWorker(c.Request.Context(), c.Param("worker_id"))
	if err != nil {
		respondError(c, h.logger, domain.Unavailable("failed to list policies", err))
		return
	}

	c.JSON(http.StatusOK, policies)
}

// TriggerSOS handles POST /api/v1/sos/trigger
// The alert is recorded and logged; nothing is dispatched.
func (h *SafetyHandler) TriggerSOS(c *gin.Context) {
	var req dto.TriggerSOSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	workerName := req.WorkerName
	if workerName == "" {
		worker, err := h.storage.FindUser(c.Request.Context(), req.WorkerID, domain.RoleWorker)
		switch {
		case err == nil:
			workerName = worker.Name
		case !errors.Is(err, storage.ErrNotFound):
			respondError(c, h.logger, domain.Unavailable("failed to get worker", err))
			return
		}
	}

	alert := domain.SOSAlert{
		AlertID:       uuid.NewString(),
		WorkerID:      req.WorkerID,
		WorkerName:    workerName,
		Location:      req.Location,
		EmergencyType: req.EmergencyType,
		Status:        domain.SOSStatusTriggered,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := h.storage.CreateSOSAlert(c.Request.Context(), &alert); err != nil {
		respondError(c, h.logger, domain.Unavailable("failed to record SOS alert", err))
		return
	}

	h.logger.Warn("SOS alert triggered",
		slog.String("alert_id", alert.AlertID),
		slog.String("worker_id", alert.WorkerID),
		slog.String("location", alert.Location),
		slog.String("emergency_type", alert.EmergencyType),
	)

	c.JSON(http.StatusCreated, alert)
}
