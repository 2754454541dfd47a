package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/swayam-be/internal/api/dto"
	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error kind to its HTTP status
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidState, domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindInconsistent:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the canonical error body for err
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	resp := dto.ErrorResponse{
		Error: "Internal server error",
		Kind:  string(kind),
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) && kind != domain.KindInternal {
		resp.Error = domainErr.Message
	}

	var gate *domain.TrustGateError
	if errors.As(err, &gate) {
		resp.RequiredTrustScore = &gate.Required
		resp.TrustScore = &gate.Actual
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			slog.String("path", c.FullPath()),
			slog.String("kind", string(kind)),
			slog.Any("error", err),
		)
	}

	_ = c.Error(err)
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error: message,
		Kind:  string(domain.KindInvalidInput),
	})
}
