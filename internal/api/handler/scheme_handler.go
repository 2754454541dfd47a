package handler

import (
	"errors"
	"net/http"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/internal/storage"
	"github.com/gin-gonic/gin"
)

// ListSchemes handles GET /api/v1/schemes
// Optional ?category= filter, case-insensitive
func (h *SchemeHandler) ListSchemes(c *gin.Context) {
	schemes, err := h.storage.ListSchemes(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, h.logger, domain.Unavailable("failed to list schemes", err))
		return
	}

	c.JSON(http.StatusOK, schemes)
}

// GetScheme handles GET /api/v1/schemes/:scheme_id
func (h *SchemeHandler) GetScheme(c *gin.Context) {
	scheme, err := h.storage.FindScheme(c.Request.Context(), c.Param("scheme_id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, h.logger, domain.NotFound("scheme not found", err))
			return
		}
		respondError(c, h.logger, domain.Unavailable("failed to get scheme", err))
		return
	}

	c.JSON(http.StatusOK, scheme)
}
