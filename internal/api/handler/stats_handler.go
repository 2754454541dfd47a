package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/swayam-be/internal/cache"
	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/cuongbtq/swayam-be/shared/telemetry"
	"github.com/gin-gonic/gin"
)

const impactStatsKey = "stats:impact"

// GetImpactStats handles GET /api/v1/stats/impact
func (h *StatsHandler) GetImpactStats(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "GetImpactStats")
	defer span.End()

	var stats domain.ImpactStats
	err := h.cache.Get(ctx, impactStatsKey, &stats)
	if err == nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		c.JSON(http.StatusOK, stats)
		return
	}

	if errors.Is(err, cache.ErrNotFound) {
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	} else {
		span.SetAttributes(telemetry.String("cache.result", "error"))
		span.RecordError(err)
		h.logger.Warn("Failed to read impact stats from cache", slog.Any("error", err))
	}

	fresh, err := h.storage.ImpactStats(ctx)
	if err != nil {
		span.RecordError(err)
		respondError(c, h.logger, domain.Unavailable("failed to compute impact stats", err))
		return
	}

	if err := h.cache.Set(ctx, impactStatsKey, fresh, h.statsTTL); err != nil {
		h.logger.Warn("Failed to cache impact stats", slog.Any("error", err))
	}

	c.JSON(http.StatusOK, fresh)
}
