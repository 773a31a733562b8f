package handlers

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/metrics"
)

type AdminHandler struct {
	counts     metrics.CountSource
	refreshing atomic.Bool
	log        *zap.Logger
}

func NewAdminHandler(counts metrics.CountSource, log *zap.Logger) *AdminHandler {
	return &AdminHandler{counts: counts, log: log}
}

// RefreshMetrics recomputes the database gauges now instead of waiting for the
// scheduled refresh
// POST /api/admin/metrics/refresh
func (h *AdminHandler) RefreshMetrics(c *gin.Context) {
	if !h.refreshing.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "A metrics refresh is already running. Please wait for it to complete.",
			Code:  "REFRESH_IN_PROGRESS",
		})
		return
	}
	defer h.refreshing.Store(false)

	metrics.UpdateDatabaseMetrics(c.Request.Context(), h.counts, h.log)
	c.JSON(http.StatusOK, gin.H{"message": "Database metrics refreshed"})
}

// CatalogSummary returns row counts for the catalog and player activity
// GET /api/admin/summary
func (h *AdminHandler) CatalogSummary(c *gin.Context) {
	ctx := c.Request.Context()

	bySet, err := h.counts.CountCardsBySet(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var cards int64
	for _, n := range bySet {
		cards += n
	}

	decks, users, games, err := h.counts.Counts(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cards":        cards,
		"cards_by_set": bySet,
		"decks":        decks,
		"users":        users,
		"game_records": games,
	})
}
