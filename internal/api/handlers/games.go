package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/models"
	"github.com/pokepocketdata/ppdd/internal/services"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

const maxGamePageSize = 100

type GameHandler struct {
	games *services.GameService
	log   *zap.Logger
}

func NewGameHandler(games *services.GameService, log *zap.Logger) *GameHandler {
	return &GameHandler{games: games, log: log}
}

// RecordGame stores a finished game for the caller
// POST /api/games/
func (h *GameHandler) RecordGame(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.GameCreateRequest
	if !bindJSON(c, h.log, "game", &req) {
		return
	}
	record, err := h.games.Record(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// ListGames returns a page of the caller's game records, newest first
// GET /api/games/?skip=&limit=
func (h *GameHandler) ListGames(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var problems []validation.FieldError
	skip := queryInt(c, "skip", 0, &problems)
	limit := queryInt(c, "limit", maxGamePageSize, &problems)
	if skip < 0 {
		problems = append(problems, validation.FieldError{Field: "skip", Reason: "must be greater than or equal to 0"})
	}
	if limit < 1 || limit > maxGamePageSize {
		problems = append(problems, validation.FieldError{Field: "limit", Reason: "must be between 1 and 100"})
	}
	if len(problems) > 0 {
		respondError(c, h.log, &validation.SchemaError{Fields: problems})
		return
	}

	page, err := h.games.List(c.Request.Context(), userID, skip, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetStatistics returns a player's aggregate record. Unknown players get zeros.
// GET /api/games/statistics/:player_id
func (h *GameHandler) GetStatistics(c *gin.Context) {
	stats, err := h.games.Statistics(c.Request.Context(), c.Param("player_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
