package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/models"
	"github.com/pokepocketdata/ppdd/internal/services"
)

type DeckHandler struct {
	decks *services.DeckService
	log   *zap.Logger
}

func NewDeckHandler(decks *services.DeckService, log *zap.Logger) *DeckHandler {
	return &DeckHandler{decks: decks, log: log}
}

// CreateDeck builds a deck owned by the caller
// POST /api/decks/
func (h *DeckHandler) CreateDeck(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.DeckCreateRequest
	if !bindJSON(c, h.log, "deck", &req) {
		return
	}
	deck, err := h.decks.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, deck)
}

// ListDecks returns the caller's decks
// GET /api/decks/
func (h *DeckHandler) ListDecks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	decks, err := h.decks.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decks": decks})
}

// GetDeck returns a deck with its cards expanded
// GET /api/decks/:id
func (h *DeckHandler) GetDeck(c *gin.Context) {
	deck, err := h.decks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, deck)
}

// UpdateDeck edits one of the caller's decks
// PUT /api/decks/:id
func (h *DeckHandler) UpdateDeck(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.DeckUpdateRequest
	if !bindJSON(c, h.log, "deck", &req) {
		return
	}
	deck, err := h.decks.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, deck)
}
