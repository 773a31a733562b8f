package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/models"
	"github.com/pokepocketdata/ppdd/internal/services"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

type CardHandler struct {
	cards *services.CardService
	log   *zap.Logger
}

func NewCardHandler(cards *services.CardService, log *zap.Logger) *CardHandler {
	return &CardHandler{cards: cards, log: log}
}

// CreatePokemon adds a Pokemon card to the catalog
// POST /api/cards/pokemon
func (h *CardHandler) CreatePokemon(c *gin.Context) {
	var req models.PokemonCardRequest
	if !bindJSON(c, h.log, "card", &req) {
		return
	}
	card, err := h.cards.CreatePokemon(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

// CreateTrainer adds a Trainer card to the catalog
// POST /api/cards/trainer
func (h *CardHandler) CreateTrainer(c *gin.Context) {
	var req models.TrainerCardRequest
	if !bindJSON(c, h.log, "card", &req) {
		return
	}
	card, err := h.cards.CreateTrainer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

// GetCard returns one card with its variant details
// GET /api/cards/:id
func (h *CardHandler) GetCard(c *gin.Context) {
	card, err := h.cards.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// ListCards returns a filtered page of cards
// GET /api/cards/?set_name=&pack_name=&rarity=&card_type=&name=&skip=&limit=
func (h *CardHandler) ListCards(c *gin.Context) {
	var problems []validation.FieldError
	skip := queryInt(c, "skip", 0, &problems)
	limit := queryInt(c, "limit", models.DefaultCardListLimit, &problems)
	if skip < 0 {
		problems = append(problems, validation.FieldError{Field: "skip", Reason: "must be greater than or equal to 0"})
	}
	if limit < 1 || limit > models.MaxCardListLimit {
		problems = append(problems, validation.FieldError{Field: "limit", Reason: fmt.Sprintf("must be between 1 and %d", models.MaxCardListLimit)})
	}
	if len(problems) > 0 {
		respondError(c, h.log, &validation.SchemaError{Fields: problems})
		return
	}

	result, err := h.cards.List(c.Request.Context(), models.CardFilter{
		SetName:  c.Query("set_name"),
		PackName: c.Query("pack_name"),
		Rarity:   c.Query("rarity"),
		CardType: c.Query("card_type"),
		Name:     c.Query("name"),
		Skip:     skip,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListSets returns the known sets and their packs
// GET /api/cards/sets
func (h *CardHandler) ListSets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sets": models.KnownSets()})
}

// UpdateCard applies a corrective name or image url edit
// PATCH /api/cards/:id
func (h *CardHandler) UpdateCard(c *gin.Context) {
	var req models.CardUpdateRequest
	if !bindJSON(c, h.log, "card", &req) {
		return
	}
	card, err := h.cards.UpdateMetadata(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// UploadImage stores an image for the card from the multipart field "image"
// POST /api/cards/:id/image
func (h *CardHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxCardImageBytes+(64<<10))

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(c, h.log, err)
			return
		}
		respondError(c, h.log, &validation.SchemaError{Fields: []validation.FieldError{
			{Field: "image", Reason: "multipart file field is required"},
		}})
		return
	}
	if fileHeader.Size > services.MaxCardImageBytes {
		respondError(c, h.log, services.ErrImageTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.log, fmt.Errorf("open uploaded image: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, h.log, fmt.Errorf("read uploaded image: %w", err))
		return
	}

	card, err := h.cards.UploadImage(c.Request.Context(), c.Param("id"), data)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// queryInt parses an optional integer query parameter, recording a problem when
// it is not a number
func queryInt(c *gin.Context, name string, def int, problems *[]validation.FieldError) int {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*problems = append(*problems, validation.FieldError{Field: name, Reason: "expected integer"})
		return def
	}
	return v
}
