package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/models"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

// DeckService builds and edits decks. Every card list that reaches the database
// has passed the deck rules against the catalog inside the same transaction.
type DeckService struct {
	store *database.Store
	log   *zap.Logger
}

func NewDeckService(store *database.Store, log *zap.Logger) *DeckService {
	return &DeckService{store: store, log: log.Named("decks")}
}

// checkDeckCards runs the deck rules, resolving every distinct card id with one query
func checkDeckCards(ctx context.Context, tx *database.Store, cardIDs []string) error {
	cards, err := tx.GetCardsByIDs(ctx, cardIDs)
	if err != nil {
		return fmt.Errorf("failed to load deck cards: %w", err)
	}
	return validation.ValidateDeck(ctx, cardIDs, func(_ context.Context, id string) (*models.Card, error) {
		if card, ok := cards[id]; ok {
			return card, nil
		}
		return nil, &validation.NotFoundError{Entity: "card", ID: id}
	})
}

// Create stores a new deck owned by ownerID. An owner_id in the request must name
// the same user.
func (s *DeckService) Create(ctx context.Context, ownerID string, req *models.DeckCreateRequest) (*models.DeckResponse, error) {
	if req.OwnerID != "" && req.OwnerID != ownerID {
		return nil, reject(s.log, "deck", &validation.ForbiddenError{Message: "owner_id must be the authenticated user"})
	}

	name := strings.TrimSpace(req.Name)
	deck := &models.Deck{
		Name:        name,
		Slug:        slug.Make(name),
		OwnerID:     ownerID,
		Description: req.Description,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	deck.SetCards(req.Cards)

	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := checkDeckCards(ctx, tx, req.Cards); err != nil {
			return err
		}
		return tx.CreateDeck(ctx, deck)
	})
	if err != nil {
		return nil, s.writeError(err)
	}

	s.log.Info("deck created", zap.String("deck_id", deck.ID), zap.String("owner_id", ownerID))
	return s.Get(ctx, deck.ID)
}

func (s *DeckService) Get(ctx context.Context, id string) (*models.DeckResponse, error) {
	deck, err := s.store.GetDeck(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := deck.ToResponse()
	return &resp, nil
}

// List returns the owner's decks without expanding their cards
func (s *DeckService) List(ctx context.Context, ownerID string) ([]models.DeckResponse, error) {
	decks, err := s.store.ListDecks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]models.DeckResponse, len(decks))
	for i := range decks {
		out[i] = decks[i].ToResponse()
	}
	return out, nil
}

// Update edits a deck owned by ownerID. A card list in the request replaces the
// stored one and is checked in full.
func (s *DeckService) Update(ctx context.Context, ownerID, id string, req *models.DeckUpdateRequest) (*models.DeckResponse, error) {
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		deck, err := tx.GetDeck(ctx, id)
		if err != nil {
			return err
		}
		if deck.OwnerID != ownerID {
			return &validation.ForbiddenError{Message: "only the owner may modify this deck"}
		}

		if req.Name != nil {
			deck.Name = strings.TrimSpace(*req.Name)
			deck.Slug = slug.Make(deck.Name)
		}
		if req.Description != nil {
			deck.Description = *req.Description
		}
		if req.IsActive != nil {
			deck.IsActive = *req.IsActive
		}

		replace := req.Cards != nil
		if replace {
			if err := checkDeckCards(ctx, tx, req.Cards); err != nil {
				return err
			}
			deck.SetCards(req.Cards)
		}
		return tx.UpdateDeck(ctx, deck, replace)
	})
	if err != nil {
		return nil, s.writeError(err)
	}

	s.log.Info("deck updated", zap.String("deck_id", id), zap.Bool("cards_replaced", req.Cards != nil))
	return s.Get(ctx, id)
}

func (s *DeckService) writeError(err error) error {
	if isCallerError(err) {
		return reject(s.log, "deck", err)
	}
	return fmt.Errorf("failed to save deck: %w", err)
}
