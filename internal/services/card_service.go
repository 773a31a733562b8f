package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/models"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

// CardService creates and corrects catalog cards. Cards are immutable apart from
// their name and image.
type CardService struct {
	store  *database.Store
	images *ImageStorageService
	log    *zap.Logger
}

func NewCardService(store *database.Store, images *ImageStorageService, log *zap.Logger) *CardService {
	return &CardService{store: store, images: images, log: log.Named("cards")}
}

func (s *CardService) CreatePokemon(ctx context.Context, req *models.PokemonCardRequest) (*models.Card, error) {
	return s.create(ctx, req.ToCard())
}

func (s *CardService) CreateTrainer(ctx context.Context, req *models.TrainerCardRequest) (*models.Card, error) {
	return s.create(ctx, req.ToCard())
}

// create runs the catalog rules and stores the card with its details and abilities
// in one transaction
func (s *CardService) create(ctx context.Context, card *models.Card) (*models.Card, error) {
	if err := validation.ValidateCard(card); err != nil {
		return nil, reject(s.log, "card", err)
	}

	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		return tx.CreateCard(ctx, card)
	})
	if err != nil {
		if validation.IsConflict(err) {
			return nil, reject(s.log, "card", err)
		}
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	s.log.Info("card created",
		zap.String("card_id", card.ID),
		zap.String("card_type", string(card.CardType)),
		zap.String("set", card.SetName),
		zap.String("number", card.CollectionNumber))
	return s.store.GetCard(ctx, card.ID)
}

func (s *CardService) Get(ctx context.Context, id string) (*models.Card, error) {
	return s.store.GetCard(ctx, id)
}

func (s *CardService) List(ctx context.Context, filter models.CardFilter) (*models.CardListResult, error) {
	return s.store.ListCards(ctx, filter)
}

// UpdateMetadata applies a name or image url correction
func (s *CardService) UpdateMetadata(ctx context.Context, id string, req *models.CardUpdateRequest) (*models.Card, error) {
	if req.IsEmpty() {
		return nil, reject(s.log, "card", &validation.SchemaError{Fields: []validation.FieldError{
			{Field: "body", Reason: "at least one of name, image_url is required"},
		}})
	}
	card, err := s.store.UpdateCardMetadata(ctx, id, *req)
	if err != nil {
		return nil, err
	}
	s.log.Info("card metadata updated", zap.String("card_id", id))
	return card, nil
}

// UploadImage stores a new image for the card and points image_url at it. A
// previously uploaded image is removed once the card references the new one.
func (s *CardService) UploadImage(ctx context.Context, id string, data []byte) (*models.Card, error) {
	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}

	filename, err := s.images.SaveImage(data)
	if err != nil {
		return nil, err
	}

	url := s.images.URL(filename)
	updated, err := s.store.UpdateCardMetadata(ctx, id, models.CardUpdateRequest{ImageURL: &url})
	if err != nil {
		if delErr := s.images.DeleteImage(filename); delErr != nil {
			s.log.Warn("failed to remove orphaned image", zap.String("file", filename), zap.Error(delErr))
		}
		return nil, err
	}

	if old := s.images.FilenameFromURL(card.ImageURL); old != "" {
		if err := s.images.DeleteImage(old); err != nil {
			s.log.Warn("failed to remove replaced image", zap.String("file", old), zap.Error(err))
		}
	}

	s.log.Info("card image uploaded", zap.String("card_id", id), zap.String("file", filename))
	return updated, nil
}
