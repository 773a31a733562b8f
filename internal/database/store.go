package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pokepocketdata/ppdd/internal/models"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

// Store is the persistence gateway. It wraps an explicit *gorm.DB handle, which is
// either the connection pool or, inside Transaction, the transaction itself.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for metrics queries and tests
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &validation.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func conflict(err error, entity, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &validation.ConflictError{Entity: entity, Message: message}
	}
	return err
}

func preloadCardDetails(db *gorm.DB, prefix string) *gorm.DB {
	return db.
		Preload(prefix+"Pokemon.Abilities", func(db *gorm.DB) *gorm.DB {
			return db.Order("abilities.id")
		}).
		Preload(prefix + "Trainer")
}

// Cards

func (s *Store) GetCard(ctx context.Context, id string) (*models.Card, error) {
	var card models.Card
	err := preloadCardDetails(s.db.WithContext(ctx), "").First(&card, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "card", id)
	}
	return &card, nil
}

// GetCardsByIDs loads the cards with the given ids. Unknown ids are simply absent from the result.
func (s *Store) GetCardsByIDs(ctx context.Context, ids []string) (map[string]*models.Card, error) {
	out := make(map[string]*models.Card, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var cards []models.Card
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&cards).Error; err != nil {
		return nil, err
	}
	for i := range cards {
		out[cards[i].ID] = &cards[i]
	}
	return out, nil
}

// FindCardBySetAndNumber returns the card printed as number within set, or a NotFoundError
func (s *Store) FindCardBySetAndNumber(ctx context.Context, setName, number string) (*models.Card, error) {
	var card models.Card
	err := s.db.WithContext(ctx).
		Where("set_name = ? AND collection_number = ?", setName, number).
		First(&card).Error
	if err != nil {
		return nil, notFound(err, "card", setName+" #"+number)
	}
	return &card, nil
}

func (s *Store) ListCards(ctx context.Context, filter models.CardFilter) (*models.CardListResult, error) {
	filter.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Card{})
	if filter.SetName != "" {
		query = query.Where("set_name = ?", filter.SetName)
	}
	if filter.PackName != "" {
		query = query.Where("pack_name = ?", filter.PackName)
	}
	if filter.Rarity != "" {
		query = query.Where("rarity = ?", filter.Rarity)
	}
	if filter.CardType != "" {
		query = query.Where("card_type = ?", filter.CardType)
	}
	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var cards []models.Card
	err := preloadCardDetails(query, "").
		Order("set_name, collection_number").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&cards).Error
	if err != nil {
		return nil, err
	}

	return &models.CardListResult{
		Cards:      cards,
		TotalCount: total,
		HasMore:    int64(filter.Skip+len(cards)) < total,
	}, nil
}

// CreateCard inserts a card with its variant details and abilities. A card with the
// same set and collection number yields a ConflictError.
func (s *Store) CreateCard(ctx context.Context, card *models.Card) error {
	db := s.db.WithContext(ctx)

	var existing int64
	err := db.Model(&models.Card{}).
		Where("set_name = ? AND collection_number = ?", card.SetName, card.CollectionNumber).
		Count(&existing).Error
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("collection number %s already exists in set %s", card.CollectionNumber, card.SetName)
	if existing > 0 {
		return &validation.ConflictError{Entity: "card", Message: msg}
	}

	return conflict(db.Create(card).Error, "card", msg)
}

// UpdateCardMetadata applies a corrective edit (name, image url) to a card
func (s *Store) UpdateCardMetadata(ctx context.Context, id string, patch models.CardUpdateRequest) (*models.Card, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.ImageURL != nil {
		updates["image_url"] = *patch.ImageURL
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&models.Card{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, &validation.NotFoundError{Entity: "card", ID: id}
		}
	}
	return s.GetCard(ctx, id)
}

func (s *Store) CountCardsBySet(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		SetName string
		Count   int64
	}
	err := s.db.WithContext(ctx).Model(&models.Card{}).
		Select("set_name, COUNT(*) AS count").
		Group("set_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.SetName] = r.Count
	}
	return out, nil
}

// Decks

func sortSlots(deck *models.Deck) {
	sort.Slice(deck.Slots, func(i, j int) bool {
		return deck.Slots[i].Position < deck.Slots[j].Position
	})
}

// GetDeck loads a deck with its slots and the cards in them
func (s *Store) GetDeck(ctx context.Context, id string) (*models.Deck, error) {
	var deck models.Deck
	err := preloadCardDetails(s.db.WithContext(ctx).Preload("Slots.Card"), "Slots.Card.").
		First(&deck, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "deck", id)
	}
	sortSlots(&deck)
	return &deck, nil
}

// ListDecks returns the decks owned by ownerID, newest first, with card ids but not card bodies
func (s *Store) ListDecks(ctx context.Context, ownerID string) ([]models.Deck, error) {
	var decks []models.Deck
	err := s.db.WithContext(ctx).
		Preload("Slots").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&decks).Error
	if err != nil {
		return nil, err
	}
	for i := range decks {
		sortSlots(&decks[i])
	}
	return decks, nil
}

func (s *Store) CreateDeck(ctx context.Context, deck *models.Deck) error {
	db := s.db.WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		cardIDs := deck.CardIDs()
		if err := tx.Omit(clause.Associations).Create(deck).Error; err != nil {
			return conflict(err, "deck", "deck already exists")
		}

		// slots need the id assigned on insert
		deck.SetCards(cardIDs)
		if len(deck.Slots) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&deck.Slots).Error
	})
}

// UpdateDeck saves the deck's scalar fields. When replaceCards is set the stored
// slots are replaced by deck.Slots in full.
func (s *Store) UpdateDeck(ctx context.Context, deck *models.Deck, replaceCards bool) error {
	db := s.db.WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Deck{}).Where("id = ?", deck.ID).Updates(map[string]any{
			"name":        deck.Name,
			"slug":        deck.Slug,
			"description": deck.Description,
			"is_active":   deck.IsActive,
			"updated_at":  tx.NowFunc(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &validation.NotFoundError{Entity: "deck", ID: deck.ID}
		}

		if !replaceCards {
			return nil
		}
		if err := tx.Where("deck_id = ?", deck.ID).Delete(&models.DeckCard{}).Error; err != nil {
			return err
		}
		deck.SetCards(deck.CardIDs())
		if len(deck.Slots) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&deck.Slots).Error
	})
}

// Games

// CreateGameRecord stores a game's details and its record atomically
func (s *Store) CreateGameRecord(ctx context.Context, details *models.GameDetails, record *models.GameRecord) error {
	db := s.db.WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		var decks int64
		if err := tx.Model(&models.Deck{}).Where("id = ?", details.PlayerDeckUsed).Count(&decks).Error; err != nil {
			return err
		}
		if decks == 0 {
			return &validation.NotFoundError{Entity: "deck", ID: details.PlayerDeckUsed}
		}

		if err := tx.Omit(clause.Associations).Create(details).Error; err != nil {
			return err
		}
		record.GameDetailsRef = details.ID
		if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return &validation.NotFoundError{Entity: "player", ID: record.PlayerID}
			}
			return conflict(err, "game record", "game details already have a record")
		}
		record.GameDetails = details
		return nil
	})
}

// ListGameRecords returns a page of the player's game records, most recent first
func (s *Store) ListGameRecords(ctx context.Context, playerID string, skip, limit int) (*models.GameRecordPage, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := s.db.WithContext(ctx).Model(&models.GameRecord{}).Where("player_id = ?", playerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var records []models.GameRecord
	err := query.Preload("GameDetails").
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return &models.GameRecordPage{
		Records:    records,
		TotalCount: total,
		HasMore:    int64(skip+len(records)) < total,
	}, nil
}

// GetPlayerStatistics aggregates a player's records. A player with no games gets zeros.
func (s *Store) GetPlayerStatistics(ctx context.Context, playerID string) (*models.PlayerStatistics, error) {
	var row struct {
		TotalGames       int64
		Wins             int64
		Losses           int64
		Draws            int64
		NetRankingChange int64
	}
	err := s.db.WithContext(ctx).Model(&models.GameRecord{}).
		Select(`COUNT(*) AS total_games,
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0) AS wins,
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0) AS losses,
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0) AS draws,
			COALESCE(SUM(ranking_change), 0) AS net_ranking_change`,
			models.OutcomeWin, models.OutcomeLoss, models.OutcomeDraw).
		Where("player_id = ?", playerID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &models.PlayerStatistics{
		PlayerID:         playerID,
		TotalGames:       row.TotalGames,
		Wins:             row.Wins,
		Losses:           row.Losses,
		Draws:            row.Draws,
		NetRankingChange: row.NetRankingChange,
	}
	if row.TotalGames > 0 {
		stats.WinRate = math.Round(float64(row.Wins)/float64(row.TotalGames)*100*100) / 100
	}
	return stats, nil
}

// Users

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// UpsertUserFromIdentity creates the user on first sign-in and refreshes the
// profile fields and last_login on every later one
func (s *Store) UpsertUserFromIdentity(ctx context.Context, identity models.ExternalIdentity) (*models.User, error) {
	db := s.db.WithContext(ctx)
	now := db.NowFunc()

	user := models.User{
		GoogleID:  identity.Subject,
		Email:     identity.Email,
		FullName:  identity.Name,
		Picture:   identity.Picture,
		IsActive:  true,
		LastLogin: now,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "google_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "picture", "last_login"}),
	}).Create(&user).Error
	if err != nil {
		return nil, conflict(err, "user", "email is already linked to another account")
	}

	var stored models.User
	if err := db.First(&stored, "google_id = ?", identity.Subject).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// Counts returns the row counts used for the database gauges
func (s *Store) Counts(ctx context.Context) (decks, users, gameRecords int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Deck{}).Count(&decks).Error; err != nil {
		return
	}
	if err = db.Model(&models.User{}).Count(&users).Error; err != nil {
		return
	}
	err = db.Model(&models.GameRecord{}).Count(&gameRecords).Error
	return
}
