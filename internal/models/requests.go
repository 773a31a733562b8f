package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// CardFields are the fields shared by every card create request
type CardFields struct {
	Name             string `json:"name" binding:"required,max=255"`
	SetName          string `json:"set_name" binding:"required,max=64"`
	PackName         string `json:"pack_name" binding:"required,max=64"`
	CollectionNumber string `json:"collection_number" binding:"required,max=20"`
	Rarity           Rarity `json:"rarity" binding:"required,enum"`
	ImageURL         string `json:"image_url" binding:"omitempty,url,max=255"`
}

func (f CardFields) toCard(cardType CardType) *Card {
	return &Card{
		CardType:         cardType,
		Name:             strings.TrimSpace(f.Name),
		SetName:          f.SetName,
		PackName:         f.PackName,
		CollectionNumber: strings.TrimSpace(f.CollectionNumber),
		Rarity:           f.Rarity,
		ImageURL:         f.ImageURL,
	}
}

// AbilityRequest is one ability inside a Pokemon card create request
type AbilityRequest struct {
	AbilityRef    string     `json:"ability_ref" binding:"required,max=64"`
	Name          string     `json:"name" binding:"max=255"`
	EnergyCost    EnergyCost `json:"energy_cost" binding:"required"`
	AbilityEffect string     `json:"ability_effect" binding:"required,max=500"`
	Damage        *int       `json:"damage" binding:"omitempty,gte=0"`
}

// PokemonCardRequest is the body of POST /api/cards/pokemon
type PokemonCardRequest struct {
	CardFields
	HP          *int             `json:"hp" binding:"required,gt=0"`
	Type        ElementType      `json:"type" binding:"required,enum"`
	Stage       Stage            `json:"stage" binding:"required,enum"`
	EvolvesFrom string           `json:"evolves_from" binding:"max=255"`
	Weakness    Weakness         `json:"weakness" binding:"required,enum"`
	RetreatCost *int             `json:"retreat_cost" binding:"required,gte=0"`
	Abilities   []AbilityRequest `json:"abilities" binding:"dive"`
}

// ToCard converts the request into an unsaved card entity
func (r *PokemonCardRequest) ToCard() *Card {
	card := r.CardFields.toCard(CardTypePokemon)
	details := &PokemonDetails{
		Type:        r.Type,
		Stage:       r.Stage,
		EvolvesFrom: strings.TrimSpace(r.EvolvesFrom),
		Weakness:    r.Weakness,
		Abilities:   make([]Ability, 0, len(r.Abilities)),
	}
	if r.HP != nil {
		details.HP = *r.HP
	}
	if r.RetreatCost != nil {
		details.RetreatCost = *r.RetreatCost
	}
	for _, a := range r.Abilities {
		cost := a.EnergyCost
		if cost == nil {
			cost = EnergyCost{}
		}
		details.Abilities = append(details.Abilities, Ability{
			AbilityRef:    a.AbilityRef,
			Name:          a.Name,
			EnergyCost:    datatypes.NewJSONType(cost),
			AbilityEffect: a.AbilityEffect,
			Damage:        a.Damage,
		})
	}
	card.Pokemon = details
	return card
}

// TrainerCardRequest is the body of POST /api/cards/trainer
type TrainerCardRequest struct {
	CardFields
	SupportType       SupportType `json:"support_type" binding:"required,enum"`
	EffectDescription string      `json:"effect_description" binding:"required,max=1000"`
}

// ToCard converts the request into an unsaved card entity
func (r *TrainerCardRequest) ToCard() *Card {
	card := r.CardFields.toCard(CardTypeTrainer)
	card.Trainer = &TrainerDetails{
		SupportType:       r.SupportType,
		EffectDescription: r.EffectDescription,
	}
	return card
}

// CardUpdateRequest is the body of PATCH /api/cards/:id. Only corrective metadata may change.
type CardUpdateRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	ImageURL *string `json:"image_url" binding:"omitempty,max=255"`
}

// IsEmpty reports whether the update changes nothing
func (r *CardUpdateRequest) IsEmpty() bool {
	return r.Name == nil && r.ImageURL == nil
}

// DeckCreateRequest is the body of POST /api/decks/
type DeckCreateRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Description string   `json:"description" binding:"max=500"`
	OwnerID     string   `json:"owner_id" binding:"omitempty,uuid"`
	IsActive    *bool    `json:"is_active"`
	Cards       []string `json:"cards" binding:"required,dive,required"`
}

// DeckUpdateRequest is the body of PUT /api/decks/:id. A non-nil Cards replaces the whole list.
type DeckUpdateRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string  `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool    `json:"is_active"`
	Cards       []string `json:"cards" binding:"omitempty,dive,required"`
}

// GameDetailsRequest is the game_data part of POST /api/games/
type GameDetailsRequest struct {
	OpponentsPoints  *int       `json:"opponents_points" binding:"required,gte=0"`
	PlayerPoints     *int       `json:"player_points" binding:"required,gte=0"`
	DatePlayed       *time.Time `json:"date_played"`
	TurnsPlayed      *int       `json:"turns_played" binding:"required"`
	PlayerDeckUsed   string     `json:"player_deck_used" binding:"required,uuid"`
	OpponentName     string     `json:"opponent_name" binding:"required,max=255"`
	OpponentDeckType string     `json:"opponent_deck_type" binding:"max=255"`
	Notes            string     `json:"notes" binding:"max=1000"`
}

// GameRecordRequest is the game_record_data part of POST /api/games/
type GameRecordRequest struct {
	PlayerID      string  `json:"player_id" binding:"omitempty,uuid"`
	Outcome       Outcome `json:"outcome" binding:"required,enum"`
	RankingChange *int    `json:"ranking_change"`
}

// GameCreateRequest is the body of POST /api/games/
type GameCreateRequest struct {
	GameData       GameDetailsRequest `json:"game_data"`
	GameRecordData GameRecordRequest  `json:"game_record_data"`
}

// ToEntities converts the request into unsaved GameDetails and GameRecord entities.
// date_played defaults to now (UTC).
func (r *GameCreateRequest) ToEntities(playerID string, now time.Time) (*GameDetails, *GameRecord) {
	d := r.GameData
	details := &GameDetails{
		PlayerDeckUsed:   d.PlayerDeckUsed,
		OpponentName:     strings.TrimSpace(d.OpponentName),
		OpponentDeckType: d.OpponentDeckType,
		Notes:            d.Notes,
		DatePlayed:       now.UTC(),
	}
	if d.OpponentsPoints != nil {
		details.OpponentsPoints = *d.OpponentsPoints
	}
	if d.PlayerPoints != nil {
		details.PlayerPoints = *d.PlayerPoints
	}
	if d.TurnsPlayed != nil {
		details.TurnsPlayed = *d.TurnsPlayed
	}
	if d.DatePlayed != nil {
		details.DatePlayed = d.DatePlayed.UTC()
	}

	record := &GameRecord{
		PlayerID:      playerID,
		Outcome:       r.GameRecordData.Outcome,
		RankingChange: r.GameRecordData.RankingChange,
	}
	return details, record
}
