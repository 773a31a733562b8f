package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// DeckSize is the exact number of cards in a legal deck
	DeckSize = 20
	// MaxCopiesPerCard is how many times a single card may appear in a deck
	MaxCopiesPerCard = 2
)

type Deck struct {
	ID          string     `json:"deck_id" gorm:"primaryKey;size:36"`
	Name        string     `json:"name" gorm:"not null;size:255"`
	Slug        string     `json:"slug" gorm:"size:255;index"`
	OwnerID     string     `json:"owner_id" gorm:"not null;size:36;index"`
	Description string     `json:"description,omitempty" gorm:"size:500"`
	IsActive    bool       `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Slots       []DeckCard `json:"-" gorm:"foreignKey:DeckID;references:ID;constraint:OnDelete:CASCADE"`

	Owner *User `json:"-" gorm:"foreignKey:OwnerID;references:ID"`
}

func (d *Deck) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// CardIDs returns the card ids of the deck in slot order
func (d *Deck) CardIDs() []string {
	ids := make([]string, len(d.Slots))
	for i, s := range d.Slots {
		ids[i] = s.CardID
	}
	return ids
}

// SetCards replaces the deck's slots with the given card ids
func (d *Deck) SetCards(cardIDs []string) {
	d.Slots = make([]DeckCard, len(cardIDs))
	for i, id := range cardIDs {
		d.Slots[i] = DeckCard{DeckID: d.ID, Position: i, CardID: id}
	}
}

// DeckCard is one of the twenty slots of a deck. Keyed by position so that
// a card may legally occupy two slots.
type DeckCard struct {
	DeckID   string `gorm:"primaryKey;size:36"`
	Position int    `gorm:"primaryKey;autoIncrement:false"`
	CardID   string `gorm:"not null;size:36;index"`

	Card *Card `gorm:"foreignKey:CardID;references:ID;constraint:OnDelete:RESTRICT"`
}

// DeckResponse is the API representation of a deck with its cards expanded
type DeckResponse struct {
	ID          string    `json:"deck_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	OwnerID     string    `json:"owner_id"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CardIDs     []string  `json:"card_ids"`
	Cards       []Card    `json:"cards"`
}

// ToResponse builds the API view of the deck. Slots must be preloaded with their cards.
func (d *Deck) ToResponse() DeckResponse {
	resp := DeckResponse{
		ID:          d.ID,
		Name:        d.Name,
		Slug:        d.Slug,
		OwnerID:     d.OwnerID,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		CardIDs:     d.CardIDs(),
		Cards:       make([]Card, 0, len(d.Slots)),
	}
	for _, s := range d.Slots {
		if s.Card != nil {
			resp.Cards = append(resp.Cards, *s.Card)
		}
	}
	return resp
}
