package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CardType is the discriminant of the Card tagged union
type CardType string

const (
	CardTypePokemon CardType = "pokemon"
	CardTypeTrainer CardType = "trainer"
)

func (t CardType) IsValid() bool {
	return t == CardTypePokemon || t == CardTypeTrainer
}

// Rarity of a printed card
type Rarity string

const (
	Rarity1Diamond Rarity = "1 Diamond"
	Rarity2Diamond Rarity = "2 Diamond"
	Rarity3Diamond Rarity = "3 Diamond"
	Rarity4Diamond Rarity = "4 Diamond"
	Rarity1Star    Rarity = "1 Star"
	Rarity2Star    Rarity = "2 Star"
	Rarity3Star    Rarity = "3 Star"
	RarityCrown    Rarity = "Crown"
	RarityPromo    Rarity = "Promo"
)

// AllRarities returns every rarity in display order
func AllRarities() []Rarity {
	return []Rarity{
		Rarity1Diamond, Rarity2Diamond, Rarity3Diamond, Rarity4Diamond,
		Rarity1Star, Rarity2Star, Rarity3Star,
		RarityCrown, RarityPromo,
	}
}

func (r Rarity) IsValid() bool {
	for _, v := range AllRarities() {
		if r == v {
			return true
		}
	}
	return false
}

// ElementType is the elemental type of a Pokemon, its weakness, or an energy
type ElementType string

const (
	ElementFire      ElementType = "Fire"
	ElementWater     ElementType = "Water"
	ElementGrass     ElementType = "Grass"
	ElementMetal     ElementType = "Metal"
	ElementElectric  ElementType = "Electric"
	ElementColorless ElementType = "Colorless"
	ElementDragon    ElementType = "Dragon"
	ElementFighting  ElementType = "Fighting"
	ElementPsychic   ElementType = "Psychic"
	ElementDarkness  ElementType = "Darkness"

	// ElementNone is only valid as a weakness
	ElementNone ElementType = "None"
)

// AllElementTypes returns the ten elemental types (excluding None)
func AllElementTypes() []ElementType {
	return []ElementType{
		ElementFire, ElementWater, ElementGrass, ElementMetal, ElementElectric,
		ElementColorless, ElementDragon, ElementFighting, ElementPsychic, ElementDarkness,
	}
}

func (e ElementType) IsValid() bool {
	for _, v := range AllElementTypes() {
		if e == v {
			return true
		}
	}
	return false
}

// Weakness is an ElementType that also admits None
type Weakness ElementType

func (w Weakness) IsValid() bool {
	return ElementType(w) == ElementNone || ElementType(w).IsValid()
}

// Stage is the evolution stage of a Pokemon card
type Stage string

const (
	StageBasic  Stage = "Basic"
	StageStage1 Stage = "Stage1"
	StageStage2 Stage = "Stage2"
)

// ParseStage normalises the accepted spellings ("Stage 1", "stage1") to the canonical value.
// Unknown input is returned unchanged so validation can report it.
func ParseStage(s string) Stage {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "basic":
		return StageBasic
	case "stage1":
		return StageStage1
	case "stage2":
		return StageStage2
	}
	return Stage(s)
}

func (s Stage) IsValid() bool {
	return s == StageBasic || s == StageStage1 || s == StageStage2
}

// IsEvolved reports whether the stage requires a pre-evolution
func (s Stage) IsEvolved() bool {
	return s == StageStage1 || s == StageStage2
}

func (s *Stage) UnmarshalText(text []byte) error {
	*s = ParseStage(string(text))
	return nil
}

// SupportType classifies a Trainer card
type SupportType string

const (
	SupportItem      SupportType = "Item"
	SupportSupporter SupportType = "Supporter"
	SupportTool      SupportType = "Tool"
)

func (s SupportType) IsValid() bool {
	return s == SupportItem || s == SupportSupporter || s == SupportTool
}

// Card is the common part of every card. Exactly one of Pokemon or Trainer is set,
// matching CardType.
type Card struct {
	ID               string    `json:"card_id" gorm:"primaryKey;size:36"`
	CardType         CardType  `json:"card_type" gorm:"not null;size:16;index"`
	Name             string    `json:"name" gorm:"not null;size:255;index"`
	SetName          string    `json:"set_name" gorm:"not null;size:64;uniqueIndex:idx_card_set_number"`
	PackName         string    `json:"pack_name" gorm:"not null;size:64"`
	CollectionNumber string    `json:"collection_number" gorm:"not null;size:20;uniqueIndex:idx_card_set_number"`
	Rarity           Rarity    `json:"rarity" gorm:"not null;size:16"`
	ImageURL         string    `json:"image_url,omitempty" gorm:"size:255"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Pokemon *PokemonDetails `json:"pokemon,omitempty" gorm:"foreignKey:CardID;references:ID;constraint:OnDelete:CASCADE"`
	Trainer *TrainerDetails `json:"trainer,omitempty" gorm:"foreignKey:CardID;references:ID;constraint:OnDelete:CASCADE"`
}

func (c *Card) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// PokemonDetails holds the Pokemon variant fields of a Card
type PokemonDetails struct {
	CardID      string      `json:"-" gorm:"primaryKey;size:36"`
	HP          int         `json:"hp" gorm:"not null"`
	Type        ElementType `json:"type" gorm:"not null;size:16"`
	Stage       Stage       `json:"stage" gorm:"not null;size:16"`
	EvolvesFrom string      `json:"evolves_from,omitempty" gorm:"size:255"`
	Weakness    Weakness    `json:"weakness" gorm:"not null;size:16"`
	RetreatCost int         `json:"retreat_cost" gorm:"not null"`
	Abilities   []Ability   `json:"abilities" gorm:"foreignKey:CardID;references:CardID;constraint:OnDelete:CASCADE"`
}

func (PokemonDetails) TableName() string {
	return "pokemon_cards"
}

// TrainerDetails holds the Trainer variant fields of a Card
type TrainerDetails struct {
	CardID            string      `json:"-" gorm:"primaryKey;size:36"`
	SupportType       SupportType `json:"support_type" gorm:"not null;size:16"`
	EffectDescription string      `json:"effect_description" gorm:"not null;size:1000"`
}

func (TrainerDetails) TableName() string {
	return "trainer_cards"
}

// Ability is an attack or effect printed on a Pokemon card. It is owned by exactly one card.
type Ability struct {
	ID            uint                           `json:"-" gorm:"primaryKey;autoIncrement"`
	CardID        string                         `json:"-" gorm:"not null;size:36;uniqueIndex:idx_ability_card_ref"`
	AbilityRef    string                         `json:"ability_ref" gorm:"not null;size:64;uniqueIndex:idx_ability_card_ref"`
	Name          string                         `json:"name,omitempty" gorm:"size:255"`
	EnergyCost    datatypes.JSONType[EnergyCost] `json:"energy_cost"`
	AbilityEffect string                         `json:"ability_effect" gorm:"not null;size:500"`
	Damage        *int                           `json:"damage,omitempty"`
}

// EnergyCost maps an elemental type name to the number of energies required
type EnergyCost map[string]int

// Total returns the total number of energies required
func (e EnergyCost) Total() int {
	total := 0
	for _, n := range e {
		total += n
	}
	return total
}

// CardFilter narrows a card listing. Zero values mean "no filter".
type CardFilter struct {
	SetName  string
	PackName string
	Rarity   string
	CardType string
	Name     string
	Skip     int
	Limit    int
}

const (
	DefaultCardListLimit = 100
	MaxCardListLimit     = 100
)

// Normalize clamps paging values to the allowed range
func (f *CardFilter) Normalize() {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultCardListLimit
	}
	if f.Limit > MaxCardListLimit {
		f.Limit = MaxCardListLimit
	}
}

type CardListResult struct {
	Cards      []Card `json:"cards"`
	TotalCount int64  `json:"total_count"`
	HasMore    bool   `json:"has_more"`
}
