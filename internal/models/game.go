package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxTotalPoints is the upper bound on player_points + opponents_points
const MaxTotalPoints = 6

// Outcome of a game from the recording player's point of view
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
	OutcomeDraw Outcome = "DRAW"
)

func AllOutcomes() []Outcome {
	return []Outcome{OutcomeWin, OutcomeLoss, OutcomeDraw}
}

func (o Outcome) IsValid() bool {
	return o == OutcomeWin || o == OutcomeLoss || o == OutcomeDraw
}

// UnmarshalText accepts outcomes in any letter case ("win", "Win", "WIN")
func (o *Outcome) UnmarshalText(text []byte) error {
	*o = Outcome(strings.ToUpper(strings.TrimSpace(string(text))))
	return nil
}

// OutcomeForPoints returns the outcome implied by a score
func OutcomeForPoints(playerPoints, opponentsPoints int) Outcome {
	switch {
	case playerPoints > opponentsPoints:
		return OutcomeWin
	case playerPoints < opponentsPoints:
		return OutcomeLoss
	default:
		return OutcomeDraw
	}
}

// GameDetails is the quantitative record of one match
type GameDetails struct {
	ID               string    `json:"game_details_id" gorm:"primaryKey;size:36"`
	OpponentsPoints  int       `json:"opponents_points" gorm:"not null"`
	PlayerPoints     int       `json:"player_points" gorm:"not null"`
	DatePlayed       time.Time `json:"date_played" gorm:"not null;index"`
	TurnsPlayed      int       `json:"turns_played" gorm:"not null"`
	PlayerDeckUsed   string    `json:"player_deck_used" gorm:"not null;size:36;index"`
	OpponentName     string    `json:"opponent_name" gorm:"not null;size:255"`
	OpponentDeckType string    `json:"opponent_deck_type,omitempty" gorm:"size:255"`
	Notes            string    `json:"notes,omitempty" gorm:"size:1000"`

	Deck *Deck `json:"-" gorm:"foreignKey:PlayerDeckUsed;references:ID;constraint:OnDelete:RESTRICT"`
}

func (GameDetails) TableName() string {
	return "game_details"
}

func (g *GameDetails) BeforeCreate(_ *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// GameRecord is the outcome and ranking record linked 1:1 to a GameDetails
type GameRecord struct {
	ID             string    `json:"game_record_id" gorm:"primaryKey;size:36"`
	PlayerID       string    `json:"player_id" gorm:"not null;size:36;index"`
	GameDetailsRef string    `json:"game_details_ref" gorm:"not null;size:36;uniqueIndex"`
	Outcome        Outcome   `json:"outcome" gorm:"not null;size:8;index"`
	RankingChange  *int      `json:"ranking_change"`
	CreatedAt      time.Time `json:"created_at"`

	GameDetails *GameDetails `json:"game_details,omitempty" gorm:"foreignKey:GameDetailsRef;references:ID;constraint:OnDelete:CASCADE"`
	Player      *User        `json:"-" gorm:"foreignKey:PlayerID;references:ID"`
}

func (g *GameRecord) BeforeCreate(_ *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// PlayerStatistics summarises a player's recorded games
type PlayerStatistics struct {
	PlayerID         string  `json:"player_id"`
	TotalGames       int64   `json:"total_games"`
	Wins             int64   `json:"wins"`
	Losses           int64   `json:"losses"`
	Draws            int64   `json:"draws"`
	WinRate          float64 `json:"win_rate"`
	NetRankingChange int64   `json:"net_ranking_change"`
}

type GameRecordPage struct {
	Records    []GameRecord `json:"records"`
	TotalCount int64        `json:"total_count"`
	HasMore    bool         `json:"has_more"`
}
