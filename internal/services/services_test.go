package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/database/databasetest"
	"github.com/pokepocketdata/ppdd/internal/models"
)

func intPtr(v int) *int { return &v }

// recordingCache is an in-memory StatsCache that remembers invalidations
type recordingCache struct {
	mu          sync.Mutex
	entries     map[string]*models.PlayerStatistics
	generations map[string]int64
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string]*models.PlayerStatistics{}, generations: map[string]int64{}}
}

func (c *recordingCache) Get(_ context.Context, playerID string) (*models.PlayerStatistics, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[playerID]
	return s, c.generations[playerID], ok
}

func (c *recordingCache) Set(_ context.Context, stats *models.PlayerStatistics, generation int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[stats.PlayerID] != generation {
		return
	}
	c.entries[stats.PlayerID] = stats
}

func (c *recordingCache) Invalidate(_ context.Context, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, playerID)
	c.generations[playerID]++
	c.invalidated = append(c.invalidated, playerID)
}

type fixture struct {
	store *database.Store
	owner *models.User
	cards []string
	deck  *models.Deck
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := databasetest.NewStore(t)
	owner := databasetest.CreateUser(t, store, "ash")
	cards := databasetest.CreateCards(t, store, 12)
	deck := databasetest.CreateDeck(t, store, owner.ID, cards[:10])
	return &fixture{store: store, owner: owner, cards: cards, deck: deck}
}

func charmeleonRequest() *models.PokemonCardRequest {
	return &models.PokemonCardRequest{
		CardFields: models.CardFields{
			Name:             "Charmeleon",
			SetName:          "Genetic Apex (A1)",
			PackName:         "(A1) Charizard",
			CollectionNumber: "034",
			Rarity:           models.Rarity2Diamond,
		},
		HP:          intPtr(90),
		Type:        models.ElementFire,
		Stage:       models.StageStage1,
		EvolvesFrom: "Charmander",
		Weakness:    models.Weakness(models.ElementWater),
		RetreatCost: intPtr(2),
		Abilities: []models.AbilityRequest{{
			AbilityRef:    "fire-claws",
			EnergyCost:    models.EnergyCost{"Fire": 2, "Colorless": 1},
			AbilityEffect: "Deals 60 damage.",
			Damage:        intPtr(60),
		}},
	}
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func requireCount(t *testing.T, store *database.Store, model any, want int64) {
	t.Helper()
	var n int64
	require.NoError(t, store.DB().Model(model).Count(&n).Error)
	require.Equal(t, want, n)
}
