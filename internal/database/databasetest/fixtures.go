package databasetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/models"
)

// CreateUser stores a user with a unique Google identity
func CreateUser(t testing.TB, store *database.Store, name string) *models.User {
	t.Helper()
	user, err := store.UpsertUserFromIdentity(context.Background(), models.ExternalIdentity{
		Subject: uuid.NewString(),
		Email:   fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Name:    name,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

// TrainerCard returns an unsaved, valid trainer card
func TrainerCard(number string) *models.Card {
	return &models.Card{
		CardType:         models.CardTypeTrainer,
		Name:             "Potion " + number,
		SetName:          "Genetic Apex (A1)",
		PackName:         "(A1) Pikachu",
		CollectionNumber: number,
		Rarity:           models.Rarity1Diamond,
		Trainer: &models.TrainerDetails{
			SupportType:       models.SupportItem,
			EffectDescription: "Heal 20 damage from 1 of your Pokemon.",
		},
	}
}

// CreateCards stores n trainer cards and returns their ids
func CreateCards(t testing.TB, store *database.Store, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		card := TrainerCard(fmt.Sprintf("%03d", i+1))
		if err := store.CreateCard(context.Background(), card); err != nil {
			t.Fatalf("create card %d: %v", i, err)
		}
		ids[i] = card.ID
	}
	return ids
}

// DeckCardIDs builds a legal twenty card list from ten distinct ids, two copies each
func DeckCardIDs(ids []string) []string {
	out := make([]string, 0, models.DeckSize)
	for len(out) < models.DeckSize {
		id := ids[(len(out)/models.MaxCopiesPerCard)%len(ids)]
		out = append(out, id)
	}
	return out
}

// CreateDeck stores a legal deck owned by ownerID built from cardIDs
func CreateDeck(t testing.TB, store *database.Store, ownerID string, cardIDs []string) *models.Deck {
	t.Helper()
	deck := &models.Deck{Name: "Test deck", Slug: "test-deck", OwnerID: ownerID, IsActive: true}
	deck.SetCards(DeckCardIDs(cardIDs))
	if err := store.CreateDeck(context.Background(), deck); err != nil {
		t.Fatalf("create deck: %v", err)
	}
	return deck
}
