package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/pokepocketdata/ppdd/internal/models"
)

// ResolveCardFunc looks a card up by id. It returns a *NotFoundError when the
// id does not exist; any other error is treated as an infrastructure failure.
type ResolveCardFunc func(ctx context.Context, id string) (*models.Card, error)

// ValidateDeck checks a full deck card list: exactly models.DeckSize entries,
// at most models.MaxCopiesPerCard copies of any card, and every id resolvable.
// Missing ids are reported together in one failure. resolve may be nil to skip
// the existence check.
func ValidateDeck(ctx context.Context, cardIDs []string, resolve ResolveCardFunc) error {
	var f failures

	if len(cardIDs) != models.DeckSize {
		f.add("cards", "deck must contain exactly %d cards, got %d", models.DeckSize, len(cardIDs))
	}

	counts := make(map[string]int, len(cardIDs))
	var unique []string
	for _, id := range cardIDs {
		if counts[id] == 0 {
			unique = append(unique, id)
		}
		counts[id]++
	}
	for _, id := range unique {
		if n := counts[id]; n > models.MaxCopiesPerCard {
			f.add("cards", "card %s appears %d times; at most %d copies are allowed", id, n, models.MaxCopiesPerCard)
		}
	}

	if resolve != nil {
		var missing []string
		for _, id := range unique {
			if _, err := resolve(ctx, id); err != nil {
				if IsNotFound(err) {
					missing = append(missing, id)
					continue
				}
				return fmt.Errorf("resolving card %s: %w", id, err)
			}
		}
		if len(missing) > 0 {
			f.add("cards", "unknown card ids: %s", strings.Join(missing, ", "))
		}
	}

	return f.err("deck")
}
