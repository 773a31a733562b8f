package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pokepocketdata/ppdd/internal/models"
)

// ValidateCard checks the rules that span several fields of a card:
// the set/pack correspondence and, for Pokemon, evolution and ability rules.
// Every violated rule is reported in the returned *ValidationError.
func ValidateCard(card *models.Card) error {
	var f failures

	checkSetAndPack(&f, card.SetName, card.PackName)

	switch card.CardType {
	case models.CardTypePokemon:
		if card.Pokemon == nil {
			f.add("", "pokemon card is missing its pokemon details")
		} else {
			checkPokemon(&f, card.Name, card.Pokemon)
		}
		if card.Trainer != nil {
			f.add("", "pokemon card cannot carry trainer details")
		}
	case models.CardTypeTrainer:
		if card.Trainer == nil {
			f.add("", "trainer card is missing its trainer details")
		}
		if card.Pokemon != nil {
			f.add("", "trainer card cannot carry pokemon details")
		}
	default:
		f.add("card_type", "unknown card type %q", card.CardType)
	}

	return f.err("card")
}

func checkSetAndPack(f *failures, setName, packName string) {
	set, ok := models.LookupSet(setName)
	if !ok {
		f.add("set_name", "unknown set %q; known sets: %s", setName, strings.Join(models.KnownSetNames(), ", "))
		return
	}

	if code := models.SetCodeOf(packName); code != "" && code != set.Code {
		f.add("pack_name", "pack %q does not belong to set %q", packName, setName)
		return
	}
	if !set.HasPack(packName) {
		f.add("pack_name", "unknown pack %q for set %q; expected one of: %s", packName, setName, strings.Join(set.Packs, ", "))
	}
}

func checkPokemon(f *failures, name string, p *models.PokemonDetails) {
	evolvesFrom := strings.TrimSpace(p.EvolvesFrom)
	switch {
	case p.Stage.IsEvolved() && evolvesFrom == "":
		f.add("evolves_from", "%s Pokemon must name the Pokemon it evolves from", p.Stage)
	case p.Stage == models.StageBasic && evolvesFrom != "":
		f.add("evolves_from", "Basic Pokemon cannot evolve from another Pokemon")
	case evolvesFrom != "" && strings.EqualFold(evolvesFrom, strings.TrimSpace(name)):
		f.add("evolves_from", "a Pokemon cannot evolve from itself")
	}

	seen := make(map[string]int, len(p.Abilities))
	for i, a := range p.Abilities {
		path := fmt.Sprintf("abilities[%d]", i)

		if first, dup := seen[a.AbilityRef]; dup {
			f.add(path+".ability_ref", "duplicates abilities[%d].ability_ref %q", first, a.AbilityRef)
		} else {
			seen[a.AbilityRef] = i
		}

		cost := a.EnergyCost.Data()
		keys := make([]string, 0, len(cost))
		for k := range cost {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !models.ElementType(k).IsValid() {
				f.add(path+".energy_cost", "unknown energy type %q", k)
				continue
			}
			if cost[k] < 1 {
				f.add(path+".energy_cost."+k, "must be at least 1, got %d", cost[k])
			}
		}
	}
}
