package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokepocketdata/ppdd/internal/models"
)

const pokemonJSON = `{
	"name": "Charmeleon",
	"set_name": "Genetic Apex (A1)",
	"pack_name": "(A1) Charizard",
	"collection_number": "034",
	"rarity": "2 Diamond",
	"hp": 90,
	"type": "Fire",
	"stage": "Stage 1",
	"evolves_from": "Charmander",
	"weakness": "Water",
	"retreat_cost": 2,
	"abilities": [
		{"ability_ref": "fire-claws", "energy_cost": {"Fire": 2}, "ability_effect": "Deals 60 damage.", "damage": 60}
	]
}`

var fixedNow = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

func requireSchemaError(t *testing.T, err error) *SchemaError {
	t.Helper()
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	return serr
}

func schemaFields(serr *SchemaError) []string {
	out := make([]string, len(serr.Fields))
	for i, f := range serr.Fields {
		out[i] = f.Field
	}
	return out
}

func TestBind_ValidPokemon(t *testing.T) {
	var req models.PokemonCardRequest
	require.NoError(t, Bind(strings.NewReader(pokemonJSON), &req))

	assert.Equal(t, models.StageStage1, req.Stage, "spaced stage spelling is normalised")
	require.Len(t, req.Abilities, 1)
	assert.Equal(t, 2, req.Abilities[0].EnergyCost["Fire"])

	card := req.ToCard()
	assert.Equal(t, models.CardTypePokemon, card.CardType)
	assert.Equal(t, 90, card.Pokemon.HP)
	assert.NoError(t, ValidateCard(card))
}

func TestBind_SchemaErrors(t *testing.T) {
	tests := []struct {
		name       string
		replace    [2]string
		wantFields []string
	}{
		{"missing name", [2]string{`"name": "Charmeleon",`, ``}, []string{"name"}},
		{"zero hp", [2]string{`"hp": 90`, `"hp": 0`}, []string{"hp"}},
		{"negative retreat cost", [2]string{`"retreat_cost": 2`, `"retreat_cost": -1`}, []string{"retreat_cost"}},
		{"unknown rarity", [2]string{`"2 Diamond"`, `"5 Diamond"`}, []string{"rarity"}},
		{"unknown type", [2]string{`"type": "Fire"`, `"type": "Fairy"`}, []string{"type"}},
		{"None is not a type", [2]string{`"type": "Fire"`, `"type": "None"`}, []string{"type"}},
		{"unknown stage", [2]string{`"Stage 1"`, `"Mega"`}, []string{"stage"}},
		{"negative damage", [2]string{`"damage": 60`, `"damage": -10`}, []string{"abilities[0].damage"}},
		{"missing ability effect", [2]string{`, "ability_effect": "Deals 60 damage."`, ``}, []string{"abilities[0].ability_effect"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Replace(pokemonJSON, tt.replace[0], tt.replace[1], 1)
			require.NotEqual(t, pokemonJSON, body, "replacement did not apply")

			var req models.PokemonCardRequest
			serr := requireSchemaError(t, Bind(strings.NewReader(body), &req))
			assert.Equal(t, tt.wantFields, schemaFields(serr))
		})
	}
}

func TestBind_WeaknessNoneAllowed(t *testing.T) {
	body := strings.Replace(pokemonJSON, `"weakness": "Water"`, `"weakness": "None"`, 1)

	var req models.PokemonCardRequest
	assert.NoError(t, Bind(strings.NewReader(body), &req))
}

func TestBind_TypeMismatchNamesTheField(t *testing.T) {
	body := strings.Replace(pokemonJSON, `"hp": 90`, `"hp": "ninety"`, 1)

	var req models.PokemonCardRequest
	serr := requireSchemaError(t, Bind(strings.NewReader(body), &req))
	require.Len(t, serr.Fields, 1)
	assert.Equal(t, "hp", serr.Fields[0].Field)
	assert.Contains(t, serr.Fields[0].Reason, "expected integer")
}

func TestBind_UnknownFieldRejected(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want []FieldError
	}{
		{
			name: "top level",
			old:  `"hp": 90`,
			new:  `"hp": 90, "attack_power": 3`,
			want: []FieldError{{Field: "attack_power", Reason: "unknown field"}},
		},
		{
			name: "inside an ability",
			old:  `"ability_ref": "fire-claws"`,
			new:  `"ability_ref": "fire-claws", "bogus": true`,
			want: []FieldError{{Field: "abilities[0].bogus", Reason: "unknown field"}},
		},
		{
			name: "every unknown field is listed",
			old:  `"ability_ref": "fire-claws"`,
			new:  `"ability_ref": "fire-claws", "bogus": true, "cost": 1`,
			want: []FieldError{
				{Field: "abilities[0].bogus", Reason: "unknown field"},
				{Field: "abilities[0].cost", Reason: "unknown field"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Replace(pokemonJSON, tt.old, tt.new, 1)

			var req models.PokemonCardRequest
			serr := requireSchemaError(t, Bind(strings.NewReader(body), &req))
			assert.Equal(t, tt.want, serr.Fields)
		})
	}
}

func TestBind_NestedTypeMismatchKeepsIndex(t *testing.T) {
	body := strings.Replace(pokemonJSON, `"damage": 60`, `"damage": "ten"`, 1)

	var req models.PokemonCardRequest
	serr := requireSchemaError(t, Bind(strings.NewReader(body), &req))
	assert.Equal(t, []FieldError{{Field: "abilities[0].damage", Reason: "expected integer, got string"}}, serr.Fields)

	body = strings.Replace(pokemonJSON, `{"Fire": 2}`, `{"Fire": 1.5}`, 1)
	serr = requireSchemaError(t, Bind(strings.NewReader(body), &req))
	assert.Equal(t, []string{"abilities[0].energy_cost.Fire"}, schemaFields(serr))
}

func TestBind_GameUnknownNestedField(t *testing.T) {
	body := `{
		"game_data": {"opponents_points": 1, "player_points": 3, "turns_played": 9, "extra": 1,
			"player_deck_used": "6f1c1d3e-2b9e-4b43-9a55-0d0c8f3b7a10", "opponent_name": "Misty"},
		"game_record_data": {"outcome": "WIN", "ranking_change": "lots"}
	}`

	var req models.GameCreateRequest
	serr := requireSchemaError(t, Bind(strings.NewReader(body), &req))
	assert.Equal(t, []FieldError{
		{Field: "game_data.extra", Reason: "unknown field"},
		{Field: "game_record_data.ranking_change", Reason: "expected integer, got string"},
	}, serr.Fields)
}

func TestBind_MalformedBody(t *testing.T) {
	for _, body := range []string{`{"name":`, `{"name": }`, `{} {}`, `not json`} {
		var req models.TrainerCardRequest
		err := Bind(strings.NewReader(body), &req)
		assert.True(t, errors.Is(err, ErrMalformedBody), "body %q: got %v", body, err)
	}
}

func TestBind_EmptyBody(t *testing.T) {
	var req models.TrainerCardRequest
	serr := requireSchemaError(t, Bind(strings.NewReader(""), &req))
	assert.Equal(t, "request body is required", serr.Fields[0].Reason)
}

func TestBind_ReportsEveryMissingField(t *testing.T) {
	var req models.TrainerCardRequest
	serr := requireSchemaError(t, Bind(strings.NewReader(`{}`), &req))
	assert.ElementsMatch(t, []string{
		"name", "set_name", "pack_name", "collection_number", "rarity", "support_type", "effect_description",
	}, schemaFields(serr))
}

func TestBind_GameNestedPaths(t *testing.T) {
	body := `{
		"game_data": {"opponents_points": -1, "player_points": 3, "player_deck_used": "not-a-uuid", "opponent_name": "Ash"},
		"game_record_data": {"outcome": "forfeit"}
	}`

	var req models.GameCreateRequest
	serr := requireSchemaError(t, Bind(strings.NewReader(body), &req))
	assert.ElementsMatch(t, []string{
		"game_data.opponents_points",
		"game_data.turns_played",
		"game_data.player_deck_used",
		"game_record_data.outcome",
	}, schemaFields(serr))
}

func TestBind_GameOutcomeAnyCase(t *testing.T) {
	body := `{
		"game_data": {"opponents_points": 1, "player_points": 3, "turns_played": 9,
			"player_deck_used": "6f1c1d3e-2b9e-4b43-9a55-0d0c8f3b7a10", "opponent_name": "Misty"},
		"game_record_data": {"outcome": "win", "ranking_change": 12}
	}`

	var req models.GameCreateRequest
	require.NoError(t, Bind(strings.NewReader(body), &req))
	assert.Equal(t, models.OutcomeWin, req.GameRecordData.Outcome)

	details, record := req.ToEntities("player-1", fixedNow)
	assert.Equal(t, fixedNow, details.DatePlayed, "date_played defaults to now")
	assert.NoError(t, ValidateGameRecord(details, record))
}

func TestBind_DeckCardsRequired(t *testing.T) {
	var req models.DeckCreateRequest
	serr := requireSchemaError(t, Bind(strings.NewReader(`{"name": "Mewtwo ex", "cards": ["a", ""]}`), &req))
	assert.Equal(t, []string{"cards[1]"}, schemaFields(serr))
}

func TestFieldPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PokemonCardRequest.CardFields.name", "name"},
		{"PokemonCardRequest.abilities[0].damage", "abilities[0].damage"},
		{"GameCreateRequest.game_data.turns_played", "game_data.turns_played"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fieldPath(tt.in))
	}
}
