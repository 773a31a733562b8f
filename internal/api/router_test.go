package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/auth"
	"github.com/pokepocketdata/ppdd/internal/cache"
	"github.com/pokepocketdata/ppdd/internal/config"
	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/database/databasetest"
	"github.com/pokepocketdata/ppdd/internal/models"
	"github.com/pokepocketdata/ppdd/internal/services"
)

const testAdminKey = "admin-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeGoogle accepts tokens of the form "google:<subject>"
type fakeGoogle struct{}

func (fakeGoogle) Verify(_ context.Context, idToken string) (*models.ExternalIdentity, error) {
	sub, ok := strings.CutPrefix(idToken, "google:")
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: rejected", auth.ErrInvalidToken)
	}
	return &models.ExternalIdentity{Subject: sub, Email: sub + "@example.com", Name: sub}, nil
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *database.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := databasetest.NewStore(t)
	cfg := &config.Config{
		AdminKey:       testAdminKey,
		AllowedOrigins: []string{"http://localhost:4200"},
		AuthRateLimit:  100,
		AuthRateBurst:  100,
		CardImagesDir:  t.TempDir(),
	}
	authService := services.NewAuthService(store, fakeGoogle{}, auth.NewTokenIssuer("test-secret", time.Hour), zap.NewNop())
	router := NewRouter(Dependencies{
		Config: cfg,
		Store:  store,
		Auth:   authService,
		Stats:  cache.NoopStatsCache{},
		Log:    zap.NewNop(),
	})
	return &testServer{t: t, router: router, store: store}
}

type request struct {
	method   string
	path     string
	body     string
	token    string
	adminKey string
}

func (s *testServer) do(r request) *httptest.ResponseRecorder {
	s.t.Helper()
	var body *strings.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(r.method, r.path, body)
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.adminKey != "" {
		req.Header.Set("X-Admin-Key", r.adminKey)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signIn creates a user through the Google callback and returns their access token and id
func (s *testServer) signIn(subject string) (string, string) {
	s.t.Helper()
	w := s.do(request{method: http.MethodPost, path: "/api/auth/google/callback", body: `{"token":"google:` + subject + `"}`})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"user_id"`
		} `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken, resp.User.ID
}

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details []struct {
		Field  string `json:"field"`
		Reason string `json:"reason"`
	} `json:"details"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (b errorBody) fields() []string {
	out := make([]string, len(b.Details))
	for i, d := range b.Details {
		out[i] = d.Field
	}
	return out
}

const charmeleonJSON = `{
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
		{"ability_ref": "fire-claws", "energy_cost": {"Fire": 2, "Colorless": 1}, "ability_effect": "Deals 60 damage.", "damage": 60}
	]
}`

func TestHealthAndRoot(t *testing.T) {
	s := newTestServer(t)

	w := s.do(request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = s.do(request{method: http.MethodGet, path: "/"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PokePocketData API")

	w = s.do(request{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(request{method: http.MethodGet, path: "/api/auth/status"})
	assert.Contains(t, w.Body.String(), `"auth_enabled":true`)

	token, userID := s.signIn("misty")

	w = s.do(request{method: http.MethodGet, path: "/api/auth/me", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID)

	w = s.do(request{method: http.MethodPost, path: "/api/auth/google/callback?token=google:misty"})
	assert.Equal(t, http.StatusOK, w.Code, "token may come from the query string")

	w = s.do(request{method: http.MethodPost, path: "/api/auth/google/callback", body: `{"token":"forged"}`})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(request{method: http.MethodGet, path: "/api/auth/me"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(request{method: http.MethodGet, path: "/api/cards/", token: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/auth/admin/verify", token: token, adminKey: testAdminKey})
	assert.Contains(t, w.Body.String(), `"valid":true`)
}

func TestDeactivatedUserIsForbidden(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.signIn("giovanni")

	require.NoError(t, s.store.DB().Model(&models.User{}).Where("id = ?", userID).Update("is_active", false).Error)

	w := s.do(request{method: http.MethodGet, path: "/api/auth/me", token: token})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "USER_INACTIVE", decodeError(t, w).Code)

	w = s.do(request{method: http.MethodGet, path: "/api/cards/", token: token})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateCardEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signIn("brock")

	w := s.do(request{method: http.MethodPost, path: "/api/cards/pokemon", body: charmeleonJSON, token: token})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "admin key required")

	w = s.do(request{method: http.MethodPost, path: "/api/cards/pokemon", body: charmeleonJSON, token: token, adminKey: testAdminKey})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var card models.Card
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Equal(t, models.StageStage1, card.Pokemon.Stage, "legacy spelling is normalised")

	w = s.do(request{method: http.MethodGet, path: "/api/cards/" + card.ID, token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fire-claws")

	w = s.do(request{method: http.MethodPost, path: "/api/cards/pokemon", body: charmeleonJSON, token: token, adminKey: testAdminKey})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, w).Code)

	w = s.do(request{method: http.MethodGet, path: "/api/cards/" + uuid.NewString(), token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCardErrors(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signIn("erika")

	tests := []struct {
		name       string
		body       string
		status     int
		code       string
		wantFields []string
	}{
		{
			name:   "malformed json",
			body:   `{"name": "Charmeleon",`,
			status: http.StatusBadRequest,
			code:   "MALFORMED_BODY",
		},
		{
			name:       "type mismatch names the field",
			body:       strings.Replace(charmeleonJSON, `"hp": 90`, `"hp": "ninety"`, 1),
			status:     http.StatusUnprocessableEntity,
			code:       "SCHEMA_ERROR",
			wantFields: []string{"hp"},
		},
		{
			name:       "unknown field",
			body:       strings.Replace(charmeleonJSON, `"hp": 90`, `"hp": 90, "attack": 3`, 1),
			status:     http.StatusUnprocessableEntity,
			code:       "SCHEMA_ERROR",
			wantFields: []string{"attack"},
		},
		{
			name:       "stage1 without evolves_from",
			body:       strings.Replace(charmeleonJSON, `"evolves_from": "Charmander",`, ``, 1),
			status:     http.StatusUnprocessableEntity,
			code:       "VALIDATION_ERROR",
			wantFields: []string{"evolves_from"},
		},
		{
			name:       "pack from another set",
			body:       strings.Replace(charmeleonJSON, `"(A1) Charizard"`, `"(A1a) Mew"`, 1),
			status:     http.StatusUnprocessableEntity,
			code:       "VALIDATION_ERROR",
			wantFields: []string{"pack_name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(request{method: http.MethodPost, path: "/api/cards/pokemon", body: tt.body, token: token, adminKey: testAdminKey})
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			for _, f := range tt.wantFields {
				assert.Contains(t, body.fields(), f)
			}
		})
	}

	var n int64
	require.NoError(t, s.store.DB().Model(&models.Card{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestListCardsQueryValidation(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signIn("sabrina")
	databasetest.CreateCards(t, s.store, 3)

	w := s.do(request{method: http.MethodGet, path: "/api/cards/?limit=2&card_type=trainer", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	var page models.CardListResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Cards, 2)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.True(t, page.HasMore)

	w = s.do(request{method: http.MethodGet, path: "/api/cards/?limit=500&skip=-1", token: token})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.ElementsMatch(t, []string{"skip", "limit"}, decodeError(t, w).fields())

	w = s.do(request{method: http.MethodGet, path: "/api/cards/sets", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mythical Island (A1a)")
}

func TestCardImageUpload(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signIn("koga")
	cardID := databasetest.CreateCards(t, s.store, 1)[0]

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "card.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/cards/"+cardID+"/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Admin-Key", testAdminKey)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var card models.Card
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	require.True(t, strings.HasPrefix(card.ImageURL, services.CardImagesURLPrefix))

	w = s.do(request{method: http.MethodGet, path: card.ImageURL})
	assert.Equal(t, http.StatusOK, w.Code, "uploaded images are served")

	w = s.do(request{method: http.MethodPost, path: "/api/cards/" + cardID + "/image", token: token, adminKey: testAdminKey})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "missing file field")
}

func deckJSON(name string, cards []string) string {
	b, _ := json.Marshal(map[string]any{"name": name, "cards": cards})
	return string(b)
}

func TestDeckEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.signIn("ash")
	otherToken, _ := s.signIn("gary")
	cards := databasetest.CreateCards(t, s.store, 11)
	legal := databasetest.DeckCardIDs(cards[:10])

	w := s.do(request{method: http.MethodPost, path: "/api/decks/", body: deckJSON("Pikachu Rush", legal), token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var deck models.DeckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deck))
	assert.Equal(t, userID, deck.OwnerID)
	assert.Equal(t, "pikachu-rush", deck.Slug)
	assert.Len(t, deck.Cards, models.DeckSize)

	w = s.do(request{method: http.MethodPost, path: "/api/decks/", body: deckJSON("Short", legal[:19]), token: token})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)

	threeCopies := append([]string(nil), legal...)
	threeCopies[2] = threeCopies[0]
	w = s.do(request{method: http.MethodPost, path: "/api/decks/", body: deckJSON("Greedy", threeCopies), token: token})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(request{method: http.MethodPut, path: "/api/decks/" + deck.ID, body: `{"name": "Hijacked"}`, token: otherToken})
	assert.Equal(t, http.StatusForbidden, w.Code)

	replacement := databasetest.DeckCardIDs(cards[1:11])
	body, _ := json.Marshal(map[string]any{"cards": replacement, "is_active": false})
	w = s.do(request{method: http.MethodPut, path: "/api/decks/" + deck.ID, body: string(body), token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deck))
	assert.Equal(t, replacement, deck.CardIDs)
	assert.False(t, deck.IsActive)

	w = s.do(request{method: http.MethodGet, path: "/api/decks/", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), deck.ID)

	w = s.do(request{method: http.MethodGet, path: "/api/decks/" + uuid.NewString(), token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func gameJSON(deckID string, player, opponent, turns int, outcome string) string {
	return fmt.Sprintf(`{
		"game_data": {"opponents_points": %d, "player_points": %d, "turns_played": %d, "player_deck_used": %q, "opponent_name": "Misty"},
		"game_record_data": {"outcome": %q, "ranking_change": 15}
	}`, opponent, player, turns, deckID, outcome)
}

func TestGameEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.signIn("red")
	cards := databasetest.CreateCards(t, s.store, 10)
	deck := databasetest.CreateDeck(t, s.store, userID, cards)

	w := s.do(request{method: http.MethodPost, path: "/api/games/", body: gameJSON(deck.ID, 3, 2, 11, "win"), token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"outcome":"WIN"`)

	w = s.do(request{method: http.MethodPost, path: "/api/games/", body: gameJSON(deck.ID, 3, 4, 11, "LOSS"), token: token})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeError(t, w).fields(), "game_data")

	w = s.do(request{method: http.MethodPost, path: "/api/games/", body: gameJSON(deck.ID, 1, 3, 7, "WIN"), token: token})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeError(t, w).fields(), "game_record_data.outcome")

	w = s.do(request{method: http.MethodPost, path: "/api/games/", body: gameJSON(uuid.NewString(), 3, 1, 7, "WIN"), token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(request{method: http.MethodPost, path: "/api/games/", body: `{"game_data": {"player_points": 3}, "game_record_data": {"outcome": "WIN"}}`, token: token})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeError(t, w).fields(), "game_data.turns_played")

	w = s.do(request{method: http.MethodGet, path: "/api/games/statistics/" + userID, token: token})
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.PlayerStatistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.TotalGames)
	assert.Equal(t, 100.0, stats.WinRate)
	assert.EqualValues(t, 15, stats.NetRankingChange)

	w = s.do(request{method: http.MethodGet, path: "/api/games/?limit=10", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_count":1`)
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signIn("giovanni")
	databasetest.CreateCards(t, s.store, 2)

	w := s.do(request{method: http.MethodGet, path: "/api/admin/summary", token: token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(request{method: http.MethodGet, path: "/api/admin/summary", token: token, adminKey: testAdminKey})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cards":2`)
	assert.Contains(t, w.Body.String(), `"users":1`)

	w = s.do(request{method: http.MethodPost, path: "/api/admin/metrics/refresh", token: token, adminKey: testAdminKey})
	assert.Equal(t, http.StatusOK, w.Code)
}
