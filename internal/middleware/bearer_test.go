package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/pokepocketdata/ppdd/internal/auth"
	"github.com/pokepocketdata/ppdd/internal/models"
)

type tokenTable map[string]*models.User

func (t tokenTable) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := t[token]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: unknown", auth.ErrInvalidToken)
}

type failingAuthenticator struct{ err error }

func (f failingAuthenticator) Authenticate(context.Context, string) (*models.User, error) {
	return nil, f.err
}

func TestBearerAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := tokenTable{"good-token": {ID: "user-1", IsActive: true}}

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{"valid token", "Bearer good-token", http.StatusOK, "user-1"},
		{"scheme is case insensitive", "bearer good-token", http.StatusOK, "user-1"},
		{"missing header", "", http.StatusUnauthorized, "AUTH_REQUIRED"},
		{"no scheme", "good-token", http.StatusUnauthorized, "AUTH_INVALID_FORMAT"},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "AUTH_INVALID_FORMAT"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "AUTH_INVALID_FORMAT"},
		{"unknown token", "Bearer bad-token", http.StatusUnauthorized, "AUTH_INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(BearerAuth(users, nil))
			router.GET("/me", func(c *gin.Context) {
				user, err := CurrentUser(c)
				if err != nil {
					c.String(http.StatusInternalServerError, err.Error())
					return
				}
				c.String(http.StatusOK, user.ID)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestCurrentUserWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := CurrentUser(c)
	assert.ErrorIs(t, err, ErrNoUser)

	SetCurrentUser(c, &models.User{ID: "u"})
	user, err := CurrentUser(c)
	assert.NoError(t, err)
	assert.Equal(t, "u", user.ID)
}

func TestBearerAuthHandsOffNonTokenFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	errDeactivated := errors.New("user is deactivated")

	fail := func(c *gin.Context, err error) {
		status := http.StatusInternalServerError
		if errors.Is(err, errDeactivated) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
	}

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"rejected token", fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized, "AUTH_INVALID_TOKEN"},
		{"inactive user", errDeactivated, http.StatusForbidden, "deactivated"},
		{"storage outage", errors.New("database is locked"), http.StatusInternalServerError, "database is locked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			router := gin.New()
			router.Use(BearerAuth(failingAuthenticator{err: tt.err}, fail))
			router.GET("/me", func(c *gin.Context) { reached = true })

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer some-token")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			assert.False(t, reached, "handler must not run")
		})
	}
}
