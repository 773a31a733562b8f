package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pokepocketdata/ppdd/internal/auth"
	"github.com/pokepocketdata/ppdd/internal/models"
)

const userContextKey = "ppdd.user"

// Authenticator resolves an access token to the user it was issued to
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// ErrNoUser means the request reached a handler without passing BearerAuth
var ErrNoUser = errors.New("no authenticated user on request")

// BearerAuth requires "Authorization: Bearer <access token>" and stores the
// resolved user on the context. Rejected tokens answer 401; any other
// authenticator failure (inactive user, storage outage) goes to fail, which
// writes the reply. A nil fail answers 401 for everything.
func BearerAuth(a Authenticator, fail func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
				"code":  "AUTH_REQUIRED",
			})
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <access_token>",
				"code":  "AUTH_INVALID_FORMAT",
			})
			return
		}

		user, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			if fail != nil && !errors.Is(err, auth.ErrInvalidToken) {
				fail(c, err)
				c.Abort()
				return
			}
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Could not validate credentials",
				"code":  "AUTH_INVALID_TOKEN",
			})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by BearerAuth
func CurrentUser(c *gin.Context) (*models.User, error) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, ErrNoUser
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}

// SetCurrentUser stores user on the context as BearerAuth would
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(userContextKey, user)
}
