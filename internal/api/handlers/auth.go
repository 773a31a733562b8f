package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/middleware"
	"github.com/pokepocketdata/ppdd/internal/services"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

type AuthHandler struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type googleCallbackRequest struct {
	Token string `json:"token" binding:"required"`
}

// GoogleCallback exchanges a Google ID token for an access token. The token is
// read from the JSON body {"token": ...} or, failing that, the token query parameter.
// POST /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		var req googleCallbackRequest
		if !bindJSON(c, h.log, "user", &req) {
			return
		}
		token = strings.TrimSpace(req.Token)
	}
	if token == "" {
		respondError(c, h.log, &validation.SchemaError{Fields: []validation.FieldError{{Field: "token", Reason: "is required"}}})
		return
	}

	resp, err := h.auth.SignIn(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
