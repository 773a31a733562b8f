package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/auth"
	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/models"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

// ErrInactiveUser is returned when a deactivated account signs in or presents a token
var ErrInactiveUser = errors.New("user account is inactive")

// TokenResponse is returned after a successful sign-in
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// AuthService exchanges Google ID tokens for API access tokens and resolves
// access tokens back to users
type AuthService struct {
	store    *database.Store
	verifier auth.IdentityVerifier
	tokens   *auth.TokenIssuer
	log      *zap.Logger
}

func NewAuthService(store *database.Store, verifier auth.IdentityVerifier, tokens *auth.TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{store: store, verifier: verifier, tokens: tokens, log: log.Named("auth")}
}

// SignIn verifies a Google ID token, creates or refreshes the matching user and
// issues an access token for them
func (s *AuthService) SignIn(ctx context.Context, idToken string) (*TokenResponse, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.store.Transaction(ctx, func(tx *database.Store) error {
		user, err = tx.UpsertUserFromIdentity(ctx, *identity)
		return err
	})
	if err != nil {
		if validation.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.Info("user signed in", zap.String("user_id", user.ID))
	return &TokenResponse{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves an access token to an active user. Tokens for users that
// no longer exist are invalid.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if validation.IsNotFound(err) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}
