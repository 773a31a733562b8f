package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pokepocketdata/ppdd/internal/models"
)

// GoogleTokenInfoURL is Google's ID token introspection endpoint
const GoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// ErrProviderUnavailable is wrapped by failures to reach or understand the identity
// provider, as opposed to the provider rejecting the token
var ErrProviderUnavailable = errors.New("identity provider unavailable")

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// IdentityVerifier turns an identity provider token into a verified identity
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*models.ExternalIdentity, error)
}

// GoogleVerifier verifies Google ID tokens against the tokeninfo endpoint
type GoogleVerifier struct {
	ClientID string
	Endpoint string
	Client   *http.Client
	now      func() time.Time
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		ClientID: clientID,
		Endpoint: GoogleTokenInfoURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

type tokenInfo struct {
	Issuer        string `json:"iss"`
	Audience      string `json:"aud"`
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Expiry        string `json:"exp"`
}

func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (*models.ExternalIdentity, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty id token", ErrInvalidToken)
	}
	if g.ClientID == "" {
		return nil, fmt.Errorf("%w: GOOGLE_CLIENT_ID is not configured", ErrProviderUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: tokeninfo request failed: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, fmt.Errorf("%w: rejected by Google", ErrInvalidToken)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tokeninfo returned status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode tokeninfo response: %v", ErrProviderUnavailable, err)
	}

	if !googleIssuers[info.Issuer] {
		return nil, fmt.Errorf("%w: wrong issuer %q", ErrInvalidToken, info.Issuer)
	}
	if info.Audience != g.ClientID {
		return nil, fmt.Errorf("%w: token was issued for another client", ErrInvalidToken)
	}
	if exp, err := strconv.ParseInt(info.Expiry, 10, 64); err != nil || time.Unix(exp, 0).Before(g.now()) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}
	if info.Subject == "" || info.Email == "" {
		return nil, fmt.Errorf("%w: token lacks subject or email", ErrInvalidToken)
	}
	if info.EmailVerified == "false" {
		return nil, fmt.Errorf("%w: email not verified", ErrInvalidToken)
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	return &models.ExternalIdentity{
		Subject: info.Subject,
		Email:   info.Email,
		Name:    name,
		Picture: info.Picture,
	}, nil
}
