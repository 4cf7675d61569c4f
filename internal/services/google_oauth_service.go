// internal/services/google_oauth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/NaiYuk/Taskun/internal/config"
	"github.com/NaiYuk/Taskun/internal/models"
	"github.com/NaiYuk/Taskun/internal/repositories"
)

var (
	// ErrNoToken means the user has never completed the authorization flow.
	ErrNoToken = errors.New("no google tokens found for user")
	// ErrNoRefreshToken means the stored record cannot be refreshed; the
	// user has to go through the authorization flow again.
	ErrNoRefreshToken = errors.New("no refresh token found")
)

// providerTimeout bounds every call to Google's token endpoint.
const providerTimeout = 10 * time.Second

// GoogleOAuthService owns the OAuth token lifecycle: consent URL, code
// exchange, persistence and silent refresh of expired access tokens.
type GoogleOAuthService interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	SaveTokens(ctx context.Context, userID string, tok *oauth2.Token) error
	GetValidAccessToken(ctx context.Context, userID string) (string, error)
	Refresh(ctx context.Context, userID string) (string, error)
}

type googleOAuthService struct {
	conf *oauth2.Config
	repo repositories.GoogleTokenRepository
	now  func() time.Time
}

func NewGoogleOAuthService(cfg config.GoogleConfig, repo repositories.GoogleTokenRepository) GoogleOAuthService {
	return &googleOAuthService{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/calendar.events",
				"https://www.googleapis.com/auth/userinfo.email",
			},
		},
		repo: repo,
		now:  time.Now,
	}
}

// AuthURL builds the consent-screen URL. Offline access plus a forced
// consent prompt so Google issues a refresh token on every authorization.
func (s *googleOAuthService) AuthURL(state string) string {
	return s.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (s *googleOAuthService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	tok, err := s.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func (s *googleOAuthService) SaveTokens(ctx context.Context, userID string, tok *oauth2.Token) error {
	return s.repo.Upsert(ctx, &models.GoogleToken{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiryDate:   tok.Expiry,
	})
}

// GetValidAccessToken is the single staleness decision point: a stored token
// past its expiry triggers exactly one refresh, a live one is returned
// unchanged. The comparison is exact, with no skew margin.
func (s *googleOAuthService) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	rec, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrNoToken
	}

	if s.now().After(rec.ExpiryDate) {
		log.Printf("[google][token] expired for userID=%s (expiry=%s), refreshing", userID, rec.ExpiryDate.Format(time.RFC3339))
		return s.Refresh(ctx, userID)
	}
	return rec.AccessToken, nil
}

// Refresh trades the stored refresh token for a fresh access token and
// persists the new set. Failures are not retried here; the caller must
// restart the authorization flow.
func (s *googleOAuthService) Refresh(ctx context.Context, userID string) (string, error) {
	rec, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if rec == nil || rec.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	src := s.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: rec.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}

	if err := s.SaveTokens(ctx, userID, tok); err != nil {
		return "", err
	}
	log.Printf("[google][token] refreshed for userID=%s new_expiry=%s", userID, tok.Expiry.Format(time.RFC3339))
	return tok.AccessToken, nil
}
