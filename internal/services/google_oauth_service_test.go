package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/NaiYuk/Taskun/internal/models"
)

// fakeTokenRepo implements GoogleTokenRepository in memory with the same
// upsert semantics as the SQL version: an empty refresh token never clobbers
// a stored one.
type fakeTokenRepo struct {
	records map[string]models.GoogleToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{records: map[string]models.GoogleToken{}}
}

func (f *fakeTokenRepo) Upsert(_ context.Context, rec *models.GoogleToken) error {
	stored := *rec
	if stored.RefreshToken == "" {
		if prev, ok := f.records[rec.UserID]; ok {
			stored.RefreshToken = prev.RefreshToken
		}
	}
	f.records[rec.UserID] = stored
	return nil
}

func (f *fakeTokenRepo) FindByUserID(_ context.Context, userID string) (*models.GoogleToken, error) {
	rec, ok := f.records[userID]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

// tokenEndpoint is a fake Google token endpoint. It counts calls and serves
// a fixed token response.
func tokenEndpoint(t *testing.T, calls *int, refreshToken string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		body := `{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600`
		if refreshToken != "" {
			body += fmt.Sprintf(`,"refresh_token":%q`, refreshToken)
		}
		body += `}`
		fmt.Fprint(w, body)
	}))
}

func newTestOAuthService(repo *fakeTokenRepo, tokenURL string, now time.Time) *googleOAuthService {
	return &googleOAuthService{
		conf: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "http://localhost/integrations/google/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: tokenURL,
			},
			Scopes: []string{
				"https://www.googleapis.com/auth/calendar.events",
				"https://www.googleapis.com/auth/userinfo.email",
			},
		},
		repo: repo,
		now:  func() time.Time { return now },
	}
}

func TestAuthURL(t *testing.T) {
	svc := newTestOAuthService(newFakeTokenRepo(), "unused", time.Now())

	url := svc.AuthURL("my-state")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "prompt=consent")
	assert.Contains(t, url, "state=my-state")
	assert.Contains(t, url, "calendar.events")
	assert.Contains(t, url, "userinfo.email")

	// deterministic
	assert.Equal(t, url, svc.AuthURL("my-state"))
}

func TestGetValidAccessToken_LiveTokenReturnedUnchanged(t *testing.T) {
	calls := 0
	srv := tokenEndpoint(t, &calls, "")
	defer srv.Close()

	now := time.Now()
	repo := newFakeTokenRepo()
	repo.records["u1"] = models.GoogleToken{
		UserID:       "u1",
		AccessToken:  "stored-token",
		RefreshToken: "stored-refresh",
		ExpiryDate:   now.Add(time.Hour),
	}
	svc := newTestOAuthService(repo, srv.URL, now)

	got, err := svc.GetValidAccessToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "stored-token", got)
	assert.Equal(t, 0, calls, "no provider call for a live token")
}

func TestGetValidAccessToken_ExpiredTriggersSingleRefresh(t *testing.T) {
	calls := 0
	srv := tokenEndpoint(t, &calls, "")
	defer srv.Close()

	now := time.Now()
	repo := newFakeTokenRepo()
	repo.records["u1"] = models.GoogleToken{
		UserID:       "u1",
		AccessToken:  "stale-token",
		RefreshToken: "stored-refresh",
		ExpiryDate:   now.Add(-time.Second), // just expired
	}
	svc := newTestOAuthService(repo, srv.URL, now)

	got, err := svc.GetValidAccessToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", got, "returns the refreshed value, not the stale one")
	assert.Equal(t, 1, calls)

	// new set persisted, previous refresh token preserved
	rec, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", rec.AccessToken)
	assert.Equal(t, "stored-refresh", rec.RefreshToken)
	assert.True(t, rec.ExpiryDate.After(now))
}

func TestGetValidAccessToken_NoRecord(t *testing.T) {
	svc := newTestOAuthService(newFakeTokenRepo(), "unused", time.Now())

	_, err := svc.GetValidAccessToken(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestRefresh_MissingRefreshTokenNoNetworkCall(t *testing.T) {
	calls := 0
	srv := tokenEndpoint(t, &calls, "")
	defer srv.Close()

	repo := newFakeTokenRepo()
	repo.records["u1"] = models.GoogleToken{
		UserID:      "u1",
		AccessToken: "stale-token",
		ExpiryDate:  time.Now().Add(-time.Hour),
	}
	svc := newTestOAuthService(repo, srv.URL, time.Now())

	_, err := svc.Refresh(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Equal(t, 0, calls)
}

func TestRefresh_ReissuedRefreshTokenReplacesStored(t *testing.T) {
	calls := 0
	srv := tokenEndpoint(t, &calls, "reissued-refresh")
	defer srv.Close()

	repo := newFakeTokenRepo()
	repo.records["u1"] = models.GoogleToken{
		UserID:       "u1",
		AccessToken:  "stale-token",
		RefreshToken: "old-refresh",
		ExpiryDate:   time.Now().Add(-time.Hour),
	}
	svc := newTestOAuthService(repo, srv.URL, time.Now())

	got, err := svc.Refresh(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", got)

	rec, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "reissued-refresh", rec.RefreshToken)
}

func TestRefresh_ProviderFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}))
	defer srv.Close()

	repo := newFakeTokenRepo()
	repo.records["u1"] = models.GoogleToken{
		UserID:       "u1",
		AccessToken:  "stale-token",
		RefreshToken: "revoked-refresh",
		ExpiryDate:   time.Now().Add(-time.Hour),
	}
	svc := newTestOAuthService(repo, srv.URL, time.Now())

	_, err := svc.Refresh(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh access token")

	// the stale record is left in place; it simply stays unusable
	rec, _ := repo.FindByUserID(context.Background(), "u1")
	assert.Equal(t, "stale-token", rec.AccessToken)
}

func TestExchangeCode(t *testing.T) {
	calls := 0
	srv := tokenEndpoint(t, &calls, "initial-refresh")
	defer srv.Close()

	repo := newFakeTokenRepo()
	svc := newTestOAuthService(repo, srv.URL, time.Now())

	tok, err := svc.ExchangeCode(context.Background(), "one-time-code")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", tok.AccessToken)
	assert.Equal(t, "initial-refresh", tok.RefreshToken)

	require.NoError(t, svc.SaveTokens(context.Background(), "u1", tok))
	rec, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "initial-refresh", rec.RefreshToken)
}
