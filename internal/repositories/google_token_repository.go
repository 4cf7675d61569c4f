package repositories

import (
	"context"
	"database/sql"

	"github.com/NaiYuk/Taskun/internal/models"
)

type GoogleTokenRepository interface {
	Upsert(ctx context.Context, rec *models.GoogleToken) error
	FindByUserID(ctx context.Context, userID string) (*models.GoogleToken, error)
}

type googleTokenRepository struct {
	db *sql.DB
}

func NewGoogleTokenRepository(db *sql.DB) GoogleTokenRepository {
	return &googleTokenRepository{db: db}
}

// Upsert replaces the token record for a user, keyed by user_id. Google does
// not resend the refresh token on every refresh, so an empty incoming
// refresh_token keeps the stored one instead of overwriting it.
func (r *googleTokenRepository) Upsert(ctx context.Context, rec *models.GoogleToken) error {
	query := `
		INSERT INTO user_google_tokens (user_id, access_token, refresh_token, expiry_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), user_google_tokens.refresh_token),
			expiry_date   = EXCLUDED.expiry_date`
	_, err := r.db.ExecContext(ctx, query,
		rec.UserID, rec.AccessToken, rec.RefreshToken, rec.ExpiryDate)
	return err
}

func (r *googleTokenRepository) FindByUserID(ctx context.Context, userID string) (*models.GoogleToken, error) {
	query := `SELECT user_id, access_token, refresh_token, expiry_date
       FROM user_google_tokens WHERE user_id = $1`
	rec := &models.GoogleToken{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&rec.UserID, &rec.AccessToken, &rec.RefreshToken, &rec.ExpiryDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}
