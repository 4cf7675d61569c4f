package repositories

import (
	"database/sql"
	"time"

	"github.com/NaiYuk/Taskun/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)

	// refresh helpers
	UpdateRefresh(userID string, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	GetByRefreshToken(token string) (*models.User, error)

	UpdatePassword(userID string, passwordHash string) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (id, email, password_hash, refresh_token, refresh_expires_at, refresh_revoked)
		VALUES ($1, $2, $3, NULL, NULL, FALSE)
		RETURNING created_at
	`
	return r.DB.QueryRow(q, user.ID, user.Email, user.PasswordHash).Scan(&user.CreatedAt)
}

func (r *userRepository) GetByID(id string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, refresh_token, refresh_expires_at, refresh_revoked, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.DB.QueryRow(q, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, refresh_token, refresh_expires_at, refresh_revoked, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`
	return r.scanUser(r.DB.QueryRow(q, email))
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, refresh_token, refresh_expires_at, refresh_revoked, created_at
		FROM users
		WHERE refresh_token = $1
	`
	return r.scanUser(r.DB.QueryRow(q, token))
}

func (r *userRepository) UpdateRefresh(userID string, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token = $2, refresh_expires_at = $3, refresh_revoked = FALSE
		WHERE id = $1
	`
	_, err := r.DB.Exec(q, userID, token, expiresAt)
	return err
}

// RotateRefresh swaps the stored refresh token atomically; the old token is
// spent whether or not the caller keeps the new one.
func (r *userRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	const q = `
		UPDATE users
		SET refresh_token = $2, refresh_expires_at = $3
		WHERE refresh_token = $1 AND refresh_revoked = FALSE
		RETURNING id, email, password_hash, refresh_token, refresh_expires_at, refresh_revoked, created_at
	`
	return r.scanUser(r.DB.QueryRow(q, oldToken, newToken, newExpiresAt))
}

func (r *userRepository) UpdatePassword(userID string, passwordHash string) error {
	const q = `
		UPDATE users SET password_hash = $2 WHERE id = $1
	`
	_, err := r.DB.Exec(q, userID, passwordHash)
	return err
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		refreshToken sql.NullString
		refreshExp   sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &refreshToken, &refreshExp, &u.RefreshRevoked, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if refreshToken.Valid {
		u.RefreshToken = &refreshToken.String
	}
	if refreshExp.Valid {
		u.RefreshExpiresAt = &refreshExp.Time
	}
	return u, nil
}
