package models

import "time"

// GoogleToken is the persisted OAuth credential state for one user's
// calendar access. At most one record per user; the refresh token is kept
// for the lifetime of the record and is required to regenerate the access
// token once it expires.
type GoogleToken struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiryDate   time.Time `json:"expiry_date"`
}
