package domain

import "time"

// Session is a logged-in browser. Only the hash of the raw token is stored.
type Session struct {
	TokenHash string    `json:"token_hash"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type LoginRequest struct {
	Username string
	Password string
}

type LoginResult struct {
	RawToken  string
	ExpiresAt time.Time
}
