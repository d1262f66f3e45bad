package models

import "time"

// RefreshToken is one row of the refresh_tokens table. Tokens are
// single-use: the refresh endpoint deletes the presented row and issues a
// replacement, so a replayed token fails the lookup.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
