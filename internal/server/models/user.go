// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account row. PasswordHash is an argon2id digest of the account
// password; it authenticates API access and has no relation to the master
// key, which never reaches the server in plaintext.
type User struct {
	ID           string
	UserName     string
	PasswordSalt []byte
	PasswordHash []byte
	CreatedAt    time.Time
}
