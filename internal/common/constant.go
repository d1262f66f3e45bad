// Package common contains shared constants and sentinel errors used across
// CipherDesk components.
package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer
// access token on outbound API requests.
const AuthorizationHeaderName = "Authorization"
