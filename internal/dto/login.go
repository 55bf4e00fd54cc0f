package dto

import "time"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionToken is the signed session token plus its expiry. ExpiresAt is
// zero when the token does not expire.
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}
