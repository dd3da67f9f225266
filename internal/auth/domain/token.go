package domain

import "time"

// Session is a freshly issued session token plus what the caller needs to
// know about it.
type Session struct {
	Token       string
	TokenType   string // always "Bearer"
	ExpiresAt   time.Time
	ExpiresIn   time.Duration
	MFAVerified bool
	User        User
}

// RevokedToken is a denylisted token id, kept until the token would have
// expired anyway.
type RevokedToken struct {
	JTIHash   string // fingerprint of the jti
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
