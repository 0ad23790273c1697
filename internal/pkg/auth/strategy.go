package auth

import "time"

// Strategy issues and verifies customer session tokens.
type Strategy interface {
	IssueToken(userID int64) (string, error)
	// ParseToken returns the user behind token or ErrInvalidToken.
	ParseToken(token string) (int64, error)
	Name() string
}

type Options struct {
	TTL time.Duration
	// Now overrides the clock used for expiry, mostly in tests.
	Now func() time.Time
}
