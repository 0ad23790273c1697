package model

import "time"

// User represents a registered storefront customer. Email is the wallet identity.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
