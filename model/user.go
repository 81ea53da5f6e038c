package model

import "time"

// User represents a user account. Only the seeded demo user exists
// unless clients register through the auth routes.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Not exposed in API responses
	CreatedAt    time.Time `json:"createdAt"`
}
