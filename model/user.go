package model

import "time"

// User represents an account. Locally registered users carry a password
// hash; federated users carry a provider identity instead.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // not exposed in API responses
	Provider     string    `json:"provider,omitempty"`
	ProviderID   string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
