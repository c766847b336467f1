package entity

import "time"

// PasswordResetToken is a single-use credential recovery artifact.
// A token authorizes a reset only while used is false and expires_at
// is in the future.
type PasswordResetToken struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
