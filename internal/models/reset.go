package models

import "time"

// PasswordResetCode is a short-lived 6-digit code mailed to an admin.
// Once Used flips to true it can never be redeemed again.
type PasswordResetCode struct {
	ID        string
	Email     string
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// PasswordResetAttempt is an audit row recorded for every reset-confirmation
// attempt. It exists only to feed the per-email rolling rate limit and is
// purged after 24 hours.
type PasswordResetAttempt struct {
	ID          string
	Email       string
	AttemptedAt time.Time
	Success     bool
}
