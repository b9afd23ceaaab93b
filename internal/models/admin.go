package models

import "time"

// AdminAccount is the single privileged role in the system. Username
// uniqueness and lookup are case-insensitive; PasswordDigest is always a
// 64-char lowercase hex salted SHA-256 digest.
type AdminAccount struct {
	ID             string
	Username       string
	Email          string
	PasswordDigest string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
