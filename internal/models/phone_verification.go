package models

import (
	"time"

	"github.com/google/uuid"
)

// PhoneVerification for the phone_verifications table. One in-flight
// attempt to prove control of a phone number. The plaintext code is
// never stored; CodeHash is argon2id. Expiry is fixed at creation.
// Once CompletedAt is set the row is terminal.
type PhoneVerification struct {
	ID          uuid.UUID
	Phone       string
	CountryCode string
	CodeHash    string
	Attempts    int
	ExpiresAt   time.Time
	VerifiedAt  *time.Time
	UserID      *uuid.UUID
	CompletedAt *time.Time
	CreatedAt   time.Time
}

func (v *PhoneVerification) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}
