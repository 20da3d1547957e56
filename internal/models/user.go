package models

import (
	"time"

	"github.com/google/uuid"
)

type Provider string

const (
	ProviderEmail Provider = "email"
	ProviderPhone Provider = "phone"
	ProviderApple Provider = "apple"
)

// User for the users table. An account always has at least one of
// Email or PhoneHash; each is globally unique when set. PhoneHash is
// the sha256 lookup key, never the raw number.
type User struct {
	ID            uuid.UUID
	Email         *string
	PasswordHash  *string
	PhoneHash     *string
	DisplayName   *string
	DOB           *time.Time
	Gender        *string
	Provider      Provider
	Region1       *string
	Region2       *string
	PointsBalance int64
	CreatedAt     time.Time

	// Profile is attached by GetAuthUser; nil when the account has no
	// profile row (email signups).
	Profile *Profile
}

// Profile for the profiles table, one row per phone-registered user.
type Profile struct {
	UserID    uuid.UUID
	Nickname  string
	Bio       *string
	Headline  *string
	AvatarURI *string
	Interests []string
	Badges    []string
}
