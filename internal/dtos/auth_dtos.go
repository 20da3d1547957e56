package dtos

import (
	"github.com/google/uuid"
)

// Wire field names stay camelCase: they are the public contract the
// deployed mobile clients already speak.

// ----------------------
// Requests
// ----------------------

type EmailSignupRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8"`
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,max=100"`
	DOB         string  `json:"dob" validate:"required,datetime=2006-01-02"`
	Gender      string  `json:"gender" validate:"required,max=20"`
}

type EmailLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type AppleTokenRequest struct {
	Token             string  `json:"token" validate:"required"`
	IDToken           *string `json:"idToken,omitempty"`
	AuthorizationCode *string `json:"authorizationCode,omitempty"`
}

type PhoneRequestOtpRequest struct {
	Phone       string `json:"phone" validate:"required"`
	CountryCode string `json:"countryCode" validate:"required"`
}

type PhoneVerifyRequest struct {
	RequestID string `json:"requestId" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Code      string `json:"code" validate:"required,numeric,min=4,max=8"`
}

type CompletePhoneProfileRequest struct {
	Phone          string  `json:"phone" validate:"required"`
	VerificationID string  `json:"verificationId" validate:"required"`
	Nickname       string  `json:"nickname" validate:"required,min=1,max=50"`
	BirthYear      int     `json:"birthYear" validate:"required,min=1900"`
	Gender         string  `json:"gender" validate:"required,oneof=female male other"`
	Region         *string `json:"region,omitempty"`
	Headline       *string `json:"headline,omitempty" validate:"omitempty,max=200"`
	Bio            *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	AvatarURI      *string `json:"avatarUri,omitempty"`
}

// ----------------------
// Responses
// ----------------------

type AuthProfile struct {
	Nickname  string  `json:"nickname"`
	Bio       *string `json:"bio"`
	Headline  *string `json:"headline"`
	AvatarURI *string `json:"avatarUri"`
}

type AuthUser struct {
	ID            uuid.UUID    `json:"id"`
	Email         *string      `json:"email"`
	DisplayName   *string      `json:"displayName"`
	Provider      string       `json:"provider"`
	PointsBalance int64        `json:"pointsBalance"`
	Profile       *AuthProfile `json:"profile,omitempty"`
}

// AuthResponse duplicates the token as access_token for legacy clients.
type AuthResponse struct {
	User        AuthUser `json:"user"`
	Token       string   `json:"token"`
	AccessToken string   `json:"access_token"`
}

type RequestOtpResponse struct {
	RequestID string `json:"requestId"`
	ExpiresIn int    `json:"expiresIn"`
	// DebugCode is only populated outside production.
	DebugCode string `json:"debugCode,omitempty"`
}

// PhoneVerifyResponse either carries a token+user (known phone) or the
// needsProfile marker telling the client to complete onboarding.
type PhoneVerifyResponse struct {
	Token          string    `json:"token,omitempty"`
	AccessToken    string    `json:"access_token,omitempty"`
	User           *AuthUser `json:"user,omitempty"`
	NeedsProfile   bool      `json:"needsProfile,omitempty"`
	VerificationID string    `json:"verificationId,omitempty"`
}

type HealthCheckResponse struct {
	Status string `json:"status"`
}
