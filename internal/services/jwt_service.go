package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sonjunho2/tok-friends/internal/config"
)

// ---------------------------------------------------------------------
// JWTService interface
// ---------------------------------------------------------------------

// JWTService mints and verifies the bearer tokens returned by every
// auth operation. Tokens carry {sub, iat, exp} and nothing else; there
// is no refresh or revocation.
type JWTService interface {
	IssueToken(subjectID uuid.UUID) (string, error)
	ParseToken(tokenString string) (uuid.UUID, error)
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type jwtService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTService(cfg *config.Config) JWTService {
	return &jwtService{
		secret: cfg.JWTSecret,
		expiry: cfg.TokenExpiry,
	}
}

func (j *jwtService) IssueToken(subjectID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subjectID.String(),
		"iat": now.Unix(),
		"exp": now.Add(j.expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *jwtService) ParseToken(tokenString string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(sub)
}
