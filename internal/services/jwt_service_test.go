package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonjunho2/tok-friends/internal/config"
)

func jwtTestConfig(secret string) *config.Config {
	return &config.Config{
		JWTSecret:   []byte(secret),
		TokenExpiry: time.Hour,
	}
}

func TestIssueAndParseToken(t *testing.T) {
	svc := NewJWTService(jwtTestConfig("unit-test-secret"))
	userID := uuid.New()

	token, err := svc.IssueToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(jwtTestConfig("secret-a"))
	verifier := NewJWTService(jwtTestConfig("secret-b"))

	token, err := issuer.IssueToken(uuid.New())
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := NewJWTService(jwtTestConfig("unit-test-secret"))

	for _, token := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		_, err := svc.ParseToken(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestGenerateVerificationCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := generateVerificationCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, ch := range code {
			assert.True(t, ch >= '0' && ch <= '9')
		}
		seen[code] = true
	}
	// 50 draws from a million values colliding down to a handful would
	// mean a broken generator.
	assert.Greater(t, len(seen), 40)
}
