package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSecretRoundTrip(t *testing.T) {
	encoded, err := HashSecret("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	assert.True(t, VerifySecret(encoded, "correct horse battery staple"))
	assert.False(t, VerifySecret(encoded, "correct horse battery stable"))
	assert.False(t, VerifySecret(encoded, ""))
}

func TestHashSecretSaltsEveryCall(t *testing.T) {
	a, err := HashSecret("123456")
	require.NoError(t, err)
	b, err := HashSecret("123456")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	assert.True(t, VerifySecret(a, "123456"))
	assert.True(t, VerifySecret(b, "123456"))
}

func TestVerifySecretRejectsMalformedEncoding(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=1,p=4$notbase64!!$alsonot!!",
		"$bcrypt$whatever",
	} {
		assert.False(t, VerifySecret(encoded, "123456"), "encoded %q", encoded)
	}
}
