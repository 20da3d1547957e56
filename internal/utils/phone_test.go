package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"010-1234-5678", "01012345678"},
		{"+82 10 1234 5678", "821012345678"},
		{"(010) 1234.5678", "01012345678"},
		{"01012345678", "01012345678"},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestNormalizePhoneRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "---"} {
		_, err := NormalizePhone(in)
		assert.ErrorIs(t, err, ErrInvalidPhone, "input %q", in)
	}
}

func TestNormalizeCountryCode(t *testing.T) {
	assert.Equal(t, "KR", NormalizeCountryCode(""))
	assert.Equal(t, "KR", NormalizeCountryCode("  "))
	assert.Equal(t, "US", NormalizeCountryCode("us"))
	assert.Equal(t, "JP", NormalizeCountryCode(" jp "))
}

func TestHashPhoneDeterministic(t *testing.T) {
	a := HashPhone("01012345678", "KR")
	b := HashPhone("01012345678", "KR")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	// Formatting differences must collapse to the same key.
	digits1, err := NormalizePhone("010-1234-5678")
	require.NoError(t, err)
	digits2, err := NormalizePhone("(010) 1234 5678")
	require.NoError(t, err)
	assert.Equal(t, HashPhone(digits1, "KR"), HashPhone(digits2, "KR"))
}

func TestHashPhoneSeparatesCountryCodes(t *testing.T) {
	assert.NotEqual(t, HashPhone("01012345678", "KR"), HashPhone("01012345678", "US"))
}
