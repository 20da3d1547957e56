package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const defaultCountryCode = "KR"

// NormalizePhone strips everything but digits from a phone number.
// Returns ErrInvalidPhone when nothing is left.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", ErrInvalidPhone
	}
	return b.String(), nil
}

// NormalizeCountryCode upper-cases and trims an ISO country code,
// falling back to KR when empty.
func NormalizeCountryCode(countryCode string) string {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	if cc == "" {
		return defaultCountryCode
	}
	return cc
}

// HashPhone derives the opaque lookup key stored in place of a raw
// phone number. sha256 over "CC:digits" keeps the key deterministic
// (identical inputs always yield the identical key) and irreversible.
func HashPhone(digits, countryCode string) string {
	sum := sha256.Sum256([]byte(countryCode + ":" + digits))
	return hex.EncodeToString(sum[:])
}
