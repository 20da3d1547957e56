package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonjunho2/tok-friends/internal/config"
	"github.com/sonjunho2/tok-friends/internal/repositories"
	"github.com/sonjunho2/tok-friends/internal/utils"
)

// fakeRateLimitRepo records every increment and denies the keys listed
// in denied.
type fakeRateLimitRepo struct {
	keys   []string
	counts map[string]int
	denied map[string]bool
}

func newFakeRateLimitRepo() *fakeRateLimitRepo {
	return &fakeRateLimitRepo{
		counts: map[string]int{},
		denied: map[string]bool{},
	}
}

func (f *fakeRateLimitRepo) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	f.counts[key]++
	return !f.denied[key], nil
}

func (f *fakeRateLimitRepo) CleanupExpired(ctx context.Context) error { return nil }

func rateLimiterTestConfig() *config.Config {
	return &config.Config{
		GlobalOtpLimitPerHour:   1000,
		OtpLimitPerIPPerHour:    20,
		OtpLimitPerPhonePerHour: 5,
		RateLimitWindow:         time.Hour,
	}
}

func TestCheckOtpRateLimitsChecksAllDimensionsInOrder(t *testing.T) {
	repo := newFakeRateLimitRepo()
	svc := NewRateLimiterService(repo, rateLimiterTestConfig())

	err := svc.CheckOtpRateLimits(context.Background(), "203.0.113.7", "01012345678")
	require.NoError(t, err)

	assert.Equal(t, []string{
		repositories.RateLimitKeyOtpGlobal,
		repositories.RateLimitKeyOtpIPPrefix + "203.0.113.7",
		repositories.RateLimitKeyOtpPhonePrefix + "01012345678",
	}, repo.keys)
}

func TestCheckOtpRateLimitsGlobalDenialShortCircuits(t *testing.T) {
	repo := newFakeRateLimitRepo()
	repo.denied[repositories.RateLimitKeyOtpGlobal] = true
	svc := NewRateLimiterService(repo, rateLimiterTestConfig())

	err := svc.CheckOtpRateLimits(context.Background(), "203.0.113.7", "01012345678")
	assert.ErrorIs(t, err, utils.ErrRateLimitExceeded)

	// Narrower dimensions are never consumed once the global budget
	// refuses the request.
	assert.Equal(t, []string{repositories.RateLimitKeyOtpGlobal}, repo.keys)
}

func TestCheckOtpRateLimitsPhoneDenialConsumesOuterBudgets(t *testing.T) {
	repo := newFakeRateLimitRepo()
	repo.denied[repositories.RateLimitKeyOtpPhonePrefix+"01012345678"] = true
	svc := NewRateLimiterService(repo, rateLimiterTestConfig())

	err := svc.CheckOtpRateLimits(context.Background(), "203.0.113.7", "01012345678")
	assert.ErrorIs(t, err, utils.ErrRateLimitExceeded)

	// A per-phone refusal has already spent a global slot and an IP
	// slot for this request.
	assert.Equal(t, 1, repo.counts[repositories.RateLimitKeyOtpGlobal])
	assert.Equal(t, 1, repo.counts[repositories.RateLimitKeyOtpIPPrefix+"203.0.113.7"])
	assert.Equal(t, 1, repo.counts[repositories.RateLimitKeyOtpPhonePrefix+"01012345678"])
}
