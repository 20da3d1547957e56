package services

import (
	"context"

	"github.com/sonjunho2/tok-friends/internal/repositories"
	"github.com/sonjunho2/tok-friends/internal/utils"
)

// RateLimitCleanupService sweeps OTP throttle counters whose window
// has closed. Live counters recycle themselves on the next increment;
// this just keeps rate_limit_attempts from accumulating rows for IPs
// and phone numbers never seen again.
type RateLimitCleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type rateLimitCleanupService struct {
	repo repositories.RateLimitRepository
}

func NewRateLimitCleanupService(repo repositories.RateLimitRepository) RateLimitCleanupService {
	return &rateLimitCleanupService{repo: repo}
}

func (s *rateLimitCleanupService) CleanupDaily(ctx context.Context) error {
	if err := s.repo.CleanupExpired(ctx); err != nil {
		utils.Logger.WithError(err).Error("Failed to cleanup expired OTP throttle counters")
		return err
	}

	utils.Logger.Info("Daily OTP throttle counter cleanup completed successfully.")
	return nil
}
