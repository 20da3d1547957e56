package services

import (
	"context"

	"github.com/sonjunho2/tok-friends/internal/config"
	"github.com/sonjunho2/tok-friends/internal/repositories"
	"github.com/sonjunho2/tok-friends/internal/utils"
)

// RateLimiterService throttles OTP requests before any SMS is sent.
// This is separate from the per-request attempt cap enforced at verify
// time.
type RateLimiterService interface {
	CheckOtpRateLimits(ctx context.Context, ip, phone string) error
}

type rateLimiterService struct {
	repo repositories.RateLimitRepository
	cfg  *config.Config
}

func NewRateLimiterService(repo repositories.RateLimitRepository, cfg *config.Config) RateLimiterService {
	return &rateLimiterService{repo: repo, cfg: cfg}
}

// CheckOtpRateLimits enforces the global, per-IP and per-phone hourly
// budgets, in that order. Each dimension's counter is consumed as it
// is checked, so a request refused on the phone budget has still spent
// a global slot and an IP slot.
func (s *rateLimiterService) CheckOtpRateLimits(ctx context.Context, ip, phone string) error {
	globalKey := repositories.RateLimitKeyOtpGlobal
	allowed, err := s.repo.IncrementAndCheck(ctx, globalKey, s.cfg.GlobalOtpLimitPerHour, s.cfg.RateLimitWindow)
	if err != nil {
		return err
	}
	if !allowed {
		utils.Logger.Warnf("Global OTP rate limit exceeded (key: %s)", globalKey)
		return utils.ErrRateLimitExceeded
	}

	ipKey := repositories.RateLimitKeyOtpIPPrefix + ip
	allowed, err = s.repo.IncrementAndCheck(ctx, ipKey, s.cfg.OtpLimitPerIPPerHour, s.cfg.RateLimitWindow)
	if err != nil {
		return err
	}
	if !allowed {
		utils.Logger.Warnf("Per-IP OTP rate limit exceeded (key: %s)", ipKey)
		return utils.ErrRateLimitExceeded
	}

	phoneKey := repositories.RateLimitKeyOtpPhonePrefix + phone
	allowed, err = s.repo.IncrementAndCheck(ctx, phoneKey, s.cfg.OtpLimitPerPhonePerHour, s.cfg.RateLimitWindow)
	if err != nil {
		return err
	}
	if !allowed {
		utils.Logger.Warnf("Per-phone OTP rate limit exceeded (key: %s)", phoneKey)
		return utils.ErrRateLimitExceeded
	}

	return nil
}
