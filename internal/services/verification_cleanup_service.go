package services

import (
	"context"

	"github.com/sonjunho2/tok-friends/internal/repositories"
	"github.com/sonjunho2/tok-friends/internal/utils"
)

// VerificationCleanupService handles purging phone verification
// requests that expired without ever completing.
type VerificationCleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type verificationCleanupService struct {
	verificationRepo repositories.PhoneVerificationRepository
}

func NewVerificationCleanupService(verificationRepo repositories.PhoneVerificationRepository) VerificationCleanupService {
	return &verificationCleanupService{verificationRepo: verificationRepo}
}

// CleanupDaily deletes stale verification requests and logs any errors encountered.
func (s *verificationCleanupService) CleanupDaily(ctx context.Context) error {
	if err := s.verificationRepo.CleanupExpired(ctx); err != nil {
		utils.Logger.WithError(err).Error("Failed to cleanup phone_verifications")
		return err
	}

	utils.Logger.Info("Daily phone-verification cleanup completed successfully.")
	return nil
}
