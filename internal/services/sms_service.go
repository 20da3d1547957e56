package services

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/sonjunho2/tok-friends/internal/config"
	"github.com/sonjunho2/tok-friends/internal/utils"
)

// SMSService delivers one-time codes out of band. The auth flow only
// needs fire-and-forget delivery; receipts are Twilio's problem.
type SMSService interface {
	SendVerificationCode(ctx context.Context, phone, code string) error
}

type twilioSMSService struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSMSService(cfg *config.Config) SMSService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &twilioSMSService{
		client: client,
		from:   cfg.TwilioFromPhone,
	}
}

func (s *twilioSMSService) SendVerificationCode(ctx context.Context, phone, code string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.from)
	params.SetBody(fmt.Sprintf("Your tok-friends verification code is %s", code))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		utils.Logger.WithError(err).Error("Failed to send verification SMS via Twilio")
		return fmt.Errorf("%w: failed to send sms via twilio: %v", utils.ErrExternalServiceFailure, err)
	}
	return nil
}

// noopSMSService logs instead of sending. Used outside production when
// Twilio credentials are not configured; the OTP reaches the client via
// the debugCode response field instead.
type noopSMSService struct{}

func NewNoopSMSService() SMSService {
	return noopSMSService{}
}

func (noopSMSService) SendVerificationCode(ctx context.Context, phone, code string) error {
	utils.Logger.Debugf("SMS delivery disabled; skipping verification code send to %s", phone)
	return nil
}
