package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sonjunho2/tok-friends/internal/config"
	"github.com/sonjunho2/tok-friends/internal/dtos"
	"github.com/sonjunho2/tok-friends/internal/models"
	"github.com/sonjunho2/tok-friends/internal/repositories"
	"github.com/sonjunho2/tok-friends/internal/utils"
)

// AuthService implements every credential flow: email signup/login,
// the phone OTP handshake, and profile completion. All failures come
// back as *utils.AppError so controllers respond uniformly.
type AuthService interface {
	SignupEmail(ctx context.Context, req *dtos.EmailSignupRequest) (*dtos.AuthResponse, error)
	LoginEmail(ctx context.Context, req *dtos.EmailLoginRequest) (*dtos.AuthResponse, error)
	LoginApple(ctx context.Context, req *dtos.AppleTokenRequest) (*dtos.AuthResponse, error)
	RequestPhoneOtp(ctx context.Context, req *dtos.PhoneRequestOtpRequest, clientIP string) (*dtos.RequestOtpResponse, error)
	VerifyPhoneOtp(ctx context.Context, req *dtos.PhoneVerifyRequest) (*dtos.PhoneVerifyResponse, error)
	CompletePhoneProfile(ctx context.Context, req *dtos.CompletePhoneProfileRequest) (*dtos.AuthResponse, error)
}

type authService struct {
	userRepo         repositories.UserRepository
	verificationRepo repositories.PhoneVerificationRepository
	rateLimiter      RateLimiterService
	jwtService       JWTService
	smsService       SMSService
	cfg              *config.Config
}

func NewAuthService(
	userRepo repositories.UserRepository,
	verificationRepo repositories.PhoneVerificationRepository,
	rateLimiter RateLimiterService,
	jwtService JWTService,
	smsService SMSService,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		verificationRepo: verificationRepo,
		rateLimiter:      rateLimiter,
		jwtService:       jwtService,
		smsService:       smsService,
		cfg:              cfg,
	}
}

const defaultNickname = "회원"

func (s *authService) SignupEmail(ctx context.Context, req *dtos.EmailSignupRequest) (*dtos.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeEmailRegistered,
			Message:    "Email is already registered",
		}
	}

	passwordHash, err := utils.HashSecret(req.Password)
	if err != nil {
		return nil, err
	}

	dob, err := time.Parse("2006-01-02", req.DOB)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    "dob must be formatted as YYYY-MM-DD",
		}
	}

	gender := strings.TrimSpace(req.Gender)
	user := &models.User{
		ID:           uuid.New(),
		Email:        &email,
		PasswordHash: &passwordHash,
		DisplayName:  req.DisplayName,
		DOB:          &dob,
		Gender:       &gender,
		Provider:     models.ProviderEmail,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent signup with the same email loses here.
		if repositories.IsUniqueViolation(err) {
			return nil, &utils.AppError{
				StatusCode: http.StatusConflict,
				Code:       utils.ErrCodeEmailRegistered,
				Message:    "Email is already registered",
				Err:        err,
			}
		}
		return nil, err
	}

	return s.authResponseFor(ctx, user.ID)
}

func (s *authService) LoginEmail(ctx context.Context, req *dtos.EmailLoginRequest) (*dtos.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	invalidCredentials := &utils.AppError{
		StatusCode: http.StatusUnauthorized,
		Code:       utils.ErrCodeInvalidCredentials,
		Message:    "Invalid credentials",
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	// Unknown email, phone-only account and wrong password all collapse
	// into the same 401 so the response does not leak which one it was.
	if user == nil || user.PasswordHash == nil {
		return nil, invalidCredentials
	}
	if !utils.VerifySecret(*user.PasswordHash, req.Password) {
		return nil, invalidCredentials
	}

	return s.authResponseFor(ctx, user.ID)
}

func (s *authService) LoginApple(ctx context.Context, req *dtos.AppleTokenRequest) (*dtos.AuthResponse, error) {
	return nil, &utils.AppError{
		StatusCode: http.StatusBadRequest,
		Code:       utils.ErrCodeNotImplemented,
		Message:    "Apple login is not available yet",
	}
}

func (s *authService) RequestPhoneOtp(ctx context.Context, req *dtos.PhoneRequestOtpRequest, clientIP string) (*dtos.RequestOtpResponse, error) {
	if s.cfg.AuthBypassEnabled {
		return &dtos.RequestOtpResponse{
			RequestID: "bypass-" + uuid.NewString(),
			ExpiresIn: 300,
		}, nil
	}

	digits, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidPhone,
			Message:    "Phone number is invalid",
			Err:        err,
		}
	}
	countryCode := utils.NormalizeCountryCode(req.CountryCode)

	if err := s.rateLimiter.CheckOtpRateLimits(ctx, clientIP, digits); err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusTooManyRequests,
			Code:       utils.ErrCodeRateLimitExceeded,
			Message:    "Too many verification requests; try again later",
			Err:        err,
		}
	}

	code, err := generateVerificationCode(s.cfg.OtpCodeLength)
	if err != nil {
		return nil, err
	}
	codeHash, err := utils.HashSecret(code)
	if err != nil {
		return nil, err
	}

	// Best effort: clear abandoned requests for this number so the
	// table does not accumulate one row per resend.
	cutoff := time.Now().Add(-s.cfg.StaleRequestRetention)
	if err := s.verificationRepo.DeleteStale(ctx, digits, countryCode, cutoff); err != nil {
		utils.Logger.WithError(err).Warn("failed to delete stale verification requests")
	}

	verification := &models.PhoneVerification{
		ID:          uuid.New(),
		Phone:       digits,
		CountryCode: countryCode,
		CodeHash:    codeHash,
		ExpiresAt:   time.Now().Add(s.cfg.OtpExpiry),
	}
	if err := s.verificationRepo.Create(ctx, verification); err != nil {
		return nil, err
	}

	if err := s.smsService.SendVerificationCode(ctx, req.Phone, code); err != nil {
		utils.Logger.WithError(err).Error("failed to send verification SMS")
		return nil, &utils.AppError{
			StatusCode: http.StatusBadGateway,
			Code:       utils.ErrCodeExternalServiceFailure,
			Message:    "Could not deliver the verification code",
			Err:        err,
		}
	}

	resp := &dtos.RequestOtpResponse{
		RequestID: verification.ID.String(),
		ExpiresIn: int(s.cfg.OtpExpiry.Seconds()),
	}
	if !s.cfg.IsProduction() {
		resp.DebugCode = code
	}
	return resp, nil
}

func (s *authService) VerifyPhoneOtp(ctx context.Context, req *dtos.PhoneVerifyRequest) (*dtos.PhoneVerifyResponse, error) {
	if s.cfg.AuthBypassEnabled {
		return s.verifyBypass(ctx, req.Phone)
	}

	digits, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidPhone,
			Message:    "Phone number is invalid",
			Err:        err,
		}
	}

	invalidRequest := &utils.AppError{
		StatusCode: http.StatusBadRequest,
		Code:       utils.ErrCodeInvalidRequest,
		Message:    "Verification request not found",
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		return nil, invalidRequest
	}
	verification, err := s.verificationRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if verification == nil || verification.Phone != digits {
		return nil, invalidRequest
	}

	if verification.IsExpired() {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeCodeExpired,
			Message:    "Verification code has expired",
		}
	}
	if verification.Attempts >= s.cfg.MaxOtpAttempts {
		return nil, &utils.AppError{
			StatusCode: http.StatusTooManyRequests,
			Code:       utils.ErrCodeTooManyAttempts,
			Message:    "Too many failed attempts; request a new code",
		}
	}

	// Every mismatch reports invalid_code; the attempt cap only kicks
	// in on the call after the counter reaches it.
	if !utils.VerifySecret(verification.CodeHash, req.Code) {
		if _, incErr := s.verificationRepo.IncrementAttempts(ctx, verification.ID); incErr != nil {
			return nil, incErr
		}
		return nil, &utils.AppError{
			StatusCode: http.StatusUnauthorized,
			Code:       utils.ErrCodeInvalidCode,
			Message:    "Verification code is incorrect",
		}
	}

	if err := s.verificationRepo.MarkVerified(ctx, verification.ID); err != nil {
		return nil, err
	}

	// Existing account with this number: verification doubles as login.
	var user *models.User
	if verification.UserID != nil {
		user, err = s.userRepo.GetByID(ctx, *verification.UserID)
	} else {
		user, err = s.userRepo.GetByPhoneHash(ctx, utils.HashPhone(digits, verification.CountryCode))
	}
	if err != nil {
		return nil, err
	}

	if user == nil {
		return &dtos.PhoneVerifyResponse{
			NeedsProfile:   true,
			VerificationID: verification.ID.String(),
		}, nil
	}

	if err := s.verificationRepo.LinkUser(ctx, verification.ID, user.ID); err != nil {
		return nil, err
	}
	auth, err := s.authResponseFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dtos.PhoneVerifyResponse{
		Token:       auth.Token,
		AccessToken: auth.AccessToken,
		User:        &auth.User,
	}, nil
}

// verifyBypass accepts any code and logs in or defers to onboarding
// based solely on whether the phone is already registered.
func (s *authService) verifyBypass(ctx context.Context, phone string) (*dtos.PhoneVerifyResponse, error) {
	digits, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidPhone,
			Message:    "Phone number is invalid",
			Err:        err,
		}
	}
	user, err := s.userRepo.GetByPhoneHash(ctx, utils.HashPhone(digits, utils.NormalizeCountryCode("")))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &dtos.PhoneVerifyResponse{
			NeedsProfile:   true,
			VerificationID: "bypass-" + uuid.NewString(),
		}, nil
	}
	auth, err := s.authResponseFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dtos.PhoneVerifyResponse{
		Token:       auth.Token,
		AccessToken: auth.AccessToken,
		User:        &auth.User,
	}, nil
}

func (s *authService) CompletePhoneProfile(ctx context.Context, req *dtos.CompletePhoneProfileRequest) (*dtos.AuthResponse, error) {
	digits, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidPhone,
			Message:    "Phone number is invalid",
			Err:        err,
		}
	}

	if req.BirthYear > time.Now().Year() {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    fmt.Sprintf("birthYear %d is in the future", req.BirthYear),
		}
	}

	if s.cfg.AuthBypassEnabled {
		return s.completeBypass(ctx, digits, req)
	}

	requestID, err := uuid.Parse(req.VerificationID)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidRequest,
			Message:    "Verification request not found",
		}
	}
	verification, err := s.verificationRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if verification == nil || verification.Phone != digits {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidRequest,
			Message:    "Verification request not found",
		}
	}
	if verification.VerifiedAt == nil || verification.IsExpired() {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeNotVerified,
			Message:    "Phone number has not been verified",
		}
	}

	// Retried request that already produced an account: just re-issue.
	if verification.CompletedAt != nil && verification.UserID != nil {
		return s.authResponseFor(ctx, *verification.UserID)
	}

	phoneHash := utils.HashPhone(digits, verification.CountryCode)

	existing, err := s.userRepo.GetByPhoneHash(ctx, phoneHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.verificationRepo.LinkUser(ctx, verification.ID, existing.ID); err != nil {
			return nil, err
		}
		return s.authResponseFor(ctx, existing.ID)
	}

	user, profile := s.buildPhoneUser(phoneHash, req)
	if err := s.userRepo.CreatePhoneUser(ctx, user, profile, verification.ID); err != nil {
		if repositories.IsUniqueViolation(err) {
			// Lost the insert race. The winner owns the account now;
			// converge by linking to it instead of failing the client.
			winner, lookupErr := s.userRepo.GetByPhoneHash(ctx, phoneHash)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if winner != nil {
				if linkErr := s.verificationRepo.LinkUser(ctx, verification.ID, winner.ID); linkErr != nil {
					return nil, linkErr
				}
				return s.authResponseFor(ctx, winner.ID)
			}
			return nil, &utils.AppError{
				StatusCode: http.StatusConflict,
				Code:       utils.ErrCodePhoneRegistered,
				Message:    "Phone number is already registered",
				Err:        err,
			}
		}
		return nil, err
	}

	return s.authResponseFor(ctx, user.ID)
}

func (s *authService) completeBypass(ctx context.Context, digits string, req *dtos.CompletePhoneProfileRequest) (*dtos.AuthResponse, error) {
	phoneHash := utils.HashPhone(digits, utils.NormalizeCountryCode(""))

	existing, err := s.userRepo.GetByPhoneHash(ctx, phoneHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.authResponseFor(ctx, existing.ID)
	}

	user, profile := s.buildPhoneUser(phoneHash, req)
	if err := s.userRepo.CreatePhoneUser(ctx, user, profile, uuid.Nil); err != nil {
		if repositories.IsUniqueViolation(err) {
			winner, lookupErr := s.userRepo.GetByPhoneHash(ctx, phoneHash)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if winner != nil {
				return s.authResponseFor(ctx, winner.ID)
			}
		}
		return nil, err
	}
	return s.authResponseFor(ctx, user.ID)
}

func (s *authService) buildPhoneUser(phoneHash string, req *dtos.CompletePhoneProfileRequest) (*models.User, *models.Profile) {
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		nickname = defaultNickname
	}

	dob := time.Date(req.BirthYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	gender := req.Gender

	var region1, region2 *string
	if req.Region != nil {
		parts := strings.Fields(strings.TrimSpace(*req.Region))
		if len(parts) > 0 {
			region1 = &parts[0]
		}
		if len(parts) > 1 {
			rest := strings.Join(parts[1:], " ")
			region2 = &rest
		}
	}

	userID := uuid.New()
	user := &models.User{
		ID:          userID,
		PhoneHash:   &phoneHash,
		DisplayName: &nickname,
		DOB:         &dob,
		Gender:      &gender,
		Provider:    models.ProviderPhone,
		Region1:     region1,
		Region2:     region2,
	}
	profile := &models.Profile{
		UserID:    userID,
		Nickname:  nickname,
		Bio:       req.Bio,
		Headline:  req.Headline,
		AvatarURI: req.AvatarURI,
		Interests: []string{},
		Badges:    []string{},
	}
	return user, profile
}

// authResponseFor issues a bearer token and loads the serialized user.
func (s *authService) authResponseFor(ctx context.Context, userID uuid.UUID) (*dtos.AuthResponse, error) {
	token, err := s.jwtService.IssueToken(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetAuthUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s disappeared after authentication", userID)
	}

	authUser := dtos.AuthUser{
		ID:            user.ID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		Provider:      string(user.Provider),
		PointsBalance: user.PointsBalance,
	}
	if user.Profile != nil {
		authUser.Profile = &dtos.AuthProfile{
			Nickname:  user.Profile.Nickname,
			Bio:       user.Profile.Bio,
			Headline:  user.Profile.Headline,
			AvatarURI: user.Profile.AvatarURI,
		}
	}

	return &dtos.AuthResponse{
		User:        authUser,
		Token:       token,
		AccessToken: token,
	}, nil
}
