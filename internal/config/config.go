package config

import (
	"os"
	"time"

	"github.com/sonjunho2/tok-friends/internal/utils"
)

const AppName = "tok-friends-auth"

// Constants for time-based configuration defaults.
const (
	OtpCodeLength         = 6
	OtpExpiry             = 180 * time.Second
	MaxOtpAttempts        = 5
	DefaultTokenExpiry    = 7 * 24 * time.Hour
	StaleRequestRetention = 1 * time.Hour

	DefaultOtpLimitPerIPPerHour    = 20
	DefaultOtpLimitPerPhonePerHour = 5
	DefaultGlobalOtpLimitPerHour   = 1000
	DefaultRateLimitWindow         = 1 * time.Hour

	EnvProduction = "production"
)

// Config holds all application configuration, including secrets and
// toggles. Read once at startup; read-only afterwards.
type Config struct {
	AppName     string
	AppPort     string
	Environment string
	DBUrl       string

	JWTSecret   []byte
	TokenExpiry time.Duration

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string

	OtpCodeLength         int
	OtpExpiry             time.Duration
	MaxOtpAttempts        int
	StaleRequestRetention time.Duration

	OtpLimitPerIPPerHour    int
	OtpLimitPerPhonePerHour int
	GlobalOtpLimitPerHour   int
	RateLimitWindow         time.Duration

	// AuthBypassEnabled skips OTP verification entirely. A test/staging
	// escape hatch only: LoadConfig refuses to start with it set in
	// production.
	AuthBypassEnabled bool
}

// LoadConfig reads the environment and returns a *Config, terminating
// the process when a required value is missing. The signing secret is
// deliberately startup-fatal: there is no hardcoded fallback.
func LoadConfig() *Config {
	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		utils.Logger.Fatal("JWT_SECRET env var is missing; refusing to start without a signing secret")
	}

	twilioAccountSID := os.Getenv("TWILIO_ACCOUNT_SID")
	twilioAuthToken := os.Getenv("TWILIO_AUTH_TOKEN")
	twilioFromPhone := os.Getenv("TWILIO_FROM_PHONE")
	if env == EnvProduction {
		if twilioAccountSID == "" {
			utils.Logger.Fatal("TWILIO_ACCOUNT_SID env var is missing")
		}
		if twilioAuthToken == "" {
			utils.Logger.Fatal("TWILIO_AUTH_TOKEN env var is missing")
		}
		if twilioFromPhone == "" {
			utils.Logger.Fatal("TWILIO_FROM_PHONE env var is missing")
		}
	}

	authBypass := os.Getenv("AUTH_BYPASS") == "true"
	if authBypass && env == EnvProduction {
		utils.Logger.Fatal("AUTH_BYPASS must not be enabled in production")
	}
	if authBypass {
		utils.Logger.Warn("AUTH_BYPASS is enabled; OTP verification is skipped")
	}

	return &Config{
		AppName:     AppName,
		AppPort:     appPort,
		Environment: env,
		DBUrl:       dbUrl,

		JWTSecret:   []byte(jwtSecret),
		TokenExpiry: DefaultTokenExpiry,

		TwilioAccountSID: twilioAccountSID,
		TwilioAuthToken:  twilioAuthToken,
		TwilioFromPhone:  twilioFromPhone,

		OtpCodeLength:         OtpCodeLength,
		OtpExpiry:             OtpExpiry,
		MaxOtpAttempts:        MaxOtpAttempts,
		StaleRequestRetention: StaleRequestRetention,

		OtpLimitPerIPPerHour:    DefaultOtpLimitPerIPPerHour,
		OtpLimitPerPhonePerHour: DefaultOtpLimitPerPhonePerHour,
		GlobalOtpLimitPerHour:   DefaultGlobalOtpLimitPerHour,
		RateLimitWindow:         DefaultRateLimitWindow,

		AuthBypassEnabled: authBypass,
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// SMSConfigured reports whether a real Twilio client can be built.
func (c *Config) SMSConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromPhone != ""
}
