package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/sonjunho2/tok-friends/internal/app"
	"github.com/sonjunho2/tok-friends/internal/config"
	"github.com/sonjunho2/tok-friends/internal/controllers"
	"github.com/sonjunho2/tok-friends/internal/repositories"
	"github.com/sonjunho2/tok-friends/internal/services"
	"github.com/sonjunho2/tok-friends/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	userRepo := repositories.NewUserRepository(application.DB)
	verificationRepo := repositories.NewPhoneVerificationRepository(application.DB)
	rateLimitRepo := repositories.NewRateLimitRepository(application.DB)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	rateLimiterService := services.NewRateLimiterService(rateLimitRepo, cfg)

	var smsService services.SMSService
	if cfg.SMSConfigured() {
		smsService = services.NewTwilioSMSService(cfg)
	} else {
		// LoadConfig already guaranteed credentials in production.
		smsService = services.NewNoopSMSService()
	}

	jwtService := services.NewJWTService(cfg)

	authService := services.NewAuthService(
		userRepo,
		verificationRepo,
		rateLimiterService,
		jwtService,
		smsService,
		cfg,
	)

	verificationCleanupService := services.NewVerificationCleanupService(verificationRepo)
	rateLimitCleanupService := services.NewRateLimitCleanupService(rateLimitRepo)

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	authController := controllers.NewAuthController(authService)
	healthController := controllers.NewHealthController(application.DB)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()

	// Health
	router.HandleFunc("/health", healthController.Check).Methods("GET")

	authRouter := router.PathPrefix("/auth").Subrouter()

	// Canonical routes
	authRouter.HandleFunc("/signup/email", authController.SignupEmail).Methods("POST")
	authRouter.HandleFunc("/login/email", authController.LoginEmail).Methods("POST")
	authRouter.HandleFunc("/apple", authController.LoginApple).Methods("POST")
	authRouter.HandleFunc("/phone/request-otp", authController.RequestPhoneOtp).Methods("POST")
	authRouter.HandleFunc("/phone/verify", authController.VerifyPhoneOtp).Methods("POST")
	authRouter.HandleFunc("/phone/complete-profile", authController.CompletePhoneProfile).Methods("POST")

	// Legacy aliases kept for clients shipped against the old paths.
	for _, path := range []string{"/signup", "/register", "/users/signup"} {
		authRouter.HandleFunc(path, authController.SignupEmail).Methods("POST")
	}
	authRouter.HandleFunc("/login", authController.LoginEmail).Methods("POST")
	for _, path := range []string{"/otp/request", "/otp/send", "/phone/otp/request"} {
		authRouter.HandleFunc(path, authController.RequestPhoneOtp).Methods("POST")
	}
	for _, path := range []string{"/otp/verify", "/otp/confirm", "/phone/otp/verify"} {
		authRouter.HandleFunc(path, authController.VerifyPhoneOtp).Methods("POST")
	}
	authRouter.HandleFunc("/otp/complete-profile", authController.CompletePhoneProfile).Methods("POST")

	//----------------------------------------------------------------------
	// Setup daily cleanup via cron
	//----------------------------------------------------------------------
	c := cron.New()

	// verification requests
	_, schErr1 := c.AddFunc("0 3 * * *", func() {
		if e := verificationCleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled verification request cleanup failed")
		}
	})
	if schErr1 != nil {
		utils.Logger.WithError(schErr1).Fatal("Failed to schedule verification request cleanup job")
	}

	// rate limit counter cleanup
	_, schErr2 := c.AddFunc("10 3 * * *", func() {
		if e := rateLimitCleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled rate limit counter cleanup failed")
		}
	})
	if schErr2 != nil {
		utils.Logger.WithError(schErr2).Fatal("Failed to schedule rate limit counter cleanup job")
	}

	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}
