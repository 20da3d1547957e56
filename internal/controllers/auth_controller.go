package controllers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sonjunho2/tok-friends/internal/dtos"
	"github.com/sonjunho2/tok-friends/internal/services"
	"github.com/sonjunho2/tok-friends/internal/utils"
)

// AuthController exposes the credential flows over HTTP. Handlers only
// decode, validate and delegate; all business rules live in the service.
type AuthController struct {
	authService services.AuthService
}

func NewAuthController(authService services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

var validate = validator.New()

// decodeAndValidate parses the JSON body into dst and runs the
// validator tags. It writes the error response itself and returns
// false when the request is unusable.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request payload", nil, err,
		)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", fields, err,
		)
		return false
	}
	return true
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// socket peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (c *AuthController) SignupEmail(w http.ResponseWriter, r *http.Request) {
	var req dtos.EmailSignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := c.authService.SignupEmail(r.Context(), &req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

func (c *AuthController) LoginEmail(w http.ResponseWriter, r *http.Request) {
	var req dtos.EmailLoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := c.authService.LoginEmail(r.Context(), &req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *AuthController) LoginApple(w http.ResponseWriter, r *http.Request) {
	var req dtos.AppleTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := c.authService.LoginApple(r.Context(), &req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *AuthController) RequestPhoneOtp(w http.ResponseWriter, r *http.Request) {
	var req dtos.PhoneRequestOtpRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := c.authService.RequestPhoneOtp(r.Context(), &req, clientIP(r))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *AuthController) VerifyPhoneOtp(w http.ResponseWriter, r *http.Request) {
	var req dtos.PhoneVerifyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := c.authService.VerifyPhoneOtp(r.Context(), &req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *AuthController) CompletePhoneProfile(w http.ResponseWriter, r *http.Request) {
	var req dtos.CompletePhoneProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := c.authService.CompletePhoneProfile(r.Context(), &req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
