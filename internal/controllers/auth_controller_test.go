package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonjunho2/tok-friends/internal/dtos"
	"github.com/sonjunho2/tok-friends/internal/utils"
)

// stubAuthService returns canned values so handler behavior can be
// tested without a database.
type stubAuthService struct {
	authResp   *dtos.AuthResponse
	otpResp    *dtos.RequestOtpResponse
	verifyResp *dtos.PhoneVerifyResponse
	err        error

	lastClientIP string
}

func (s *stubAuthService) SignupEmail(ctx context.Context, req *dtos.EmailSignupRequest) (*dtos.AuthResponse, error) {
	return s.authResp, s.err
}

func (s *stubAuthService) LoginEmail(ctx context.Context, req *dtos.EmailLoginRequest) (*dtos.AuthResponse, error) {
	return s.authResp, s.err
}

func (s *stubAuthService) LoginApple(ctx context.Context, req *dtos.AppleTokenRequest) (*dtos.AuthResponse, error) {
	return s.authResp, s.err
}

func (s *stubAuthService) RequestPhoneOtp(ctx context.Context, req *dtos.PhoneRequestOtpRequest, clientIP string) (*dtos.RequestOtpResponse, error) {
	s.lastClientIP = clientIP
	return s.otpResp, s.err
}

func (s *stubAuthService) VerifyPhoneOtp(ctx context.Context, req *dtos.PhoneVerifyRequest) (*dtos.PhoneVerifyResponse, error) {
	return s.verifyResp, s.err
}

func (s *stubAuthService) CompletePhoneProfile(ctx context.Context, req *dtos.CompletePhoneProfileRequest) (*dtos.AuthResponse, error) {
	return s.authResp, s.err
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var errResp utils.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	return errResp
}

func TestSignupEmailHandlerSuccess(t *testing.T) {
	email := "amy@example.com"
	stub := &stubAuthService{authResp: &dtos.AuthResponse{
		User:        dtos.AuthUser{ID: uuid.New(), Email: &email, Provider: "email"},
		Token:       "tok",
		AccessToken: "tok",
	}}
	c := NewAuthController(stub)

	rec := postJSON(t, c.SignupEmail, dtos.EmailSignupRequest{
		Email:    email,
		Password: "hunter2hunter2",
		DOB:      "1994-05-17",
		Gender:   "female",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp dtos.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "tok", resp.AccessToken)
}

func TestSignupEmailHandlerRejectsBadPayload(t *testing.T) {
	c := NewAuthController(&stubAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	c.SignupEmail(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ErrCodeInvalidPayload, decodeError(t, rec).Code)
}

func TestSignupEmailHandlerRejectsInvalidFields(t *testing.T) {
	c := NewAuthController(&stubAuthService{})

	rec := postJSON(t, c.SignupEmail, dtos.EmailSignupRequest{
		Email:    "not-an-email",
		Password: "short",
		DOB:      "1994-05-17",
		Gender:   "female",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeError(t, rec)
	assert.Equal(t, utils.ErrCodeValidation, errResp.Code)
	assert.NotNil(t, errResp.Details)
}

func TestHandlerPropagatesAppError(t *testing.T) {
	stub := &stubAuthService{err: &utils.AppError{
		StatusCode: http.StatusConflict,
		Code:       utils.ErrCodeEmailRegistered,
		Message:    "Email is already registered",
	}}
	c := NewAuthController(stub)

	rec := postJSON(t, c.SignupEmail, dtos.EmailSignupRequest{
		Email:    "dup@example.com",
		Password: "hunter2hunter2",
		DOB:      "1990-01-01",
		Gender:   "other",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, utils.ErrCodeEmailRegistered, decodeError(t, rec).Code)
}

func TestRequestPhoneOtpHandlerForwardsClientIP(t *testing.T) {
	stub := &stubAuthService{otpResp: &dtos.RequestOtpResponse{RequestID: uuid.NewString(), ExpiresIn: 180}}
	c := NewAuthController(stub)

	raw, err := json.Marshal(dtos.PhoneRequestOtpRequest{Phone: "010-1234-5678", CountryCode: "KR"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	c.RequestPhoneOtp(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "203.0.113.7", stub.lastClientIP)
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func TestHealthCheck(t *testing.T) {
	c := NewHealthController(stubPinger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c.Check(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dtos.HealthCheckResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHealthCheckReportsDatabaseFailure(t *testing.T) {
	c := NewHealthController(stubPinger{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c.Check(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
