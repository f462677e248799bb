package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rbhardware/shop-backend/api/middleware"
	"github.com/rbhardware/shop-backend/internal/auth"
	"github.com/rbhardware/shop-backend/internal/users"
	"github.com/rbhardware/shop-backend/pkg/config"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
)

type stubAuthService struct {
	auth.Service

	loginReq    auth.LoginRequest
	loginResp   *auth.LoginResponse
	loginErr    error
	logoutToken string
	profile     auth.ProfileUpdate
	profileErr  error
	otpErr      error
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.loginReq = req
	return s.loginResp, s.loginErr
}

func (s *stubAuthService) Logout(ctx context.Context, accessToken string) error {
	s.logoutToken = accessToken
	if accessToken == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return nil
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req auth.ProfileUpdate) (*users.UserDTO, error) {
	s.profile = req
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return &users.UserDTO{ID: userID, Name: req.Name}, nil
}

func (s *stubAuthService) VerifyOTP(ctx context.Context, req auth.VerifyOTPRequest) error {
	return s.otpErr
}

func sessionConfig() config.SessionConfig {
	return config.SessionConfig{GuestCartTTL: time.Hour, GuestCookieName: "rbh_guest"}
}

func TestLoginSetsTokenHeadersAndForwardsGuestSession(t *testing.T) {
	guest := uuid.NewString()
	svc := &stubAuthService{loginResp: &auth.LoginResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         users.SummaryDTO{ID: uuid.New(), Name: "Asha", Email: "asha@example.com"},
		CartMerge:    &auth.CartMergeSummary{Merged: 2},
	}}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"Asha@Example.com","password":"secret1"}`))
	req.AddCookie(&http.Cookie{Name: "rbh_guest", Value: guest})
	resp := httptest.NewRecorder()
	Login(svc, sessionConfig(), nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, guest, svc.loginReq.GuestSession)
	require.Equal(t, "access", resp.Header().Get("X-Auth-Token"))
	require.Equal(t, "refresh", resp.Header().Get("X-Refresh-Token"))

	var body struct {
		Success   bool                  `json:"success"`
		Message   string                `json:"message"`
		Token     string                `json:"token"`
		User      users.SummaryDTO      `json:"user"`
		CartMerge auth.CartMergeSummary `json:"cartMerge"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "Login successful", body.Message)
	require.Equal(t, "access", body.Token)
	require.Equal(t, "asha@example.com", body.User.Email)
	require.Equal(t, 2, body.CartMerge.Merged)

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "rbh_guest", cookies[0].Name)
	require.Negative(t, cookies[0].MaxAge)
}

func TestLoginMapsServiceErrors(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid password")}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.co","password":"nope"}`))
	resp := httptest.NewRecorder()
	Login(svc, sessionConfig(), nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Contains(t, resp.Body.String(), "Invalid password")
}

func TestLogoutRequiresToken(t *testing.T) {
	svc := &stubAuthService{}

	resp := httptest.NewRecorder()
	Logout(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer abc")
	resp = httptest.NewRecorder()
	Logout(svc, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "abc", svc.logoutToken)
	require.Contains(t, resp.Body.String(), "Logged out successfully")
}

func TestUpdateProfileUsesAuthenticatedUser(t *testing.T) {
	svc := &stubAuthService{}
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPut, "/auth/update-profile", strings.NewReader(`{"name":"New Name"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	resp := httptest.NewRecorder()
	UpdateProfile(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "New Name", svc.profile.Name)
	require.Contains(t, resp.Body.String(), "Profile updated successfully")
}

func TestUpdateProfileWithoutUserIsUnauthorized(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/auth/update-profile", strings.NewReader(`{"name":"x"}`))
	resp := httptest.NewRecorder()
	UpdateProfile(&stubAuthService{}, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestVerifyOTPFailureIsBadRequest(t *testing.T) {
	svc := &stubAuthService{otpErr: pkgerrors.New(pkgerrors.CodeValidation, "Invalid or expired OTP")}

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-otp", strings.NewReader(`{"email":"a@b.co","otp":"000000"}`))
	resp := httptest.NewRecorder()
	VerifyOTP(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, "Invalid or expired OTP", body.Message)
	require.Equal(t, string(pkgerrors.CodeValidation), body.Code)
}

func TestHandlersReportMissingService(t *testing.T) {
	resp := httptest.NewRecorder()
	SendOTP(nil, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/auth/send-otp", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
