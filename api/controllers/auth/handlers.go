package auth

import (
	"net/http"
	"strings"

	"github.com/rbhardware/shop-backend/api/middleware"
	"github.com/rbhardware/shop-backend/api/responses"
	"github.com/rbhardware/shop-backend/api/validators"
	"github.com/rbhardware/shop-backend/internal/auth"
	"github.com/rbhardware/shop-backend/pkg/config"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/logger"
	"github.com/rbhardware/shop-backend/pkg/types"
)

const (
	headerAuthToken    = "X-Auth-Token"
	headerRefreshToken = "X-Refresh-Token"
)

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

// SignUp registers a customer account.
func SignUp(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		var body auth.SignUpRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.SignUp(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "User created successfully", types.Payload{"user": user})
	}
}

// Login authenticates the user and folds any guest cart into theirs.
func Login(svc auth.Service, sessionCfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.GuestSession = middleware.GuestSessionFromRequest(r, sessionCfg.GuestCookieName)

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.GuestSession != "" && (result.CartMerge == nil || result.CartMerge.Failed == 0) {
			middleware.ClearGuestCookie(w, sessionCfg)
		}

		w.Header().Set(headerAuthToken, result.AccessToken)
		w.Header().Set(headerRefreshToken, result.RefreshToken)
		payload := types.Payload{
			"user":         result.User,
			"token":        result.AccessToken,
			"refreshToken": result.RefreshToken,
		}
		if result.CartMerge != nil {
			payload["cartMerge"] = result.CartMerge
		}
		responses.WriteSuccess(w, "Login successful", payload)
	}
}

// Logout revokes the session behind the presented access token.
func Logout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		if err := svc.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Logged out successfully", nil)
	}
}

// Refresh rotates the refresh token. The token may come from the
// X-Refresh-Token header or the JSON body.
func Refresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		refreshToken := strings.TrimSpace(r.Header.Get(headerRefreshToken))
		if refreshToken == "" {
			var body refreshBody
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token required"))
				return
			}
			refreshToken = strings.TrimSpace(body.RefreshToken)
		}

		result, err := svc.Refresh(r.Context(), middleware.BearerToken(r), refreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(headerAuthToken, result.AccessToken)
		w.Header().Set(headerRefreshToken, result.RefreshToken)
		responses.WriteSuccess(w, "Token refreshed", types.Payload{
			"token":        result.AccessToken,
			"refreshToken": result.RefreshToken,
		})
	}
}

// Me returns the authenticated user's summary.
func Me(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", types.Payload{"user": user})
	}
}

// GetProfile returns the full profile without credentials.
func GetProfile(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", types.Payload{"user": user})
	}
}

func UpdateProfile(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.ProfileUpdate
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.UpdateProfile(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Profile updated successfully", types.Payload{"user": user})
	}
}

func SendOTP(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		var body auth.SendOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SendOTP(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "OTP sent successfully", nil)
	}
}

func VerifyOTP(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		var body auth.VerifyOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.VerifyOTP(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "OTP verified successfully", nil)
	}
}

func ForgotPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		var body auth.ForgotPasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ForgotPassword(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Password reset link sent to your email", nil)
	}
}

func ResetPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		var body auth.ResetPasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ResetPassword(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Password reset successful", nil)
	}
}

func available(svc auth.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request) bool {
	if svc != nil {
		return true
	}
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
	return false
}
