package auth

import (
	"github.com/rbhardware/shop-backend/internal/users"
)

// SignUpRequest is the body of POST /auth/sign-up.
type SignUpRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Phone    *string `json:"phone,omitempty"`
}

func (SignUpRequest) ValidationMessage(field, tag string) string {
	switch field {
	case "email":
		return msgInvalidEmail
	case "password":
		return msgShortPassword
	}
	return ""
}

// LoginRequest captures the user credentials sent to the login endpoint.
// GuestSession is filled from the guest cookie, never from the body.
type LoginRequest struct {
	Email        string `json:"email" validate:"required"`
	Password     string `json:"password" validate:"required"`
	GuestSession string `json:"-"`
}

func (LoginRequest) ValidationMessage(field, tag string) string {
	if field == "email" {
		return msgUserNotFound
	}
	return msgInvalidPassword
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	AccessToken  string
	RefreshToken string
	User         users.SummaryDTO
	CartMerge    *CartMergeSummary
}

// CartMergeSummary reports how many guest lines reached the user's cart.
type CartMergeSummary struct {
	Merged int `json:"merged"`
	Failed int `json:"failed"`
}

// RefreshResponse carries the rotated token pair.
type RefreshResponse struct {
	AccessToken  string
	RefreshToken string
}

// ProfileUpdate is the body of PUT /auth/update-profile. Empty fields are left unchanged.
type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SendOTPRequest is the body of POST /auth/send-otp.
type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (SendOTPRequest) ValidationMessage(field, tag string) string {
	return msgInvalidEmail
}

// VerifyOTPRequest is the body of POST /auth/verify-otp.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func (ResetPasswordRequest) ValidationMessage(field, tag string) string {
	if field == "token" {
		return msgInvalidResetToken
	}
	return msgShortPassword
}
