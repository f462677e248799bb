package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/rbhardware/shop-backend/api/validators"
	"github.com/rbhardware/shop-backend/pkg/db/models"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/mailer"
	"github.com/rbhardware/shop-backend/pkg/security"
)

const (
	otpTTL        = mailer.OTPValidityMinutes * time.Minute
	resetTokenTTL = time.Hour

	msgInvalidOTP        = "Invalid or expired OTP"
	msgInvalidResetToken = "Invalid or expired reset token"
)

// SendOTP stores a fresh six digit code for the address and emails it.
// Expired codes of every address are purged first.
func (s *service) SendOTP(ctx context.Context, req SendOTPRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validators.Struct(req); err != nil {
		return err
	}
	email := req.Email

	now := s.now().UTC()
	if purged, err := s.otps.DeleteExpired(ctx, now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "purge expired otps")
	} else if purged > 0 {
		s.logg.Debug(s.logg.WithField(ctx, "purged", purged), "otp.expired_purged")
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	if _, err := s.otps.Create(ctx, email, code, now.Add(otpTTL)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store otp")
	}
	if err := s.mail.Send(ctx, mailer.OTPMessage(email, code)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Failed to send OTP email")
	}
	return nil
}

// VerifyOTP consumes a matching unexpired code and marks the account verified
// when one exists for the address.
func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" || req.OTP == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidOTP)
	}

	record, err := s.otps.FindValid(ctx, email, req.OTP, s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidOTP)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup otp")
	}
	if err := s.otps.Delete(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume otp")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.IsVerified {
		return nil
	}
	_, err = s.users.Mutate(ctx, user.ID, func(u *models.User) error {
		u.IsVerified = true
		return nil
	})
	return err
}

// ForgotPassword stores the hash of a fresh reset token and emails the raw
// token inside the storefront reset link.
func (s *service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	email := normalizeEmail(req.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	token, err := security.GenerateResetToken()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	hash := security.HashToken(token)
	expires := s.now().UTC().Add(resetTokenTTL)

	if _, err := s.users.Mutate(ctx, user.ID, func(u *models.User) error {
		u.PasswordResetToken = &hash
		u.PasswordResetExpires = &expires
		return nil
	}); err != nil {
		return err
	}

	link := s.resetURL + "/" + token
	if err := s.mail.Send(ctx, mailer.ResetPasswordMessage(user.Email, link)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Failed to send reset email")
	}
	return nil
}

// ResetPassword swaps the password of the user holding an unexpired token and
// clears the token so it cannot be replayed.
func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := validators.Struct(req); err != nil {
		return err
	}

	now := s.now().UTC()
	hash := security.HashToken(req.Token)
	user, err := s.users.FindByResetToken(ctx, hash, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidResetToken)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup reset token")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	_, err = s.users.Mutate(ctx, user.ID, func(u *models.User) error {
		if u.PasswordResetToken == nil || *u.PasswordResetToken != hash ||
			u.PasswordResetExpires == nil || !u.PasswordResetExpires.After(now) {
			return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidResetToken)
		}
		u.PasswordHash = passwordHash
		u.PasswordResetToken = nil
		u.PasswordResetExpires = nil
		return nil
	})
	return err
}
