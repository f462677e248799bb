package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rbhardware/shop-backend/api/validators"
	"github.com/rbhardware/shop-backend/internal/cart"
	"github.com/rbhardware/shop-backend/internal/users"
	pkgAuth "github.com/rbhardware/shop-backend/pkg/auth"
	"github.com/rbhardware/shop-backend/pkg/auth/session"
	"github.com/rbhardware/shop-backend/pkg/config"
	"github.com/rbhardware/shop-backend/pkg/db"
	"github.com/rbhardware/shop-backend/pkg/db/models"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/logger"
	"github.com/rbhardware/shop-backend/pkg/mailer"
	"github.com/rbhardware/shop-backend/pkg/security"
)

const (
	msgInvalidEmail    = "Invalid email"
	msgShortPassword   = "Password length should be greater than 6"
	msgUserExists      = "User already exists"
	msgUserNotFound    = "User not found"
	msgInvalidPassword = "Invalid password"
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*users.UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, accessToken, refreshToken string) (*RefreshResponse, error)

	Me(ctx context.Context, userID uuid.UUID) (users.SummaryDTO, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req ProfileUpdate) (*users.UserDTO, error)

	SendOTP(ctx context.Context, req SendOTPRequest) error
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) error
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	EmailTakenByOther(ctx context.Context, email string, id uuid.UUID) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Mutate(ctx context.Context, id uuid.UUID, fn users.MutateFunc) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type otpRepository interface {
	Create(ctx context.Context, email, code string, expiresAt time.Time) (*models.OTP, error)
	FindValid(ctx context.Context, email, code string, now time.Time) (*models.OTP, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (session.Rotation, error)
	Revoke(ctx context.Context, accessID string) error
}

type cartMerger interface {
	MergeGuestCart(ctx context.Context, guestSession string, userID uuid.UUID) (cart.MergeResult, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo         userRepository
	OTPRepo          otpRepository
	SessionManager   sessionManager
	Carts            cartMerger
	Mailer           mailer.Mailer
	Logger           *logger.Logger
	JWTConfig        config.JWTConfig
	PasswordConfig   config.PasswordConfig
	ResetPasswordURL string
}

type service struct {
	users       userRepository
	otps        otpRepository
	session     sessionManager
	carts       cartMerger
	mail        mailer.Mailer
	logg        *logger.Logger
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	resetURL    string
	now         func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.OTPRepo == nil {
		return nil, fmt.Errorf("otp repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart merger is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if strings.TrimSpace(params.ResetPasswordURL) == "" {
		return nil, fmt.Errorf("reset password url is required")
	}
	return &service{
		users:       params.UserRepo,
		otps:        params.OTPRepo,
		session:     params.SessionManager,
		carts:       params.Carts,
		mail:        params.Mailer,
		logg:        params.Logger,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		resetURL:    strings.TrimRight(strings.TrimSpace(params.ResetPasswordURL), "/"),
		now:         time.Now,
	}, nil
}

func (s *service) SignUp(ctx context.Context, req SignUpRequest) (*users.UserDTO, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validators.Struct(req); err != nil {
		return nil, err
	}
	email := req.Email
	if req.Phone != nil && strings.TrimSpace(*req.Phone) == "" {
		req.Phone = nil
	}
	if req.Phone != nil && !validators.IsMobilePhone(*req.Phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid phone number")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msgUserExists)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Phone:        req.Phone,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgUserExists)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return users.FromModel(user), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := validators.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now, err := s.recordLogin(ctx, user)
	if err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refreshToken, err := s.session.Generate(ctx, accessID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}

	resp := &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.SummaryFromModel(user),
	}
	if req.GuestSession != "" {
		resp.CartMerge = s.mergeGuestCart(ctx, req.GuestSession, user.ID)
	}
	return resp, nil
}

// mergeGuestCart never fails the login; unmerged lines stay in the guest cart.
func (s *service) mergeGuestCart(ctx context.Context, guestSession string, userID uuid.UUID) *CartMergeSummary {
	result, err := s.carts.MergeGuestCart(ctx, guestSession, userID)
	if result.Merged == 0 && result.Failed == 0 && err == nil {
		return nil
	}
	if err != nil {
		logCtx := s.logg.WithUserID(ctx, userID.String())
		logCtx = s.logg.WithGuestSession(logCtx, guestSession)
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"merged": result.Merged,
			"failed": result.Failed,
		})
		s.logg.Error(logCtx, "cart.merge_failed", err)
	}
	return &CartMergeSummary{Merged: result.Merged, Failed: result.Failed}
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if err := s.session.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*RefreshResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	rotation, err := s.session.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	signed, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: rotation.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		JTI:    rotation.AccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &RefreshResponse{AccessToken: signed, RefreshToken: rotation.RefreshToken}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidPassword)
	}
	return user, nil
}

func (s *service) recordLogin(ctx context.Context, user *models.User) (time.Time, error) {
	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	return now, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
