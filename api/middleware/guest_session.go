package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/pkg/config"
	"github.com/rbhardware/shop-backend/pkg/logger"
)

// GuestSessionHeader lets non-browser clients carry the guest session id.
const GuestSessionHeader = "X-Guest-Session"

// GuestSession attaches the anonymous cart session to unauthenticated
// requests, issuing a new cookie when the visitor has none. Requests that
// already carry a user id pass through unchanged. It must run after
// OptionalAuth.
func GuestSession(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) != "" {
				next.ServeHTTP(w, r)
				return
			}

			sessionID := GuestSessionFromRequest(r, cfg.GuestCookieName)
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, guestCookie(cfg, sessionID))
				w.Header().Set(GuestSessionHeader, sessionID)
			}

			ctx := WithGuestSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithGuestSession(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuestSessionFromRequest reads the guest session id from the cookie or the
// header fallback. Malformed values are ignored.
func GuestSessionFromRequest(r *http.Request, cookieName string) string {
	if r == nil {
		return ""
	}
	candidate := ""
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			candidate = cookie.Value
		}
	}
	if candidate == "" {
		candidate = r.Header.Get(GuestSessionHeader)
	}
	candidate = strings.TrimSpace(candidate)
	if _, err := uuid.Parse(candidate); err != nil {
		return ""
	}
	return candidate
}

// ClearGuestCookie expires the guest cookie once its cart has been merged.
func ClearGuestCookie(w http.ResponseWriter, cfg config.SessionConfig) {
	cookie := guestCookie(cfg, "")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func guestCookie(cfg config.SessionConfig, value string) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.GuestCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cfg.GuestCartTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
