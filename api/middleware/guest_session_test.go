package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rbhardware/shop-backend/pkg/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{GuestCartTTL: time.Hour, GuestCookieName: "rbh_guest"}
}

func TestGuestSessionIssuesCookie(t *testing.T) {
	var session string
	handler := GuestSession(testSessionConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session = GuestSessionFromContext(r.Context())
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	_, err := uuid.Parse(session)
	require.NoError(t, err)
	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "rbh_guest", cookies[0].Name)
	require.Equal(t, session, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, session, resp.Header().Get(GuestSessionHeader))
}

func TestGuestSessionReusesExistingCookie(t *testing.T) {
	existing := uuid.NewString()
	var session string
	handler := GuestSession(testSessionConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session = GuestSessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: "rbh_guest", Value: existing})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, existing, session)
	require.Empty(t, resp.Result().Cookies())
}

func TestGuestSessionAcceptsHeaderAndIgnoresGarbage(t *testing.T) {
	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set(GuestSessionHeader, existing)
	require.Equal(t, existing, GuestSessionFromRequest(req, "rbh_guest"))

	req = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: "rbh_guest", Value: "not-a-uuid"})
	require.Empty(t, GuestSessionFromRequest(req, "rbh_guest"))
}

func TestGuestSessionSkipsAuthenticatedUsers(t *testing.T) {
	var session string
	handler := GuestSession(testSessionConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session = GuestSessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req = req.WithContext(WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Empty(t, session)
	require.Empty(t, resp.Result().Cookies())
}
