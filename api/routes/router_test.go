package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/rbhardware/shop-backend/pkg/auth"
	"github.com/rbhardware/shop-backend/pkg/auth/session"
	"github.com/rbhardware/shop-backend/pkg/config"
	"github.com/rbhardware/shop-backend/pkg/enums"
	"github.com/rbhardware/shop-backend/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "rbh", ExpirationMinutes: 15},
		Session: config.SessionConfig{
			GuestCartTTL:    time.Hour,
			GuestCookieName: "rbh_guest",
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
}

func newTestRouter(t *testing.T, deps Dependencies) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	if deps.Sessions == nil {
		deps.Sessions = stubSessions{}
	}
	return NewRouter(cfg, nil, deps), cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "router@example.com",
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthLive(t *testing.T) {
	router, _ := newTestRouter(t, Dependencies{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "test", resp.Header().Get("X-RBH-Env"))
	require.Contains(t, resp.Body.String(), `"status":"live"`)
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router, _ := newTestRouter(t, Dependencies{
		DB:    stubPinger{},
		Redis: stubPinger{err: errors.New("connection refused")},
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Contains(t, resp.Body.String(), "redis unavailable")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, Dependencies{})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/auth/me"},
		{http.MethodPut, "/auth/update-profile"},
		{http.MethodGet, "/api/addresses/getaddress"},
		{http.MethodGet, "/api/wishlist/"},
		{http.MethodPost, "/order/create"},
		{http.MethodGet, "/order/user"},
		{http.MethodPost, "/plist/addproduct"},
		{http.MethodDelete, "/colorfilter/colors/" + uuid.NewString()},
	} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
		require.Equalf(t, http.StatusUnauthorized, resp.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	router, cfg := newTestRouter(t, Dependencies{})
	token := bearer(t, cfg, enums.UserRoleUser)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/order/all"},
		{http.MethodPatch, "/order/admin/" + uuid.NewString() + "/ORD-20240101-ABCD/status"},
		{http.MethodPatch, "/order/ORD-20240101-ABCD/status"},
		{http.MethodPost, "/plist/addproduct"},
		{http.MethodPut, "/plist/productlist/" + uuid.NewString()},
		{http.MethodPost, "/categoryfilter/categories/"},
		{http.MethodPut, "/materialfilter/materials/" + uuid.NewString()},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
		req.Header.Set("Authorization", token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		require.Equalf(t, http.StatusForbidden, resp.Code, "%s %s", tc.method, tc.path)
	}
}

func TestCartIssuesGuestSessionCookie(t *testing.T) {
	router, cfg := newTestRouter(t, Dependencies{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/cart/", nil))

	var guest *http.Cookie
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == cfg.Session.GuestCookieName {
			guest = cookie
		}
	}
	require.NotNil(t, guest)
	_, err := uuid.Parse(guest.Value)
	require.NoError(t, err)
	require.Equal(t, guest.Value, resp.Header().Get("X-Guest-Session"))
}

func TestMetricsEndpointExposesHTTPCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	router, _ := newTestRouter(t, Dependencies{
		Metrics:  metrics.NewShopMetrics(reg),
		Gatherer: reg,
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `http_requests_total{method="GET",route="/health/live",status="200"} 1`)
}

func TestCORSPreflightAllowsConfiguredOrigin(t *testing.T) {
	router, _ := newTestRouter(t, Dependencies{})

	req := httptest.NewRequest(http.MethodOptions, "/order/create", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, "http://localhost:5173", resp.Header().Get("Access-Control-Allow-Origin"))
}
