package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rbhardware/shop-backend/api/controllers"
	authcontrollers "github.com/rbhardware/shop-backend/api/controllers/auth"
	cartcontrollers "github.com/rbhardware/shop-backend/api/controllers/cart"
	ordercontrollers "github.com/rbhardware/shop-backend/api/controllers/orders"
	"github.com/rbhardware/shop-backend/api/middleware"
	"github.com/rbhardware/shop-backend/internal/address"
	"github.com/rbhardware/shop-backend/internal/auth"
	"github.com/rbhardware/shop-backend/internal/cart"
	"github.com/rbhardware/shop-backend/internal/catalog"
	"github.com/rbhardware/shop-backend/internal/orders"
	product "github.com/rbhardware/shop-backend/internal/products"
	"github.com/rbhardware/shop-backend/internal/wishlist"
	"github.com/rbhardware/shop-backend/pkg/auth/session"
	"github.com/rbhardware/shop-backend/pkg/config"
	"github.com/rbhardware/shop-backend/pkg/logger"
	pkgredis "github.com/rbhardware/shop-backend/pkg/redis"
)

// Dependencies groups everything the HTTP surface needs.
type Dependencies struct {
	DB        controllers.Pinger
	Redis     controllers.Pinger
	Sessions  session.AccessSessionChecker
	RateLimit middleware.RateLimitStore
	Replay    pkgredis.IdempotencyStore
	Metrics   middleware.HTTPObserver
	Gatherer  prometheus.Gatherer

	Auth       auth.Service
	Addresses  address.Service
	Carts      cart.Service
	Orders     orders.Service
	Products   product.Service
	Categories catalog.Service
	Colors     catalog.Service
	Materials  catalog.Service
	Wishlist   wishlist.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.Metrics),
		middleware.CORS(cfg.CORS),
	)

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	requireAdmin := middleware.RequireAdmin(logg)
	limit := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		return middleware.AuthRateLimit(policy, deps.RateLimit, logg)
	}
	idempotent := middleware.Idempotency(deps.Replay, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readinessChecks(deps), logg))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(limit(middleware.SignUpPolicy(cfg.AuthRateLimit))).Post("/sign-up", authcontrollers.SignUp(deps.Auth, logg))
		r.With(limit(middleware.LoginPolicy(cfg.AuthRateLimit))).Post("/login", authcontrollers.Login(deps.Auth, cfg.Session, logg))
		r.Get("/logout", authcontrollers.Logout(deps.Auth, logg))
		r.Post("/refresh", authcontrollers.Refresh(deps.Auth, logg))
		r.With(limit(middleware.OTPPolicy("send-otp", cfg.AuthRateLimit))).Post("/send-otp", authcontrollers.SendOTP(deps.Auth, logg))
		r.Post("/verify-otp", authcontrollers.VerifyOTP(deps.Auth, logg))
		r.With(limit(middleware.OTPPolicy("forgot-password", cfg.AuthRateLimit))).Post("/forgot-password", authcontrollers.ForgotPassword(deps.Auth, logg))
		r.Post("/reset-password", authcontrollers.ResetPassword(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authcontrollers.Me(deps.Auth, logg))
			r.Get("/get-profile", authcontrollers.GetProfile(deps.Auth, logg))
			r.Put("/update-profile", authcontrollers.UpdateProfile(deps.Auth, logg))
		})
	})

	r.Route("/plist", func(r chi.Router) {
		r.Get("/productlist", controllers.ProductList(deps.Products, logg))
		r.Get("/productlist/{id}", controllers.ProductGet(deps.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Post("/addproduct", controllers.ProductCreate(deps.Products, logg))
			r.Put("/productlist/{id}", controllers.ProductUpdate(deps.Products, logg))
			r.Delete("/productlist/{id}", controllers.ProductDelete(deps.Products, logg))
			r.Put("/productlist/{id}/linked", controllers.ProductUpdateLinked(deps.Products, logg))
		})
	})

	mountCatalog(r, "/categoryfilter/categories", deps.Categories, requireAuth, requireAdmin, logg)
	mountCatalog(r, "/colorfilter/colors", deps.Colors, requireAuth, requireAdmin, logg)
	mountCatalog(r, "/materialfilter/materials", deps.Materials, requireAuth, requireAdmin, logg)

	r.Route("/api/addresses", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/getaddress", controllers.AddressList(deps.Addresses, logg))
		r.Post("/add", controllers.AddressAdd(deps.Addresses, logg))
		r.Put("/{addressId}", controllers.AddressUpdate(deps.Addresses, logg))
		r.Delete("/{addressId}", controllers.AddressDelete(deps.Addresses, logg))
		r.Patch("/{addressId}/set-default", controllers.AddressSetDefault(deps.Addresses, logg))
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(
			middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg),
			middleware.GuestSession(cfg.Session, logg),
		)
		r.Get("/", cartcontrollers.CartFetch(deps.Carts, logg))
		r.Post("/add", cartcontrollers.CartAdd(deps.Carts, logg))
		r.Put("/update", cartcontrollers.CartUpdate(deps.Carts, logg))
		r.Delete("/remove/{itemId}", cartcontrollers.CartRemove(deps.Carts, logg))
		r.Delete("/clear", cartcontrollers.CartClear(deps.Carts, logg))
	})

	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", controllers.WishlistGet(deps.Wishlist, logg))
		r.Post("/{productId}", controllers.WishlistAdd(deps.Wishlist, logg))
		r.Delete("/{productId}", controllers.WishlistRemove(deps.Wishlist, logg))
	})

	r.Route("/order", func(r chi.Router) {
		r.Use(requireAuth)
		r.With(idempotent).Post("/create", ordercontrollers.Create(deps.Orders, logg))
		r.Get("/user", ordercontrollers.ListForUser(deps.Orders, logg))
		r.With(requireAdmin).Get("/all", ordercontrollers.ListAll(deps.Orders, logg))
		r.Get("/{orderId}", ordercontrollers.Get(deps.Orders, logg))
		r.With(idempotent).Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
		r.With(requireAdmin).Patch("/admin/{userId}/{orderId}/status", ordercontrollers.AdminUpdateStatus(deps.Orders, logg))
		r.With(requireAdmin).Patch("/{orderId}/status", ordercontrollers.UpdateStatusByRef(deps.Orders, logg))
	})

	return r
}

func mountCatalog(r chi.Router, path string, svc catalog.Service, requireAuth, requireAdmin func(http.Handler) http.Handler, logg *logger.Logger) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", controllers.CatalogList(svc, logg))
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Post("/", controllers.CatalogCreate(svc, logg))
			r.Put("/{id}", controllers.CatalogUpdate(svc, logg))
			r.Delete("/{id}", controllers.CatalogDelete(svc, logg))
		})
	})
}

func readinessChecks(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["db"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
