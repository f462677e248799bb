package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/rbhardware/shop-backend/api/routes"
	"github.com/rbhardware/shop-backend/internal/address"
	"github.com/rbhardware/shop-backend/internal/auth"
	"github.com/rbhardware/shop-backend/internal/cart"
	"github.com/rbhardware/shop-backend/internal/catalog"
	"github.com/rbhardware/shop-backend/internal/orders"
	"github.com/rbhardware/shop-backend/internal/otp"
	product "github.com/rbhardware/shop-backend/internal/products"
	"github.com/rbhardware/shop-backend/internal/users"
	"github.com/rbhardware/shop-backend/internal/wishlist"
	"github.com/rbhardware/shop-backend/pkg/auth/session"
	"github.com/rbhardware/shop-backend/pkg/config"
	"github.com/rbhardware/shop-backend/pkg/db"
	"github.com/rbhardware/shop-backend/pkg/logger"
	"github.com/rbhardware/shop-backend/pkg/mailer"
	"github.com/rbhardware/shop-backend/pkg/metrics"
	"github.com/rbhardware/shop-backend/pkg/migrate"
	"github.com/rbhardware/shop-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.App.IsProd() && !cfg.Session.SecureCookies {
		logg.Warn(context.Background(), "guest cart cookie is not marked secure in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shopMetrics := metrics.NewShopMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	mail, err := mailer.New(cfg.Sendgrid, logg)
	requireResource(ctx, logg, "mailer", err)

	userRepo := users.NewRepository(dbClient.DB())
	productRepo := product.NewRepository(dbClient.DB())

	guestCarts, err := cart.NewRedisSessionStore(redisClient, cfg.Session.GuestCartTTL)
	requireResource(ctx, logg, "guest cart store", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		Users:    userRepo,
		Sessions: guestCarts,
		Recorder: shopMetrics,
	})
	requireResource(ctx, logg, "cart service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:         userRepo,
		OTPRepo:          otp.NewRepository(dbClient.DB()),
		SessionManager:   sessionManager,
		Carts:            cartService,
		Mailer:           mail,
		Logger:           logg,
		JWTConfig:        cfg.JWT,
		PasswordConfig:   cfg.Password,
		ResetPasswordURL: cfg.Frontend.ResetPasswordURL,
	})
	requireResource(ctx, logg, "auth service", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Users:    userRepo,
		Recorder: shopMetrics,
		Logger:   logg,
	})
	requireResource(ctx, logg, "order service", err)

	productService, err := product.NewService(product.ServiceParams{
		Products: productRepo,
		Users:    userRepo,
		Tx:       dbClient,
	})
	requireResource(ctx, logg, "product service", err)

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Users:    userRepo,
		Products: productRepo,
	})
	requireResource(ctx, logg, "wishlist service", err)

	router := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:        dbClient,
		Redis:     redisClient,
		Sessions:  sessionManager,
		RateLimit: redisClient,
		Replay:    redisClient,
		Metrics:   shopMetrics,
		Gatherer:  registry,

		Auth:       authService,
		Addresses:  address.NewService(userRepo),
		Carts:      cartService,
		Orders:     orderService,
		Products:   productService,
		Categories: catalog.NewService(catalog.Categories, catalog.NewRepository(dbClient.DB(), catalog.Categories)),
		Colors:     catalog.NewService(catalog.Colors, catalog.NewRepository(dbClient.DB(), catalog.Colors)),
		Materials:  catalog.NewService(catalog.Materials, catalog.NewRepository(dbClient.DB(), catalog.Materials)),
		Wishlist:   wishlistService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			return
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
		return
	}
	logg.Info(ctx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
