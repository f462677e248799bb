package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/rbhardware/shop-backend/api/responses"
	"github.com/rbhardware/shop-backend/pkg/config"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/logger"
	"github.com/rbhardware/shop-backend/pkg/types"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RBH-Env", cfg.App.Env)
		responses.WriteSuccess(w, "", types.Payload{"status": "live"})
	}
}

// HealthReady pings every named dependency and reports 503 on the first
// failure.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RBH-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, "", types.Payload{"status": "ready"})
	}
}
