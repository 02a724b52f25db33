package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mkaddour/gestock-backend/api/responses"
	"github.com/mkaddour/gestock-backend/pkg/config"
	"github.com/mkaddour/gestock-backend/pkg/db"
	pkgerrors "github.com/mkaddour/gestock-backend/pkg/errors"
	"github.com/mkaddour/gestock-backend/pkg/logger"
	pkgredis "github.com/mkaddour/gestock-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Gestock-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports whether the API can reach its backing services. A nil
// pinger counts as a failed dependency so a miswired deployment never reports
// ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger db.Pinger, redisPinger pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Gestock-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{
			"database": pingStatus(ctx, dbPinger),
			"redis":    pingStatus(ctx, redisPinger),
		}

		for _, status := range checks {
			if status != "ok" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingStatus(ctx context.Context, p pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "ok"
}
