package controllers

import (
	"context"
	"net/http"

	"github.com/cocomarket/bulkbuy-backend/api/responses"
	"github.com/cocomarket/bulkbuy-backend/pkg/config"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
)

// Pinger is the health check surface shared by the db and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BulkBuy-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every wired dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-BulkBuy-Env", cfg.App.Env)

		statuses := make(map[string]string, len(deps))
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				statuses[name] = "absent"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				logg.Error(ctx, "health.dependency_unavailable", err)
				statuses[name] = "unavailable"
				healthy = false
				continue
			}
			statuses[name] = "ok"
		}

		if !healthy {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": statuses})
	}
}
