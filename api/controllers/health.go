package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type connectionCounter interface {
	TotalConnections() int
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tableorder-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and fails with 503 naming the first
// one that is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, db pinger, redis pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tableorder-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := []struct {
			name string
			p    pinger
		}{
			{"database", db},
			{"redis", redis},
		}
		for _, check := range checks {
			if check.p == nil {
				continue
			}
			if err := check.p.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unavailable").
					WithDetails(map[string]any{"dependency": check.name}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

// HealthSummary reports the environment and live stream connections.
func HealthSummary(cfg *config.Config, streams connectionCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tableorder-Env", cfg.App.Env)
		connections := 0
		if streams != nil {
			connections = streams.TotalConnections()
		}
		responses.WriteSuccess(w, map[string]any{
			"status":             "ok",
			"service":            cfg.App.Name,
			"env":                cfg.App.Env,
			"stream_connections": connections,
		})
	}
}
