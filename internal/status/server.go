// Package status serves the operational endpoints used in scheduled mode:
// a health check over the pipeline's backing stores and the last run report.
package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// Pinger is satisfied by pgxpool.Pool and the redis client adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewRouter builds the chi router for the status server. redisPinger may be
// nil when no cache is configured. Rate limiting is applied globally:
// 60 requests per minute per IP.
func NewRouter(reporter *Reporter, db Pinger, redisPinger Pinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/healthz", healthHandler(db, redisPinger, log))
	r.Get("/status", statusHandler(reporter))

	return r
}

// healthHandler pings Postgres and, when configured, Redis; 200 if all ok,
// 503 otherwise.
func healthHandler(db Pinger, redisPinger Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		code := http.StatusOK
		resp := map[string]string{"status": "ok", "db": "ok"}

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			resp["db"] = "error"
			code = http.StatusServiceUnavailable
		}

		if redisPinger != nil {
			resp["redis"] = "ok"
			if err := redisPinger.Ping(ctx); err != nil {
				log.Error("health check: redis ping failed", "err", err)
				resp["redis"] = "error"
				code = http.StatusServiceUnavailable
			}
		}

		if code != http.StatusOK {
			resp["status"] = "degraded"
		}
		writeJSON(w, code, resp)
	}
}

// statusHandler returns the last run report, or 404 until one exists.
func statusHandler(reporter *Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := reporter.Last()
		if report == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed run yet"})
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
