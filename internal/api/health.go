package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	pgPool  *pgxpool.Pool
	redis   *redis.Client
	env     string
	version string
}

func NewHealthHandler(pgPool *pgxpool.Pool, redis *redis.Client, env, version string) *HealthHandler {
	return &HealthHandler{
		pgPool:  pgPool,
		redis:   redis,
		env:     env,
		version: version,
	}
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	})
}

// Readiness pings Postgres and Redis. Postgres down means not ready; Redis
// down alone degrades (bookings fall back to the exclusion constraint).
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	deps := map[string]string{
		"postgres": checkDep(r.Context(), func(ctx context.Context) error {
			return h.pgPool.Ping(ctx)
		}),
		"redis": checkDep(r.Context(), func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		}),
	}

	status := "ok"
	httpStatus := http.StatusOK
	switch {
	case deps["postgres"] == "down":
		status = "error"
		httpStatus = http.StatusServiceUnavailable
	case deps["redis"] == "down":
		status = "degraded"
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	})
}

func checkDep(ctx context.Context, ping func(context.Context) error) string {
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := ping(pingCtx); err != nil {
		return "down"
	}
	return "ok"
}
