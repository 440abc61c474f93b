package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/taskboard/internal/api/response"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including store connectivity.
// A nil cache pinger means redis is disabled.
func ReadyCheck(store Pinger, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("store not ready")
			response.Error(w, http.StatusServiceUnavailable, response.ErrorBody{
				Code:    "UNAVAILABLE",
				Message: "database not ready",
			})
			return
		}

		status := map[string]string{
			"status": "ready",
			"store":  "ok",
			"redis":  "disabled",
		}
		if cache != nil {
			status["redis"] = "ok"
			if err := cache.Ping(r.Context()); err != nil {
				log.Warn().Err(err).Msg("redis not ready")
				status["redis"] = "unavailable"
			}
		}

		response.OK(w, status)
	}
}
