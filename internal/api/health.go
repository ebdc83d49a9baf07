package api

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler reports the harness status. Redis being unreachable only
// degrades the status since counters are best effort.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "health"
	const method = "GET"

	status := map[string]any{"status": "ok"}
	if s.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.Store.Client.Ping(ctx).Err(); err != nil {
			status["status"] = "degraded"
			status["redis"] = err.Error()
		}
	}
	if s.RemoteConfig != nil {
		status["killSwitch"] = s.RemoteConfig.KillSwitchEngaged()
	}

	s.respond(w, endpoint, method, start, http.StatusOK, status)
}
