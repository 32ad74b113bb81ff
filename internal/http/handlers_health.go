package http

import (
	"context"
	"net/http"
	"time"

	"budget/internal/log"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().
		With("status", "ok").
		With("timestamp", time.Now().Format(time.RFC3339)).
		With("uptime", time.Since(s.started).Round(time.Second).String()).
		Write(w)
}

// handleReady checks the database within a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
		"requests":     s.tracer.TotalRequests(),
	}
	status, code := "ready", http.StatusOK

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			checks["database"] = "failed"
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	NewResponse().
		Status(code).
		With("status", status).
		With("timestamp", time.Now().Format(time.RFC3339)).
		With("checks", checks).
		Write(w)
}
