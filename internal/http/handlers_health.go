package http

import (
	"context"
	"net/http"
	"time"
)

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady verifies that the store answers within a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"store": "ok"}
	if err := s.svc.Ready(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"http": map[string]int64{
			"total_requests":  tm.TotalRequests,
			"server_errors":   tm.ServerErrors,
			"last_latency_us": tm.LastLatencyUs,
		},
		"rate_limit": map[string]int64{
			"total_hits":   rm.TotalHits,
			"client_count": rm.ClientCount,
		},
		"security": map[string]int64{
			"blocked_requests": s.detector.Blocked(),
		},
	})
}
