package api

import (
	"net/http"
)

func (s *Server) handleBuildStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "build stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.stats.Snapshot(),
	})
}
