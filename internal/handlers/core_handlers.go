package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"devconnect/internal/engine/actors"
)

// HandleHealth handles health check requests
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		result, err := s.request(s.Engine.GetCommunityActor(), &actors.GetCountsMsg{})
		if err != nil {
			http.Error(w, "Failed to get community count", http.StatusInternalServerError)
			return
		}
		communityCount, _ := result.(int)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":          "healthy",
			"community_count": communityCount,
			"uptime":          s.Metrics.Uptime().String(),
			"server_time":     time.Now(),
		})
	}
}

// HandleDashboard serves the platform-wide activity counters.
func (s *Server) HandleDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		stats, err := s.DB.GetDashboardStats(r.Context())
		if err != nil {
			s.Metrics.IncrementErrors()
			http.Error(w, "Failed to get dashboard stats", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}
