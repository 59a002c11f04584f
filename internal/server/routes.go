package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.HealthHandler)

	r.HandleFunc("/matches", s.RecentMatchesHandler).Methods("GET")

	r.HandleFunc("/ws", s.HandleWebSocket)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HealthHandler reports the room's current occupancy.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"players":     s.room.Names(),
		"waiting_for": s.room.WaitingNames(),
		"running":     s.room.Running(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[HealthHandler] error encoding response: %v", err)
	}
}

// RecentMatchesHandler returns the latest recorded game results.
func (s *Server) RecentMatchesHandler(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "match history is not enabled", http.StatusNotFound)
		return
	}

	matches, err := s.store.RecentMatches(r.Context(), 20)
	if err != nil {
		log.Printf("[RecentMatchesHandler] query failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(matches); err != nil {
		log.Printf("[RecentMatchesHandler] error encoding response: %v", err)
	}
}
