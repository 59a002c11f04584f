package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/feldhart/gameroom-backend/internal/room"
	"github.com/feldhart/gameroom-backend/internal/store"
)

type Server struct {
	room  *room.Room
	store *store.MatchStore // nil disables the match history endpoint
}

// NewServer wires the room and optional match store into an http.Server.
func NewServer(rm *room.Room, st *store.MatchStore) *http.Server {
	port, err := strconv.Atoi(envOr("PORT", "6791"))
	if err != nil {
		log.Fatalf("[NewServer] invalid PORT: %v", err)
	}

	s := &Server{room: rm, store: st}

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.RegisterRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}
}

// envOr reads an environment variable or falls back to a default.
func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
