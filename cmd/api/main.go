package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/feldhart/gameroom-backend/internal/highcard"
	"github.com/feldhart/gameroom-backend/internal/room"
	"github.com/feldhart/gameroom-backend/internal/server"
	"github.com/feldhart/gameroom-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	var rec room.Recorder
	var st *store.MatchStore
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		var err error
		st, err = store.New(ctx, databaseURL)
		if err != nil {
			log.Fatalf("Error connecting match store: %v", err)
		}
		defer st.Close()
		rec = st
		log.Println("Match history enabled")
	}

	rm := room.New(highcard.New, rec)

	srv := server.NewServer(rm, st)
	log.Printf("Server running on http://localhost%s", srv.Addr)
	log.Fatal(srv.ListenAndServe())
}
