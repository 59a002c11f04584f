// Package store persists finished-match results to PostgreSQL. It is
// append-only history for finished games, not room state; the room runs fine
// without it.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feldhart/gameroom-backend/internal/room"
)

const matchesSchema = `
CREATE TABLE IF NOT EXISTS matches (
	id          UUID PRIMARY KEY,
	finished_at TIMESTAMPTZ NOT NULL,
	standings   JSONB NOT NULL
)`

// Match is one recorded game result.
type Match struct {
	ID         uuid.UUID       `json:"id"`
	FinishedAt time.Time       `json:"finished_at"`
	Standings  []room.Standing `json:"standings"`
}

// MatchStore implements room.Recorder on a pgx connection pool.
type MatchStore struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*MatchStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, matchesSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure matches table: %w", err)
	}
	return &MatchStore{pool: pool}, nil
}

// RecordMatch inserts one result row.
func (s *MatchStore) RecordMatch(ctx context.Context, standings []room.Standing) error {
	data, err := json.Marshal(standings)
	if err != nil {
		return fmt.Errorf("marshal standings: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO matches (id, finished_at, standings) VALUES ($1, $2, $3)`,
		uuid.New(), time.Now().UTC(), data)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// RecentMatches returns up to limit results, newest first.
func (s *MatchStore) RecentMatches(ctx context.Context, limit int) ([]Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, finished_at, standings FROM matches ORDER BY finished_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var standings []byte
		if err := rows.Scan(&m.ID, &m.FinishedAt, &standings); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if err := json.Unmarshal(standings, &m.Standings); err != nil {
			return nil, fmt.Errorf("decode standings: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *MatchStore) Close() {
	s.pool.Close()
}
