package room

import (
	"context"
	"encoding/json"
)

// ActionFunc handles one game-specific action. payload is the raw inbound
// frame; the handler decodes whatever fields it needs. A returned error is
// relayed to the sender as an error frame, a panic is recovered by the room
// and reported as a handler_error.
type ActionFunc func(name string, payload json.RawMessage) error

// Game is the pluggable rules engine a Room drives. Implementations receive
// the room at construction so they can call back into FireEvent and Schedule.
// All methods are invoked on the room's serialized context; implementations
// need no locking of their own.
type Game interface {
	// AddPlayer accepts or rejects a new participant. It may fire events
	// referencing the player, who is already registered when it runs.
	AddPlayer(name string) bool

	// RemovePlayer permanently drops a participant's game-side state.
	RemovePlayer(name string)

	// Start transitions the game from not-started to in-progress.
	Start()

	// Over reports whether the game has concluded.
	Over() bool

	// Actions is the game-specific action table.
	Actions() map[string]ActionFunc

	// SendDirty pushes pending state-change notifications. Idempotent when
	// nothing changed; the room calls it after every mutation as a cheap
	// convergence guarantee.
	SendDirty()

	// StateEvent produces a full state snapshot for name, sent on
	// reconnection. Nil means nothing to send.
	StateEvent(name string) []byte

	// PlayerEvent produces the private per-player view for name, sent on
	// reconnection. Nil means nothing to send.
	PlayerEvent(name string) []byte
}

// GameFactory builds a fresh game bound to r. The room re-invokes it whenever
// the active set empties, so a new cohort never observes a stale scoreboard.
type GameFactory func(r *Room) Game

// Standing is one row of a finished game's result table.
type Standing struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Scorer is implemented by games that expose final standings for recording.
type Scorer interface {
	Standings() []Standing
}

// Recorder receives final standings once per game when it concludes.
type Recorder interface {
	RecordMatch(ctx context.Context, standings []Standing) error
}
