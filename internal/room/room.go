package room

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

const recordTimeout = 10 * time.Second

// Room is the session container for one game instance and its connected
// players. It owns the connection registry, the embedded game, the creator
// role and the lobby/running/over state machine, and is the sole mutator of
// all of them.
//
// A single mutex serializes Join, Leave, Dispatch and scheduled callbacks, so
// game code never interleaves with an in-flight action. Outbound sends are
// non-blocking (see Sender) and may therefore happen under the lock.
type Room struct {
	mu       sync.Mutex
	reg      *registry
	game     Game
	newGame  GameFactory
	started  bool
	creator  string
	recorder Recorder
	recorded bool
}

// New builds a room with a fresh game from factory. rec may be nil to
// disable match recording.
func New(factory GameFactory, rec Recorder) *Room {
	r := &Room{
		reg:      newRegistry(),
		newGame:  factory,
		recorder: rec,
	}
	r.game = factory(r)
	return r
}

// Join registers name under conn. Three cases, checked in order: a name
// parked in the waiting set reconnects, a name already active is rejected,
// anything else is a fresh join.
func (r *Room) Join(name string, conn Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, waiting := r.reg.waiting[name]; waiting {
		// Reconnection: no game-side mutation, just a new handle plus a
		// catch-up snapshot for the returning player.
		if err := r.reg.promoteWaiting(name, conn); err != nil {
			return err
		}
		log.Printf("[Join] %s reconnected, %d still waiting", name, len(r.reg.waiting))
		r.broadcastManagement()
		if data := r.game.StateEvent(name); len(data) > 0 {
			conn.Send(data)
		}
		if data := r.game.PlayerEvent(name); len(data) > 0 {
			conn.Send(data)
		}
		return nil
	}

	if err := r.reg.addActive(name, conn); err != nil {
		return err
	}
	if len(r.reg.active) == 1 {
		r.creator = name
		conn.Send(rightsPayload())
	}

	// Registered before AddPlayer runs: the game may fire events that
	// reference the joining player.
	if !r.game.AddPlayer(name) {
		r.reg.remove(name, gone)
		if r.creator == name {
			r.creator = ""
		}
		return NewError(CodeGameRunning, "the game is currently running")
	}

	log.Printf("[Join] %s joined, %d active", name, len(r.reg.active))
	r.broadcast(messagePayload(name + " joined the game!"))
	conn.Send(joinedPayload())
	r.game.SendDirty()
	return nil
}

// Leave handles a transport-initiated disconnect or an explicit leave for
// name. from must be the handle that joined as name; a handle that was
// revoked (kick) or superseded (the name rebound to a newer connection) is
// ignored, so a lingering socket can never evict the name's current owner.
// Mid-game a genuine departure parks the player for reconnection; otherwise
// it is permanent.
func (r *Room) Leave(name string, from Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.reg.conn(name); !ok || conn != from {
		return
	}
	r.drop(name, false)
}

// drop removes name from the active set. forReal forces the permanent path
// even mid-game (kick). Callers hold r.mu.
func (r *Room) drop(name string, forReal bool) {
	if _, ok := r.reg.active[name]; !ok {
		return
	}

	if r.running() && !forReal {
		r.reg.remove(name, toWaiting)
		log.Printf("[Leave] %s disconnected mid-game, waiting for reconnect", name)
		r.broadcastManagement()
	} else {
		r.reg.remove(name, gone)
		r.game.RemovePlayer(name)
		log.Printf("[Leave] %s left for good, %d active", name, len(r.reg.active))
		r.game.SendDirty()
		r.broadcast(messagePayload(name + " left the game!"))
	}

	if r.reg.isEmpty() {
		r.reset()
		return
	}
	if name == r.creator {
		next := r.reg.names()[0]
		r.creator = next
		if conn, ok := r.reg.conn(next); ok {
			conn.Send(rightsPayload())
		}
		log.Printf("[Leave] creator rights passed to %s", next)
	}
}

// reset discards the game instance and the waiting set once the room is
// empty, so the next cohort starts from a clean lobby. Callers hold r.mu.
func (r *Room) reset() {
	log.Printf("[reset] room empty, rebuilding game state")
	r.reg.clearWaiting()
	r.creator = ""
	r.started = false
	r.recorded = false
	r.game = r.newGame(r)
}

func (r *Room) running() bool {
	return r.started && !r.game.Over()
}

// Dispatch validates and routes one inbound frame from name. from must be
// the handle that joined as name; frames from a revoked or superseded handle
// are dropped, never attributed to whoever currently holds the name. All
// expected rejections turn into error frames for the sender; nothing here
// closes the connection or propagates an error upward.
func (r *Room) Dispatch(name string, from Sender, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.reg.conn(name)
	if !ok || conn != from {
		return
	}

	var base struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(raw, &base); err != nil || base.Action == "" {
		conn.Send(ErrorPayload(CodeMalformed, "message could not be parsed"))
		return
	}

	switch {
	case !r.running() && base.Action != "start_game":
		conn.Send(ErrorPayload(CodeNotStarted, "the game has to be started first"))
	case base.Action == "start_game":
		r.handleStart(name, conn)
	case base.Action == "kick":
		r.handleKick(name, conn, raw)
	case len(r.reg.waiting) > 0:
		// A mid-game disconnect pauses everything until the player returns.
		conn.Send(ErrorPayload("", "the game is paused until all players have reconnected"))
	default:
		r.handleAction(name, conn, base.Action, raw)
	}
	r.maybeRecord()
}

func (r *Room) handleStart(name string, conn Sender) {
	if name != r.creator {
		conn.Send(ErrorPayload(CodeNotAuthorized, "only the creator can start the game"))
		return
	}
	// started alone blocks a restart: a concluded game stays concluded until
	// the room resets.
	if r.started {
		conn.Send(ErrorPayload(CodeGameRunning, "the game has already been started"))
		return
	}
	r.started = true
	r.game.Start()
	log.Printf("[Dispatch] %s started the game with %d players", name, len(r.reg.active))
	r.game.SendDirty()
}

func (r *Room) handleKick(name string, conn Sender, raw []byte) {
	if name != r.creator {
		conn.Send(ErrorPayload(CodeNotAuthorized, "only the creator can kick players"))
		return
	}
	var kick struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &kick); err != nil || kick.Name == "" {
		conn.Send(ErrorPayload(CodeMalformed, "kick needs a name"))
		return
	}
	target, ok := r.reg.conn(kick.Name)
	if !ok {
		conn.Send(ErrorPayload(CodeUnknownPlayer, kick.Name+" is not in the room"))
		return
	}
	target.Send(messagePayload("you have been kicked from the game"))
	log.Printf("[Dispatch] %s kicked %s", name, kick.Name)
	// Kicks are permanent even while a game is running.
	r.drop(kick.Name, true)
}

func (r *Room) handleAction(name string, conn Sender, action string, raw []byte) {
	handler, ok := r.game.Actions()[action]
	if !ok {
		conn.Send(ErrorPayload(CodeInvalidAction, action+" is not a valid action!"))
		return
	}
	if err := r.invoke(handler, name, raw); err != nil {
		conn.Send(ErrorPayload(ErrorCode(err), err.Error()))
	}
	// Resync even after a failed handler so every client converges on the
	// post-failure truth.
	r.game.SendDirty()
}

// invoke runs a game action handler, recovering panics into a generic
// handler_error so a buggy game cannot take the room down.
func (r *Room) invoke(h ActionFunc, name string, payload json.RawMessage) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Dispatch] action handler panicked for %s: %v\n%s", name, rec, debug.Stack())
			err = NewError(CodeHandlerError, "the action failed unexpectedly")
		}
	}()
	return h(name, payload)
}

// maybeRecord hands final standings to the recorder the first time the game
// is observed in its over state. Callers hold r.mu; the write itself runs
// off the room's context.
func (r *Room) maybeRecord() {
	if r.recorder == nil || r.recorded || !r.started || !r.game.Over() {
		return
	}
	r.recorded = true

	var standings []Standing
	if sc, ok := r.game.(Scorer); ok {
		standings = sc.Standings()
	} else {
		for _, name := range r.reg.names() {
			standings = append(standings, Standing{Name: name})
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.recorder.RecordMatch(ctx, standings); err != nil {
			log.Printf("[maybeRecord] failed to record match: %v", err)
		}
	}()
}

// broadcast sends data to every active player. Callers hold r.mu.
func (r *Room) broadcast(data []byte) {
	for _, conn := range r.reg.active {
		conn.Send(data)
	}
}

func (r *Room) broadcastManagement() {
	r.broadcast(managementPayload(r.reg.waitingNames()))
}

// Creator returns the current creator name, or "" for an empty room.
func (r *Room) Creator() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creator
}

// Running reports whether a game is in progress and not yet over.
func (r *Room) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running()
}

// Names returns active player names in join order.
func (r *Room) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reg.names()
}

// WaitingNames returns the names parked for reconnection, sorted.
func (r *Room) WaitingNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reg.waitingNames()
}
