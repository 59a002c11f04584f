package room

import "time"

// Schedule runs fn after d on the room's serialized context, so it can never
// interleave with an in-flight action. A resync is always pushed afterwards,
// even if fn changed nothing.
//
// The callback is bound to the game instance that scheduled it: if the room
// resets before the timer fires, fn is silently dropped instead of mutating
// or announcing into the next cohort's game.
//
// The returned cancel function retracts the callback if it has not started
// yet, for games that need to withdraw a pending timeout (say, because the
// player it was waiting on reconnected).
func (r *Room) Schedule(d time.Duration, fn func()) (cancel func()) {
	owner := r.game
	t := time.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.game != owner {
			return
		}
		fn()
		r.game.SendDirty()
		r.maybeRecord()
	})
	return func() { t.Stop() }
}
