package room

// Event describes how a notification is computed and fanned out. The producer
// maps a player name to a payload; a nil or empty result suppresses delivery
// to that recipient, which lets a game withhold information selectively.
type Event struct {
	Produce func(name string) []byte

	// PerUser recomputes the payload for each recipient instead of once.
	PerUser bool

	// NotifyAll targets every active player instead of only the sender.
	NotifyAll bool
}

// FireEvent evaluates ev and delivers its payload(s). sender is the player
// whose action triggered the event; it seeds the producer unless the event is
// both per-user and room-wide.
//
// FireEvent must only be called from code already running on the room's
// serialized context: a game callback, an action handler, or a scheduled
// callback. It does not lock.
func (r *Room) FireEvent(sender string, ev Event) {
	var data []byte
	if !ev.PerUser || !ev.NotifyAll {
		data = ev.Produce(sender)
	}
	if !ev.NotifyAll {
		if len(data) == 0 {
			return
		}
		if conn, ok := r.reg.conn(sender); ok {
			conn.Send(data)
		}
		return
	}
	for _, name := range r.reg.names() {
		if ev.PerUser {
			data = ev.Produce(name)
		}
		if len(data) == 0 {
			continue
		}
		if conn, ok := r.reg.conn(name); ok {
			conn.Send(data)
		}
	}
}
