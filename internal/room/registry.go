package room

import "slices"

// Sender is the transport handle bound to one player. Send must never block:
// the server implementation pushes into a buffered channel and treats
// overflow as a dead connection.
type Sender interface {
	Send(data []byte)
}

type destination int

const (
	// toWaiting parks a player for later reconnection.
	toWaiting destination = iota
	// gone forgets the player entirely.
	gone
)

// registry tracks active players and players temporarily disconnected while
// a game was in progress. A name is never in both sets at once. Active names
// keep their join order so creator succession is deterministic.
type registry struct {
	active  map[string]Sender
	waiting map[string]Sender // handle is nil once the link has dropped
	order   []string
}

func newRegistry() *registry {
	return &registry{
		active:  make(map[string]Sender),
		waiting: make(map[string]Sender),
	}
}

func (g *registry) addActive(name string, conn Sender) error {
	if _, ok := g.active[name]; ok {
		return NewError(CodeNameTaken, "the name %s is already taken", name)
	}
	g.active[name] = conn
	g.order = append(g.order, name)
	return nil
}

// promoteWaiting moves name back to the active set with its new live handle.
func (g *registry) promoteWaiting(name string, conn Sender) error {
	if _, ok := g.waiting[name]; !ok {
		return NewError(CodeUnknownPlayer, "%s is not waiting to reconnect", name)
	}
	delete(g.waiting, name)
	g.active[name] = conn
	g.order = append(g.order, name)
	return nil
}

func (g *registry) remove(name string, dest destination) {
	if _, ok := g.active[name]; !ok {
		return
	}
	delete(g.active, name)
	g.order = slices.DeleteFunc(g.order, func(s string) bool {
		return s == name
	})
	if dest == toWaiting {
		g.waiting[name] = nil
	}
}

func (g *registry) isEmpty() bool {
	return len(g.active) == 0
}

func (g *registry) conn(name string) (Sender, bool) {
	c, ok := g.active[name]
	return c, ok
}

// names returns active player names in join order.
func (g *registry) names() []string {
	return slices.Clone(g.order)
}

func (g *registry) waitingNames() []string {
	names := make([]string, 0, len(g.waiting))
	for name := range g.waiting {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (g *registry) clearWaiting() {
	g.waiting = make(map[string]Sender)
}
