// Package highcard implements a small trick-taking game on top of the room
// contract: every player is dealt a hand of ranked cards, one card is played
// per trick, the highest card takes the trick, and the game ends when the
// hands are empty. Hands are private, tricks are public.
package highcard

import (
	"encoding/json"
	"math/rand"
	"sort"
	"time"

	"github.com/feldhart/gameroom-backend/internal/room"
)

const (
	HandSize       = 5
	RevealDuration = 3 * time.Second

	// Cards are the integers 1..deckSize; a higher card always wins, so the
	// deck has no ties.
	deckSize = 52
)

type seat struct {
	hand  []int
	score int
}

type Game struct {
	room    *room.Room
	started bool
	over    bool
	dirty   bool

	seats map[string]*seat
	order []string // join order, also deal order

	trick      map[string]int // cards on the table, by player
	trickOrder []string
	resolved   bool // the open trick has been scored, awaiting clear

	reveal       time.Duration
	cancelReveal func()
}

// New is a room.GameFactory.
func New(r *room.Room) room.Game {
	return &Game{
		room:   r,
		seats:  make(map[string]*seat),
		trick:  make(map[string]int),
		reveal: RevealDuration,
	}
}

func (g *Game) AddPlayer(name string) bool {
	if g.started {
		return false
	}
	g.seats[name] = &seat{}
	g.order = append(g.order, name)
	g.dirty = true
	return true
}

func (g *Game) RemovePlayer(name string) {
	if _, ok := g.seats[name]; !ok {
		return
	}
	delete(g.seats, name)
	for i, n := range g.order {
		if n == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	if _, ok := g.trick[name]; ok {
		delete(g.trick, name)
		for i, n := range g.trickOrder {
			if n == name {
				g.trickOrder = append(g.trickOrder[:i], g.trickOrder[i+1:]...)
				break
			}
		}
	}
	g.dirty = true
	if !g.started {
		return
	}
	if len(g.seats) < 2 {
		g.finish()
		return
	}
	// The departed player may have been the last one holding up the trick.
	g.maybeResolveTrick()
}

func (g *Game) Start() {
	g.started = true
	g.deal()
	g.dirty = true
}

func (g *Game) Over() bool {
	return g.over
}

func (g *Game) Actions() map[string]room.ActionFunc {
	return map[string]room.ActionFunc{
		"play": g.handlePlay,
	}
}

// deal hands out HandSize cards per player from a shuffled deck, fewer when
// the table is too large for the deck.
func (g *Game) deal() {
	handSize := HandSize
	if n := len(g.order); n > 0 && n*HandSize > deckSize {
		handSize = deckSize / n
	}
	if handSize == 0 {
		g.finish()
		return
	}
	deck := rand.Perm(deckSize)
	next := 0
	for _, name := range g.order {
		hand := make([]int, handSize)
		for i := range hand {
			hand[i] = deck[next] + 1
			next++
		}
		sort.Ints(hand)
		g.seats[name].hand = hand
	}
}

func (g *Game) handlePlay(name string, payload json.RawMessage) error {
	var play struct {
		Card int `json:"card"`
	}
	if err := json.Unmarshal(payload, &play); err != nil {
		return room.NewError(room.CodeMalformed, "play needs a card")
	}
	st, ok := g.seats[name]
	if !ok {
		return room.NewError(room.CodeUnknownPlayer, "you are not in this game")
	}
	if _, played := g.trick[name]; played {
		return room.NewError("", "you already played a card this trick")
	}
	if !st.drop(play.Card) {
		return room.NewError("", "you do not hold that card")
	}
	g.trick[name] = play.Card
	g.trickOrder = append(g.trickOrder, name)
	g.dirty = true
	g.maybeResolveTrick()
	return nil
}

// maybeResolveTrick scores the trick once every seated player has played and
// schedules the table clear so clients get a moment to see the result.
func (g *Game) maybeResolveTrick() {
	if g.resolved || len(g.seats) == 0 || len(g.trick) < len(g.seats) {
		return
	}
	g.resolved = true
	winner := g.trickOrder[0]
	for _, name := range g.trickOrder[1:] {
		if g.trick[name] > g.trick[winner] {
			winner = name
		}
	}
	g.seats[winner].score++
	g.announce(winner + " takes the trick!")
	if g.cancelReveal != nil {
		g.cancelReveal()
	}
	g.cancelReveal = g.room.Schedule(g.reveal, g.clearTrick)
}

// clearTrick runs on the room's serialized context after the reveal delay.
func (g *Game) clearTrick() {
	g.trick = make(map[string]int)
	g.trickOrder = nil
	g.resolved = false
	g.dirty = true
	for _, st := range g.seats {
		if len(st.hand) > 0 {
			return
		}
	}
	g.finish()
}

func (g *Game) finish() {
	if g.over {
		return
	}
	g.over = true
	g.dirty = true
	if g.cancelReveal != nil {
		g.cancelReveal()
		g.cancelReveal = nil
	}
	g.announce("game over!")
}

func (g *Game) announce(text string) {
	payload, _ := json.Marshal(map[string]string{"type": "message", "msg": text})
	g.room.FireEvent("", room.Event{
		Produce:   func(string) []byte { return payload },
		NotifyAll: true,
	})
}

func (g *Game) SendDirty() {
	if !g.dirty {
		return
	}
	g.dirty = false
	g.room.FireEvent("", room.Event{
		Produce:   g.StateEvent,
		PerUser:   true,
		NotifyAll: true,
	})
}

type playerState struct {
	Name      string `json:"name"`
	Score     int    `json:"score"`
	CardsLeft int    `json:"cards_left"`
	Played    bool   `json:"played"`
}

type playedCard struct {
	Name string `json:"name"`
	Card int    `json:"card"`
}

type stateFrame struct {
	Type    string        `json:"type"`
	Started bool          `json:"started"`
	Over    bool          `json:"over"`
	Players []playerState `json:"players"`
	Trick   []playedCard  `json:"trick"`
	Hand    []int         `json:"hand"`
}

// StateEvent builds the full snapshot as seen by name: everyone's scores and
// card counts, the open trick, and only name's own hand. Unknown names get
// nothing.
func (g *Game) StateEvent(name string) []byte {
	st, ok := g.seats[name]
	if !ok {
		return nil
	}
	frame := stateFrame{
		Type:    "state",
		Started: g.started,
		Over:    g.over,
		Players: make([]playerState, 0, len(g.order)),
		Trick:   make([]playedCard, 0, len(g.trickOrder)),
		Hand:    append([]int(nil), st.hand...),
	}
	for _, n := range g.order {
		_, played := g.trick[n]
		frame.Players = append(frame.Players, playerState{
			Name:      n,
			Score:     g.seats[n].score,
			CardsLeft: len(g.seats[n].hand),
			Played:    played,
		})
	}
	for _, n := range g.trickOrder {
		frame.Trick = append(frame.Trick, playedCard{Name: n, Card: g.trick[n]})
	}
	data, _ := json.Marshal(frame)
	return data
}

// PlayerEvent is the private view: just the hand.
func (g *Game) PlayerEvent(name string) []byte {
	st, ok := g.seats[name]
	if !ok {
		return nil
	}
	data, _ := json.Marshal(map[string]any{"type": "hand", "hand": st.hand})
	return data
}

// Standings returns the result table sorted best-first.
func (g *Game) Standings() []room.Standing {
	standings := make([]room.Standing, 0, len(g.order))
	for _, name := range g.order {
		standings = append(standings, room.Standing{Name: name, Score: g.seats[name].score})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	return standings
}

// drop removes card from the hand, reporting whether it was held.
func (s *seat) drop(card int) bool {
	for i, c := range s.hand {
		if c == card {
			s.hand = append(s.hand[:i], s.hand[i+1:]...)
			return true
		}
	}
	return false
}
