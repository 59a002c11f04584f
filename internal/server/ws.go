package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/feldhart/gameroom-backend/internal/room"
)

const sendBufferSize = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client is one websocket connection. It implements room.Sender: Send pushes
// into a buffered channel drained by writePump, so a slow or dead peer never
// blocks a broadcast. Overflow closes the socket and the read loop surfaces
// the disconnect through the usual leave path.
type client struct {
	conn *websocket.Conn
	send chan []byte
	room *room.Room

	// name is bound by the first successful join action and only ever
	// touched from the read loop.
	name string
}

// HandleWebSocket upgrades the connection and runs the client pumps.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[HandleWebSocket] upgrade failed:", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		room: s.room,
	}

	go c.writePump()
	c.readPump()
}

// Send implements room.Sender. It must not block; a full buffer means the
// peer stopped reading, which we treat as a disconnect.
func (c *client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		c.conn.Close()
	}
}

func (c *client) readPump() {
	defer func() {
		if c.name != "" {
			c.room.Leave(c.name, c)
		}
		c.conn.Close()
		// The room no longer holds this handle after Leave, so nothing can
		// send anymore and the write pump may drain out.
		close(c.send)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[readPump] read error for %q: %v", c.name, err)
			}
			return
		}
		c.handle(raw)
	}
}

// handle routes one inbound frame. Until a join binds a name, only join
// frames are acted on; everything else is ignored, matching the protocol's
// "no name bound yet" rule.
func (c *client) handle(raw []byte) {
	if c.name != "" {
		c.room.Dispatch(c.name, c, raw)
		return
	}

	var join struct {
		Action string `json:"action"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(raw, &join); err != nil {
		c.Send(room.ErrorPayload(room.CodeMalformed, "message could not be parsed"))
		return
	}
	if join.Action != "join" {
		return
	}
	if join.Name == "" {
		c.Send(room.ErrorPayload(room.CodeEmptyName, "name must not be empty!"))
		return
	}
	if err := c.room.Join(join.Name, c); err != nil {
		c.Send(room.ErrorPayload(room.ErrorCode(err), err.Error()))
		return
	}
	c.name = join.Name
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
