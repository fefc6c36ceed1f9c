package sync

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
)

const (
	writeWait = 2 * time.Second
	// sendBuffer is how many events a client may fall behind before it is
	// dropped.
	sendBuffer = 16
)

// client owns one websocket. Only its write loop writes to the connection.
type client struct {
	userID string
	ws     *websocket.Conn
	send   chan []byte
}

// Hub fans list events out to the websocket connections of the owning user.
type Hub struct {
	logger hclog.Logger

	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]*client
}

type Stats struct {
	Users   int `json:"users"`
	Clients int `json:"clients"`
}

func NewHub(logger hclog.Logger) *Hub {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[string]map[*websocket.Conn]*client),
	}
}

// Add registers ws for userID, queues a greeting and starts its write loop.
func (h *Hub) Add(userID string, ws *websocket.Conn) error {
	welcome, err := json.Marshal(map[string]string{"type": "welcome", "user_id": userID})
	if err != nil {
		return err
	}
	c := &client{userID: userID, ws: ws, send: make(chan []byte, sendBuffer)}
	c.send <- welcome

	h.mu.Lock()
	conns, ok := h.clients[userID]
	if !ok {
		conns = make(map[*websocket.Conn]*client)
		h.clients[userID] = conns
	}
	conns[ws] = c
	h.mu.Unlock()

	go h.writeLoop(c)
	return nil
}

func (h *Hub) Remove(userID string, ws *websocket.Conn) {
	h.mu.Lock()
	if c, ok := h.clients[userID][ws]; ok {
		h.unregisterLocked(c)
	}
	h.mu.Unlock()
	_ = ws.Close()
}

// unregisterLocked forgets c and closes its queue, which ends the write loop.
func (h *Hub) unregisterLocked(c *client) {
	conns := h.clients[c.userID]
	if conns[c.ws] != c {
		return
	}
	delete(conns, c.ws)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

func (h *Hub) writeLoop(c *client) {
	defer c.ws.Close()
	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("dropping websocket client", "user_id", c.userID, "error", err)
			h.mu.Lock()
			h.unregisterLocked(c)
			h.mu.Unlock()
			return
		}
	}
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// Publish queues ev for every connection of ev.UserID and never waits on a
// socket. A connection whose queue is full is dropped.
func (h *Hub) Publish(ev ListEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal list event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients[ev.UserID] {
		select {
		case c.send <- b:
		default:
			h.logger.Debug("dropping slow websocket client", "user_id", ev.UserID)
			h.unregisterLocked(c)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := Stats{Users: len(h.clients)}
	for _, conns := range h.clients {
		s.Clients += len(conns)
	}
	return s
}
