package wsconn

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn wraps a websocket connection with a write lock. Room events are
// serialized per room, but their broadcasts run after the room lock is
// released, so two events can target the same connection at once.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// ReadJSON is unguarded: a connection has exactly one reader goroutine.
func (c *Conn) ReadJSON(v any) error {
	return c.ws.ReadJSON(v)
}

func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ws.WriteJSON(v)
}

func (c *Conn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ws.WriteControl(messageType, data, deadline)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
