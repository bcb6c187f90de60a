package api

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn adapts a gorilla *websocket.Conn to room.Conn. gorilla only allows
// one concurrent writer per connection, so every Send is serialized behind
// mu (a shared hub instead serializes all writers behind a
// single hub-wide broadcast channel; here each connection gets its own
// lock, since fan-out now goes through many independent Room.Broadcast
// calls rather than one global loop).
type wsConn struct {
	conn *websocket.Conn
	ip   string

	mu sync.Mutex
}

func newWSConn(conn *websocket.Conn, ip string) *wsConn {
	return &wsConn{conn: conn, ip: ip}
}

// envelope is the {event, data} wire shape (§6), the same shape Send
// marshals for outbound messages.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Send implements room.Conn.
func (c *wsConn) Send(event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	msg, err := json.Marshal(struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}{Event: event, Data: payload})
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *wsConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.Close()
}
