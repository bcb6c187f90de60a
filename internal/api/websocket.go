package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"sidescroller-session-engine/internal/session"
)

var connSeq uint64

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed.
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP.
	MaxWSConnectionsPerIP = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// hubClient tracks one connected socket alongside its session and room.Conn
// adapter.
type hubClient struct {
	ws   *wsConn
	ip   string
	sess *session.Session
}

// WebSocketHub manages every connected socket and dispatches decoded
// ingress events into the session engine. Keeps the conventional
// register/unregister bookkeeping and connection-limiting, but there is no
// broadcast channel or periodic game-state push — fan-out happens per-room
// via room.Room.Broadcast, called directly from session handlers.
type WebSocketHub struct {
	engine *session.Engine

	clients map[*websocket.Conn]*hubClient
	mu      sync.RWMutex

	wsLimiter *WebSocketRateLimiter
}

func NewWebSocketHub(engine *session.Engine) *WebSocketHub {
	return &WebSocketHub{
		engine:    engine,
		clients:   make(map[*websocket.Conn]*hubClient),
		wsLimiter: NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WebSocketHub) register(client *hubClient) {
	h.mu.Lock()
	h.clients[client.ws.conn] = client
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("client connected from %s (%d total)", client.ip, count)
	UpdateWSConnections(count)
}

func (h *WebSocketHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	client, ok := h.clients[conn]
	if ok {
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.engine.Disconnect(client.sess)
		client.ws.Close()
	}
	log.Printf("client disconnected (%d remaining)", count)
	UpdateWSConnections(count)
}

// HandleWebSocket upgrades the request and runs the connection's read loop
// until it errors or closes, dispatching every decoded event into the
// session engine (§6 "bidirectional socket framing").
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	h.mu.RLock()
	total := len(h.clients)
	h.mu.RUnlock()
	if total >= MaxWSConnectionsTotal {
		log.Printf("WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	wc := newWSConn(conn, ip)
	client := &hubClient{
		ws:   wc,
		ip:   ip,
		sess: session.NewSession(connID(conn), wc),
	}
	h.register(client)

	go h.readLoop(conn, client)
}

func (h *WebSocketHub) readLoop(conn *websocket.Conn, client *hubClient) {
	defer h.unregister(conn)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env envelope
		if err := json.Unmarshal(message, &env); err != nil {
			continue
		}
		IncrementWSMessages()
		dispatch(h.engine, client.sess, env.Event, env.Data)
	}
}

// connID derives a stable per-connection identity string for GM session
// membership.
func connID(conn *websocket.Conn) string {
	return conn.RemoteAddr().String() + "#" + strconv.FormatUint(atomic.AddUint64(&connSeq, 1), 10)
}
