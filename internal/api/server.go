package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sidescroller-session-engine/internal/session"
)

// Server is the HTTP API server with WebSocket support. Construction starts
// one background goroutine, the IP rate limiter's cleanup loop; Start()
// opens the HTTP listener. The WebSocket hub
// dispatches decoded events into the session engine instead of running a
// periodic broadcast loop.
type Server struct {
	engine      *session.Engine
	router      *chi.Mux
	hub         *WebSocketHub
	rateLimiter *IPRateLimiter
}

// NewServer creates a new API server with default production configuration.
// The rate limiter's cleanup goroutine starts here and runs until Stop().
func NewServer(engine *session.Engine) *Server {
	s := &Server{
		engine: engine,
		hub:    NewWebSocketHub(engine),
	}

	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Hub:         s.hub,
		RateLimiter: s.rateLimiter,
	})

	return s
}

// Start begins the HTTP server. Call this method only once; to stop the
// server, signal the process and call Stop for cleanup.
func (s *Server) Start(addr string) error {
	log.Printf("API server starting on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
