package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sidescroller-session-engine/internal/session"
)

// RouterConfig contains all dependencies needed to construct the HTTP
// router, following a dependency-injection shape that keeps NewRouter
// httptest-friendly, trimmed to the three surfaces §6 calls for:
// health, WebSocket upgrade, metrics.
type RouterConfig struct {
	Engine *session.Engine
	Hub    *WebSocketHub

	// RateLimiter is an optional pre-configured rate limiter. If nil, one
	// is built from RateLimitConfig.
	RateLimiter *IPRateLimiter

	RateLimitConfig *RateLimitConfig

	// DisableLogging disables the request logger middleware, useful for
	// benchmarks and quiet test runs.
	DisableLogging bool
}

// NewRouter constructs the HTTP router with all middleware and routes. It
// opens no listeners, so it is safe for httptest.NewServer. When
// cfg.RateLimiter is nil it builds an IPRateLimiter, which starts that
// limiter's cleanup goroutine.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// Cross-origin access is permissive by design (§6).
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	h := &routerHandlers{engine: cfg.Engine}

	r.Get("/", h.handleHealth)
	r.Get("/ws", cfg.Hub.HandleWebSocket)
	r.Get("/metrics", metricsHandler())

	return r
}
