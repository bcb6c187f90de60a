// Package session is the orchestrator that wires the rate limiter, room
// registry, presence manager, monster simulator, combat arbiter, elite
// promoter and GM session set together (spec §2 data flow: "client event →
// ingress validation (C1) → state mutation in a room (C2-C6) → fan-out
// (C7)"). internal/api owns the transport; this package owns what happens
// once an event has been decoded.
//
// Generalizes a single engine that dispatched every decoded WebSocket event
// directly; here the Engine becomes an aggregate of the per-component
// managers built out across internal/presence, internal/monster,
// internal/combat, internal/loot, internal/eventbus, internal/elite and
// internal/gm.
package session

import (
	"time"

	"sidescroller-session-engine/internal/combat"
	"sidescroller-session-engine/internal/config"
	"sidescroller-session-engine/internal/elite"
	"sidescroller-session-engine/internal/gm"
	"sidescroller-session-engine/internal/monster"
	"sidescroller-session-engine/internal/presence"
	"sidescroller-session-engine/internal/ratelimit"
	"sidescroller-session-engine/internal/room"
)

// Session tracks one connection's identity: which player it currently
// controls and on which map, plus an opaque id used for GM membership.
// internal/api owns the lifetime of one Session per socket.
type Session struct {
	ConnID string
	Conn   room.Conn

	odID  string
	mapID string
}

func NewSession(connID string, conn room.Conn) *Session {
	return &Session{ConnID: connID, Conn: conn}
}

func (s *Session) OdID() string  { return s.odID }
func (s *Session) MapID() string { return s.mapID }

// Engine aggregates every component manager (§2).
type Engine struct {
	Registry  *room.Registry
	Limiter   *ratelimit.Limiter
	Presence  *presence.Manager
	Simulator *monster.Simulator
	Combat    *combat.Arbiter
	Promoter  *elite.Promoter
	GM        *gm.SessionSet

	// StartTime is captured once at boot so joining clients can detect a
	// server restart via the serverStartTime egress event.
	StartTime time.Time

	sweepStop chan struct{}
}

// NewEngine builds the fully-wired engine from application configuration.
func NewEngine(cfg config.AppConfig) *Engine {
	registry := room.NewRegistry()
	limits := ratelimit.Limits{
		Attacks:   cfg.Tuning.AttackCapPerSecond,
		Pickups:   cfg.Tuning.PickupCapPerSecond,
		Positions: cfg.Tuning.PositionCapPerSecond,
	}
	limiter := ratelimit.New(limits)

	return &Engine{
		Registry:  registry,
		Limiter:   limiter,
		Presence:  presence.NewManager(registry, limiter, cfg.Tuning.PlayerTimeout),
		Simulator: monster.NewSimulator(registry, cfg.Tuning.SpeedMultiplier()),
		Combat:    combat.NewArbiter(registry, limiter),
		Promoter:  elite.NewPromoter(registry, cfg.Tuning.EliteCheckMinInterval, cfg.Tuning.EliteCheckMaxInterval),
		GM:        gm.NewSessionSet(cfg.GM.Password),
		StartTime: time.Now(),
		sweepStop: make(chan struct{}),
	}
}

// Start launches every background loop: the monster tick, the elite
// promoter timer, and the presence inactivity sweep (§5 "suspension /
// blocking points").
func (e *Engine) Start(tickHz int, sweepInterval time.Duration) {
	e.Simulator.Start(tickHz)
	e.Promoter.Start()
	e.Presence.StartSweeper(sweepInterval, e.sweepStop)
}

// Stop halts every background loop.
func (e *Engine) Stop() {
	e.Simulator.Stop()
	e.Promoter.Stop()
	close(e.sweepStop)
}

// Stats is the shape consulted by the HTTP health endpoint (§6).
type Stats struct {
	TotalPlayers  int
	TotalMonsters int
	Maps          []MapStats
}

type MapStats struct {
	ID       string
	Players  int
	Monsters int
}

func (e *Engine) Stats() Stats {
	var s Stats
	for _, r := range e.Registry.Rooms() {
		r.Lock()
		players := r.PlayerCount()
		monsters := len(r.LiveMonsters())
		r.Unlock()

		s.TotalPlayers += players
		s.TotalMonsters += monsters
		s.Maps = append(s.Maps, MapStats{ID: r.MapID, Players: players, Monsters: monsters})
	}
	return s
}
