// Package monster implements the server-driven monster simulation described
// in spec §4.4 (C4): spawn-time patrol bound computation and shiny rolls,
// a fixed-cadence tick loop running patrol/chase/knockback AI, and the
// position broadcast that follows each tick.
//
// Modeled on a conventional engine tick loop: a single time.Ticker driving
// one pass over all live entities, generalized here to range over every
// room in the registry rather than one global instance.
package monster

import (
	"log"
	"math/rand"
	"strings"
	"time"

	"sidescroller-session-engine/internal/idgen"
	"sidescroller-session-engine/internal/room"
)

const (
	edgeBuffer         = 50.0
	minPatrolDistance  = 80.0
	chaseTimeout       = 5 * time.Second
	chaseRange         = 500.0
	patrolChangeChance = 0.02
	shinyChance        = 0.02
	patrolEdgeSlack    = 30.0
)

var shinyExcludedMapPrefixes = []string{"dewdrop", "pq"}

// SpawnRequest is one {type, count} entry from an initMapMonsters payload.
type SpawnRequest struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// InitMapRequest is the parsed initMapMonsters ingress payload (§6).
type InitMapRequest struct {
	MapID          string                               `json:"mapId"`
	Monsters       []SpawnRequest                       `json:"monsters"`
	SpawnPositions []room.SpawnPosition                 `json:"spawnPositions"`
	MapWidth       float64                              `json:"mapWidth"`
	GroundY        float64                              `json:"groundY"`
	MonsterTypes   map[string]room.MonsterTypeCatalogEntry `json:"monsterTypes"`
}

// Simulator owns the process-wide tick timer described in §4.4 and §5
// ("a single process-wide timer fires at the chosen cadence").
type Simulator struct {
	registry        *room.Registry
	speedMultiplier float64

	ticker *time.Ticker
	stopCh chan struct{}
}

// NewSimulator builds a simulator that will run at tickHz once started,
// using speedMultiplier for both patrol and chase movement (§9 "speed
// multiplier coupling").
func NewSimulator(reg *room.Registry, speedMultiplier float64) *Simulator {
	return &Simulator{registry: reg, speedMultiplier: speedMultiplier}
}

// Start begins the tick loop at the given cadence. Calling Start twice is a
// programmer error; callers should own a single Simulator per process.
func (s *Simulator) Start(tickHz int) {
	if tickHz <= 0 {
		tickHz = 20
	}
	s.ticker = time.NewTicker(time.Second / time.Duration(tickHz))
	s.stopCh = make(chan struct{})
	go func() {
		for {
			select {
			case now := <-s.ticker.C:
				s.Tick(now)
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop halts the tick loop.
func (s *Simulator) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	if s.stopCh != nil {
		close(s.stopCh)
	}
}

// Tick advances every live monster in every room one step and broadcasts
// monsterPositions to rooms with present players (§4.4 "Tick loop").
func (s *Simulator) Tick(now time.Time) {
	for _, r := range s.registry.Rooms() {
		r.Lock()
		s.tickRoom(r, now)
		r.Unlock()
	}
}

func (s *Simulator) tickRoom(r *room.Room, now time.Time) {
	topo := r.Topology()
	live := r.LiveMonsters()
	for _, m := range live {
		updateMonsterAI(m, topo, r, now, s.speedMultiplier)
	}
	if r.PlayerCount() == 0 || len(live) == 0 {
		return
	}
	r.Broadcast("monsterPositions", positionsView(live, now))
}

// InitMap handles an initMapMonsters ingress event (§4.4 "Initialization").
// It is a no-op if the room already has a topology recorded, matching "when
// a map receives its first initMapMonsters". Returns the monsters spawned,
// for the caller to announce.
func InitMap(r *room.Room, topo room.MapTopology, spawnPositions []room.SpawnPosition, requests []SpawnRequest) []*room.Monster {
	if r.HasTopology() {
		return nil
	}
	r.SetTopology(&topo)
	t := r.Topology()

	var spawned []*room.Monster
	if len(spawnPositions) > 0 {
		for _, sp := range spawnPositions {
			spawned = append(spawned, SpawnMonster(r, t, sp.Type, sp.X, sp.Y, sp.SurfaceX, sp.SurfaceWidth))
		}
		return spawned
	}

	// No spawn positions supplied: fall back to `count` random X positions
	// per spawner (§4.4).
	for _, req := range requests {
		for i := 0; i < req.Count; i++ {
			x := rand.Float64() * (t.MapWidth - edgeBuffer)
			y := t.GroundY
			spawned = append(spawned, SpawnMonster(r, t, req.Type, x, y, 0, 0))
		}
	}
	return spawned
}

// SpawnMonster assigns a fresh id, computes patrol bounds, rolls for shiny,
// and installs the monster into the room (§4.4). surfaceWidth of 0 means no
// surface was supplied, so patrol is centered on x instead.
func SpawnMonster(r *room.Room, topo *room.MapTopology, typ string, x, y, surfaceX, surfaceWidth float64) *room.Monster {
	catalog := topo.Types[typ]

	minX, maxX, aiState := computePatrolBounds(topo.MapWidth, x, surfaceX, surfaceWidth)

	m := &room.Monster{
		ID:            idgen.NextMonsterID(),
		Type:          typ,
		X:             x,
		Y:             y,
		Direction:     sampleDirection(),
		HP:            catalog.HP,
		MaxHP:         catalog.HP,
		Damage:        0,
		AIType:        catalog.AIType,
		AIState:       aiState,
		CanJump:       catalog.CanJump,
		Width:         catalog.Width,
		Height:        catalog.Height,
		PatrolMinX:    minX,
		PatrolMaxX:    maxX,
		SurfaceX:      surfaceX,
		SurfaceWidth:  surfaceWidth,
		SpawnX:        x,
		SpawnY:        y,
		GroundY:       topo.GroundY,
		IsMiniBoss:    catalog.IsMiniBoss,
		LastUpdate:    time.Now(),
	}
	if m.Facing == "" {
		m.Facing = facingFromDirection(m.Direction)
	}

	if isShinyEligible(m, r.MapID) && rand.Float64() < shinyChance {
		m.IsShiny = true
		m.MaxHP *= 3
		m.HP = m.MaxHP
	}

	r.AddMonster(m)
	if !r.SimulatorStarted() {
		r.MarkSimulatorStarted()
	}
	return m
}

// computePatrolBounds implements the EDGE_BUFFER/MIN_PATROL_DISTANCE rules
// of §4.4.
func computePatrolBounds(mapWidth, x, surfaceX, surfaceWidth float64) (minX, maxX float64, state room.AIState) {
	if surfaceWidth > 0 {
		lo := surfaceX + edgeBuffer
		hi := surfaceX + surfaceWidth - edgeBuffer
		lo = clamp(lo, 0, mapWidth-edgeBuffer)
		hi = clamp(hi, 0, mapWidth-edgeBuffer)
		if hi < lo {
			warnf("inverted patrol bounds for surface x=%.1f width=%.1f, swapping", surfaceX, surfaceWidth)
			lo, hi = hi, lo
		}
		if hi-lo < minPatrolDistance {
			center := (lo + hi) / 2
			return center - 10, center + 10, room.AIStateIdle
		}
		return lo, hi, room.AIStatePatrolling
	}
	lo := clamp(x-150, 0, mapWidth-edgeBuffer)
	hi := clamp(x+150, 0, mapWidth-edgeBuffer)
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi, room.AIStatePatrolling
}

func isShinyEligible(m *room.Monster, mapID string) bool {
	if m.IsMiniBoss || m.IsTrialBoss || m.Type == "testDummy" {
		return false
	}
	for _, prefix := range shinyExcludedMapPrefixes {
		if strings.HasPrefix(mapID, prefix) {
			return false
		}
	}
	return true
}

func sampleDirection() int {
	if rand.Intn(2) == 0 {
		return -1
	}
	return 1
}

func facingFromDirection(dir int) room.Facing {
	if dir < 0 {
		return room.FacingLeft
	}
	return room.FacingRight
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// updateMonsterAI implements §4.4's per-tick state machine.
func updateMonsterAI(m *room.Monster, topo *room.MapTopology, r *room.Room, now time.Time, speedMultiplier float64) {
	if m.AIType == room.AIStatic {
		m.VelocityX = 0
		return
	}
	if m.KnockbackEndTime.After(now) {
		m.VelocityX = 0
		return
	}

	if m.AIState == room.AIStateChasing {
		updateChasing(m, topo, r, now, speedMultiplier)
		m.LastUpdate = now
		return
	}

	updatePatrolling(m, topo, speedMultiplier)
	m.LastUpdate = now
}

func updateChasing(m *room.Monster, topo *room.MapTopology, r *room.Room, now time.Time, speedMultiplier float64) {
	if now.Sub(m.LastInteractionTime) > chaseTimeout {
		demoteToPatrolling(m, topo)
		return
	}

	target, ok := r.Player(m.TargetPlayer)
	if !ok || absF(m.X-m.SpawnX) >= chaseRange {
		demoteToPatrolling(m, topo)
		return
	}

	if target.X > m.X {
		m.Direction = 1
	} else {
		m.Direction = -1
	}
	m.Facing = facingFromDirection(m.Direction)

	speed := catalogSpeed(topo, m.Type)
	delta := float64(m.Direction) * speed * speedMultiplier * 1.5
	newX := clamp(m.X+delta, 0, topo.MapWidth-m.Width)
	if newX == m.X && delta != 0 {
		m.VelocityX = 0
	} else {
		m.VelocityX = delta
	}
	m.X = newX
}

// demoteToPatrolling re-centers patrol bounds on the current position using
// the original patrol radius, per §4.4 ("prevents snap-back on de-aggro").
func demoteToPatrolling(m *room.Monster, topo *room.MapTopology) {
	radius := (m.PatrolMaxX - m.PatrolMinX) / 2
	if radius <= 0 {
		radius = 150
	}
	m.AIState = room.AIStatePatrolling
	m.TargetPlayer = ""
	m.SpawnX = m.X
	lo := clamp(m.X-radius, 0, topo.MapWidth-edgeBuffer)
	hi := clamp(m.X+radius, 0, topo.MapWidth-edgeBuffer)
	if hi < lo {
		lo, hi = hi, lo
	}
	m.PatrolMinX = lo
	m.PatrolMaxX = hi
}

func updatePatrolling(m *room.Monster, topo *room.MapTopology, speedMultiplier float64) {
	if m.X <= m.PatrolMinX+patrolEdgeSlack {
		m.Direction = 1
	} else if m.X >= m.PatrolMaxX-patrolEdgeSlack {
		m.Direction = -1
	} else if rand.Float64() < patrolChangeChance {
		m.Direction = -m.Direction
	}
	m.Facing = facingFromDirection(m.Direction)

	speed := catalogSpeed(topo, m.Type)
	delta := float64(m.Direction) * speed * speedMultiplier
	newX := m.X + delta
	if newX >= m.PatrolMinX && newX <= m.PatrolMaxX {
		m.X = newX
		m.VelocityX = delta
	} else {
		if newX < m.PatrolMinX {
			m.X = m.PatrolMinX
		} else {
			m.X = m.PatrolMaxX
		}
		m.VelocityX = 0
		m.Direction = -m.Direction
	}

	if topo != nil {
		m.X = clamp(m.X, 0, topo.MapWidth-m.Width)
	}
	m.AIState = room.AIStatePatrolling
}

func catalogSpeed(topo *room.MapTopology, typ string) float64 {
	if topo == nil {
		return 0
	}
	return topo.Types[typ].Speed
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// OnAttacked applies aggro per §4.5 step 5 ("non-static only"): transition
// to chasing, target the attacker, refresh the interaction clock.
func OnAttacked(m *room.Monster, odID string, now time.Time) {
	if m.AIType == room.AIStatic {
		return
	}
	m.AIState = room.AIStateChasing
	m.TargetPlayer = odID
	m.LastInteractionTime = now
}

// ApplyKnockback implements §4.5 step 6.
func ApplyKnockback(m *room.Monster, attackDirection int, now time.Time) (knockbackVelocityX float64) {
	if m.AIType == room.AIStatic {
		return 0
	}
	if attackDirection != -1 && attackDirection != 1 {
		return 0
	}
	knockbackVelocityX = float64(attackDirection) * 6
	displaced := m.X + float64(attackDirection)*30
	if m.PatrolMinX != 0 || m.PatrolMaxX != 0 {
		displaced = clamp(displaced, m.PatrolMinX, m.PatrolMaxX)
	}
	m.X = displaced
	m.KnockbackEndTime = now.Add(500 * time.Millisecond)
	return knockbackVelocityX
}

func warnf(format string, args ...interface{}) {
	log.Printf("⚠️  "+format, args...)
}
