// Package combat implements the combat arbitration pipeline described in
// spec §4.5 (C5): attack validation, damage application, aggro/knockback
// hand-off to the monster simulator, prediction reconciliation, kill
// resolution, and respawn scheduling.
//
// Implements a straightforward damage resolution pipeline, with
// attacker-keyed kill-credit bookkeeping consulted once at death.
package combat

import (
	"log"
	"math"
	"math/rand"
	"time"

	"sidescroller-session-engine/internal/loot"
	"sidescroller-session-engine/internal/monster"
	"sidescroller-session-engine/internal/ratelimit"
	"sidescroller-session-engine/internal/room"
)

const (
	predictionTolerance = 50
	miniBossRespawn      = 300 * time.Second
	normalRespawn        = 8 * time.Second
	partyQuestCorpseTTL  = 1 * time.Second
)

// Arbiter wires the registry and rate limiter needed to validate attacks
// and schedule respawns across room/timer boundaries.
type Arbiter struct {
	registry *room.Registry
	limiter  *ratelimit.Limiter
}

func NewArbiter(registry *room.Registry, limiter *ratelimit.Limiter) *Arbiter {
	return &Arbiter{registry: registry, limiter: limiter}
}

// AttackRequest is the parsed attackMonster ingress payload (§6).
type AttackRequest struct {
	MonsterID       string  `json:"monsterId"`
	Damage          float64 `json:"damage"`
	AttackDirection int     `json:"playerDirection"`
	IsCritical      bool    `json:"isCritical"`
	Seq             *int    `json:"seq"`
	PredictedHP     *int    `json:"predictedHp"`
}

// AttackCorrection is the attackCorrection egress payload (§6).
type AttackCorrection struct {
	Seq       *int   `json:"seq,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Type      string `json:"type,omitempty"`
	CorrectHP int    `json:"correctHp,omitempty"`
	MaxHP     int    `json:"maxHp,omitempty"`
}

// MonsterDamaged is the monsterDamaged egress payload (§4.5 step 8).
type MonsterDamaged struct {
	ID                 string `json:"id"`
	Seq                *int   `json:"seq,omitempty"`
	Damage             int    `json:"damage"`
	CurrentHP          int    `json:"currentHp"`
	MaxHP              int    `json:"maxHp"`
	AttackerID         string `json:"attackerId"`
	KnockbackVelocityX float64 `json:"knockbackVelocityX"`
	IsCritical         bool   `json:"isCritical"`
}

// MonsterKilled is the monsterKilled egress payload (§4.5 step 6).
type MonsterKilled struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	X              float64         `json:"x"`
	Y              float64         `json:"y"`
	LootRecipient  string          `json:"lootRecipient,omitempty"`
	Drops          []loot.ItemView `json:"drops"`
	PartyMembers   []string        `json:"partyMembers"`
	IsEliteMonster bool            `json:"isEliteMonster"`
	IsShiny        bool            `json:"isShiny"`
}

// AttackMonster implements §4.5's attackMonster pipeline. Caller must hold
// the room lock; r must be the attacker's current room.
func (a *Arbiter) AttackMonster(r *room.Room, odID string, req AttackRequest) {
	m, ok := r.Monster(req.MonsterID)
	if !ok {
		if req.Seq != nil {
			r.Unicast(odID, "attackCorrection", AttackCorrection{Seq: req.Seq, Reason: "monster_not_found"})
		}
		return
	}

	if !a.limiter.Admit(odID, ratelimit.ActionAttack) {
		log.Printf("⚠️  rate limit: %s exceeded attack cap", odID)
		return
	}

	d, capped := ratelimit.ValidateDamage(req.Damage)
	if d == 0 {
		return
	}

	now := time.Now()
	r.AddDamage(m.ID, odID, d)
	m.HP -= d
	m.LastUpdate = now

	monster.OnAttacked(m, odID, now)
	knockbackVX := monster.ApplyKnockback(m, req.AttackDirection, now)

	if req.Seq != nil && req.PredictedHP != nil {
		if diff := math.Abs(float64(m.HP - *req.PredictedHP)); diff > predictionTolerance {
			r.Unicast(odID, "attackCorrection", AttackCorrection{
				Seq:       req.Seq,
				Type:      "hp_correction",
				CorrectHP: m.HP,
				MaxHP:     m.MaxHP,
			})
		}
	}

	isCritical := req.IsCritical && !capped
	r.Broadcast("monsterDamaged", MonsterDamaged{
		ID:                 m.ID,
		Seq:                req.Seq,
		Damage:             d,
		CurrentHP:          maxInt(m.HP, 0),
		MaxHP:              m.MaxHP,
		AttackerID:         odID,
		KnockbackVelocityX: knockbackVX,
		IsCritical:         isCritical,
	})

	if m.HP <= 0 {
		a.killMonster(r, m)
	}
}

func (a *Arbiter) killMonster(r *room.Room, m *room.Monster) {
	m.IsDead = true
	m.HP = 0
	if r.EliteMonsterID == m.ID {
		r.EliteMonsterID = ""
	}

	lootRecipient := r.TopDamager(m.ID)

	var catalog room.MonsterTypeCatalogEntry
	if topo := r.Topology(); topo != nil {
		catalog = topo.Types[m.Type]
	}
	drops := loot.Generate(m.Type, catalog, m.IsEliteMonster, m.X+m.Width/2, m.Y+m.Height/2)
	for _, d := range drops {
		r.AddItem(d)
	}

	var partyMembers []string
	if lootRecipient != "" {
		if recipient, ok := r.Player(lootRecipient); ok && recipient.PartyID != "" {
			for _, p := range r.Players() {
				if p.OdID != lootRecipient && p.PartyID == recipient.PartyID {
					partyMembers = append(partyMembers, p.OdID)
				}
			}
		}
	}

	r.Broadcast("monsterKilled", MonsterKilled{
		ID:             m.ID,
		Type:           m.Type,
		X:              m.X,
		Y:              m.Y,
		LootRecipient:  lootRecipient,
		Drops:          loot.ViewAll(drops),
		PartyMembers:   partyMembers,
		IsEliteMonster: m.IsEliteMonster,
		IsShiny:        m.IsShiny,
	})

	r.ClearLedger(m.ID)
	a.scheduleRespawn(r, m)
}

// respawnContext is the information retained at kill time to regenerate an
// equivalent monster (§ GLOSSARY "Respawn context").
type respawnContext struct {
	mapID        string
	monsterID    string
	typ          string
	surfaceX     float64
	surfaceWidth float64
	spawnY       float64
	isMiniBoss   bool
}

func (a *Arbiter) scheduleRespawn(r *room.Room, m *room.Monster) {
	if hasPrefix(r.MapID, "pq") {
		monsterID := m.ID
		mapID := r.MapID
		time.AfterFunc(partyQuestCorpseTTL, func() {
			rm, ok := a.registry.Room(mapID)
			if !ok {
				return
			}
			rm.Lock()
			defer rm.Unlock()
			rm.RemoveMonster(monsterID)
		})
		return
	}

	ctx := respawnContext{
		mapID:        r.MapID,
		monsterID:    m.ID,
		typ:          m.Type,
		surfaceX:     m.SurfaceX,
		surfaceWidth: m.SurfaceWidth,
		spawnY:       m.SpawnY,
		isMiniBoss:   m.IsMiniBoss,
	}

	delay := normalRespawn
	if ctx.isMiniBoss {
		delay = miniBossRespawn
	}

	time.AfterFunc(delay, func() { a.fireRespawn(ctx) })
}

// fireRespawn is the one-shot respawn callback (§4.5 step 8, §5 "Cancellation
// / timeouts"). It is idempotent: a destroyed room or already-replaced
// corpse is simply a no-op.
func (a *Arbiter) fireRespawn(ctx respawnContext) {
	r, ok := a.registry.Room(ctx.mapID)
	if !ok {
		return
	}
	r.Lock()
	defer r.Unlock()

	if _, stillThere := r.Monster(ctx.monsterID); !stillThere {
		return
	}
	r.RemoveMonster(ctx.monsterID)

	if r.PlayerCount() == 0 {
		return
	}
	topo := r.Topology()
	if topo == nil {
		return
	}

	x := ctx.surfaceX
	if ctx.surfaceWidth > 0 {
		x = ctx.surfaceX + rand.Float64()*ctx.surfaceWidth
	}
	nm := monster.SpawnMonster(r, topo, ctx.typ, x, ctx.spawnY, ctx.surfaceX, ctx.surfaceWidth)
	r.Broadcast("monsterSpawned", monster.ToView(nm))
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
