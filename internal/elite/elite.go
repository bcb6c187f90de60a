// Package elite implements the randomized elite promoter described in spec
// §4.8 (C8): a single timer that, per firing, gives each eligible room a
// chance to promote one of its monsters to an elite variant, plus the
// client/GM-initiated transformElite variant that applies supplied stats
// directly.
//
// Uses a single self-rescheduling time.NewTimer loop rather than a fixed
// ticker, since the delay between checks is itself randomized (2-7
// minutes) rather than constant.
package elite

import (
	"math/rand"
	"strings"
	"time"

	"sidescroller-session-engine/internal/room"
)

const promotionProbability = 0.3

var excludedMapPrefixes = []string{"dewdrop", "pq"}

// Promoter owns the process-wide elite-promotion timer.
type Promoter struct {
	registry    *room.Registry
	minInterval time.Duration
	maxInterval time.Duration
	stopCh      chan struct{}
}

func NewPromoter(registry *room.Registry, minInterval, maxInterval time.Duration) *Promoter {
	return &Promoter{registry: registry, minInterval: minInterval, maxInterval: maxInterval}
}

// Start begins the randomized timer loop (§4.8 "A single timer schedules
// itself with a uniform delay in [2 min, 7 min]").
func (p *Promoter) Start() {
	p.stopCh = make(chan struct{})
	go p.loop()
}

func (p *Promoter) Stop() {
	if p.stopCh != nil {
		close(p.stopCh)
	}
}

func (p *Promoter) loop() {
	for {
		delay := p.nextDelay()
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			p.fire()
		case <-p.stopCh:
			timer.Stop()
			return
		}
	}
}

func (p *Promoter) nextDelay() time.Duration {
	span := p.maxInterval - p.minInterval
	if span <= 0 {
		return p.minInterval
	}
	return p.minInterval + time.Duration(rand.Int63n(int64(span)))
}

func (p *Promoter) fire() {
	for _, r := range p.registry.Rooms() {
		r.Lock()
		tryPromoteRoom(r)
		r.Unlock()
	}
}

func tryPromoteRoom(r *room.Room) {
	if r.PlayerCount() == 0 || r.EliteMonsterID != "" {
		return
	}
	if excludedMap(r.MapID) {
		return
	}
	if rand.Float64() >= promotionProbability {
		return
	}

	var eligible []*room.Monster
	for _, m := range r.LiveMonsters() {
		if isEligible(m) {
			eligible = append(eligible, m)
		}
	}
	if len(eligible) == 0 {
		return
	}
	target := eligible[rand.Intn(len(eligible))]
	Promote(r, target)
}

func isEligible(m *room.Monster) bool {
	return !m.IsMiniBoss && !m.IsTrialBoss && !m.IsEliteMonster && m.Type != "testDummy"
}

func excludedMap(mapID string) bool {
	for _, prefix := range excludedMapPrefixes {
		if strings.HasPrefix(mapID, prefix) {
			return true
		}
	}
	return false
}

// Transformed is the monsterTransformedElite egress payload.
type Transformed struct {
	MonsterID     string `json:"monsterId"`
	MaxHP         int    `json:"maxHp"`
	HP            int    `json:"hp"`
	Damage        int    `json:"damage"`
	OriginalMaxHP int    `json:"originalMaxHp"`
	OriginalDamage int   `json:"originalDamage"`
}

// Promote applies the timed promotion's stat multipliers (§4.8) and
// broadcasts monsterTransformedElite. Caller holds the room lock.
func Promote(r *room.Room, m *room.Monster) {
	m.OriginalMaxHP = m.MaxHP
	m.OriginalDamage = m.Damage
	m.MaxHP *= 100
	m.HP = m.MaxHP
	m.Damage *= 3
	m.IsEliteMonster = true
	r.EliteMonsterID = m.ID

	r.Broadcast("monsterTransformedElite", Transformed{
		MonsterID: m.ID, MaxHP: m.MaxHP, HP: m.HP, Damage: m.Damage,
		OriginalMaxHP: m.OriginalMaxHP, OriginalDamage: m.OriginalDamage,
	})
}

// TransformEliteRequest is the parsed client/GM-initiated transformElite
// ingress payload (§4.8, "trusted test/GM path").
type TransformEliteRequest struct {
	MonsterID      string `json:"monsterId"`
	MaxHP          int    `json:"maxHp"`
	Damage         int    `json:"damage"`
	OriginalMaxHP  int    `json:"originalMaxHp"`
	OriginalDamage int    `json:"originalDamage"`
}

// ApplyClientTransform mirrors Promote but uses supplied stats directly,
// matching the client-initiated transformElite variant. Production
// deployments should gate this on GM authorization (§4.8).
func ApplyClientTransform(r *room.Room, m *room.Monster, req TransformEliteRequest) {
	m.MaxHP = req.MaxHP
	m.HP = req.MaxHP
	m.Damage = req.Damage
	m.OriginalMaxHP = req.OriginalMaxHP
	m.OriginalDamage = req.OriginalDamage
	m.IsEliteMonster = true
	r.EliteMonsterID = m.ID

	r.Broadcast("monsterTransformedElite", Transformed{
		MonsterID: m.ID, MaxHP: m.MaxHP, HP: m.HP, Damage: m.Damage,
		OriginalMaxHP: m.OriginalMaxHP, OriginalDamage: m.OriginalDamage,
	})
}
