package monster

import (
	"time"

	"sidescroller-session-engine/internal/room"
)

// View is the full monster snapshot sent in currentMonsters and
// monsterSpawned (§6 egress events).
type View struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	VelocityX      float64 `json:"velocityX"`
	VelocityY      float64 `json:"velocityY"`
	Direction      int     `json:"direction"`
	Facing         string  `json:"facing"`
	HP             int     `json:"hp"`
	MaxHP          int     `json:"maxHp"`
	AIType         string  `json:"aiType"`
	AIState        string  `json:"aiState"`
	IsDead         bool    `json:"isDead"`
	IsMiniBoss     bool    `json:"isMiniBoss"`
	IsEliteMonster bool    `json:"isEliteMonster"`
	IsTrialBoss    bool    `json:"isTrialBoss"`
	IsShiny        bool    `json:"isShiny"`
	CanJump        bool    `json:"canJump"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
}

func ToView(m *room.Monster) View {
	return View{
		ID:             m.ID,
		Type:           m.Type,
		X:              m.X,
		Y:              m.Y,
		VelocityX:      m.VelocityX,
		VelocityY:      m.VelocityY,
		Direction:      m.Direction,
		Facing:         string(m.Facing),
		HP:             m.HP,
		MaxHP:          m.MaxHP,
		AIType:         string(m.AIType),
		AIState:        string(m.AIState),
		IsDead:         m.IsDead,
		IsMiniBoss:     m.IsMiniBoss,
		IsEliteMonster: m.IsEliteMonster,
		IsTrialBoss:    m.IsTrialBoss,
		IsShiny:        m.IsShiny,
		CanJump:        m.CanJump,
		Width:          m.Width,
		Height:         m.Height,
	}
}

// Snapshot returns the View list for currentMonsters/requestMonsters,
// restricted to live monsters.
func Snapshot(r *room.Room) []View {
	live := r.LiveMonsters()
	out := make([]View, 0, len(live))
	for _, m := range live {
		out = append(out, ToView(m))
	}
	return out
}

// PositionView is the lightweight per-tick shape broadcast by
// monsterPositions (§4.4 "Broadcast").
type PositionView struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Facing    string  `json:"facing"`
	Direction int     `json:"direction"`
	AIState   string  `json:"aiState"`
	VelocityX float64 `json:"velocityX"`
	VelocityY float64 `json:"velocityY"`
	T         int64   `json:"t"`
}

func positionsView(monsters []*room.Monster, now time.Time) []PositionView {
	t := now.UnixMilli()
	out := make([]PositionView, 0, len(monsters))
	for _, m := range monsters {
		out = append(out, PositionView{
			ID:        m.ID,
			X:         m.X,
			Y:         m.Y,
			Facing:    string(m.Facing),
			Direction: m.Direction,
			AIState:   string(m.AIState),
			VelocityX: m.VelocityX,
			VelocityY: m.VelocityY,
			T:         t,
		})
	}
	return out
}
