package presence

import "sidescroller-session-engine/internal/room"

// PlayerView is the wire shape of a Player for currentPlayers/playerJoined
// (§6 egress events).
type PlayerView struct {
	OdID       string            `json:"odId"`
	Name       string            `json:"name"`
	MapID      string            `json:"mapId"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	Facing     string            `json:"facing"`
	AnimState  string            `json:"animationState"`
	VelocityX  float64           `json:"velocityX"`
	VelocityY  float64           `json:"velocityY"`
	Appearance room.Appearance   `json:"appearance"`
	HP         int               `json:"hp"`
	MaxHP      int               `json:"maxHp"`
	Level      int               `json:"level"`
	Exp        int               `json:"exp"`
	MaxExp     int               `json:"maxExp"`
	PartyID    string            `json:"partyId,omitempty"`
	ActiveBuffs []string         `json:"activeBuffs,omitempty"`
	Pet        map[string]interface{} `json:"pet,omitempty"`
}

func ToView(p *room.Player) PlayerView {
	return PlayerView{
		OdID:        p.OdID,
		Name:        p.Name,
		MapID:       p.MapID,
		X:           p.X,
		Y:           p.Y,
		Facing:      string(p.Facing),
		AnimState:   p.AnimState,
		VelocityX:   p.VelocityX,
		VelocityY:   p.VelocityY,
		Appearance:  p.Appearance,
		HP:          p.HP,
		MaxHP:       p.MaxHP,
		Level:       p.Level,
		Exp:         p.Exp,
		MaxExp:      p.MaxExp,
		PartyID:     p.PartyID,
		ActiveBuffs: p.ActiveBuffs,
		Pet:         p.Pet,
	}
}

// Roster is the full currentPlayers payload.
func Roster(r *room.Room) []PlayerView {
	players := r.Players()
	out := make([]PlayerView, 0, len(players))
	for _, p := range players {
		out = append(out, ToView(p))
	}
	return out
}

// LeftView is the playerLeft egress payload.
type LeftView struct {
	OdID string `json:"odId"`
}
