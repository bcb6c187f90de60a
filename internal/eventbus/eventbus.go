// Package eventbus implements the per-map fan-out relay described in spec
// §4.7 (C7): movement, chat, VFX, projectiles, appearance, party state and
// the death/respawn notifications. The state-carrying relays (position,
// appearance, party, party stats) record the asserted client state into the
// sender's Player record so a later join sees current-ish state; only
// UpdatePosition refreshes lastUpdate for the presence sweep. Chat, the
// visual relays and death/respawn record nothing. Each then rebroadcasts
// to the room — no server-side simulation happens on top of what the
// client already asserts (§1 Non-goals).
//
// Uses the same {event, data} broadcast envelope as the rest of the wire
// protocol, scoped from "all connected clients" to "all other players in
// this room".
package eventbus

import (
	"time"

	"sidescroller-session-engine/internal/monster"
	"sidescroller-session-engine/internal/room"
)

// PositionUpdate is the parsed updatePosition ingress payload.
type PositionUpdate struct {
	X              float64                `json:"x"`
	Y              float64                `json:"y"`
	Facing         string                 `json:"facing"`
	AnimationState string                 `json:"animationState"`
	VelocityX      float64                `json:"velocityX"`
	VelocityY      float64                `json:"velocityY"`
	ActiveBuffs    []string               `json:"activeBuffs"`
	Pet            map[string]interface{} `json:"pet"`
}

// PlayerMovedView is the playerMoved egress payload.
type PlayerMovedView struct {
	OdID           string                 `json:"odId"`
	X              float64                `json:"x"`
	Y              float64                `json:"y"`
	Facing         string                 `json:"facing"`
	AnimationState string                 `json:"animationState"`
	VelocityX      float64                `json:"velocityX"`
	VelocityY      float64                `json:"velocityY"`
	ActiveBuffs    []string               `json:"activeBuffs,omitempty"`
	Pet            map[string]interface{} `json:"pet,omitempty"`
}

// UpdatePosition implements updatePosition → playerMoved. Caller must admit
// the action against the position rate bucket before calling this.
func UpdatePosition(r *room.Room, p *room.Player, upd PositionUpdate) {
	p.X, p.Y = upd.X, upd.Y
	p.Facing = room.Facing(upd.Facing)
	p.AnimState = upd.AnimationState
	p.VelocityX, p.VelocityY = upd.VelocityX, upd.VelocityY
	p.ActiveBuffs = upd.ActiveBuffs
	p.Pet = upd.Pet
	p.LastUpdate = time.Now()

	r.Broadcast("playerMoved", PlayerMovedView{
		OdID: p.OdID, X: upd.X, Y: upd.Y, Facing: upd.Facing,
		AnimationState: upd.AnimationState, VelocityX: upd.VelocityX, VelocityY: upd.VelocityY,
		ActiveBuffs: upd.ActiveBuffs, Pet: upd.Pet,
	}, p.OdID)
}

// ChatView is the playerChat egress payload.
type ChatView struct {
	OdID    string `json:"odId"`
	Message string `json:"message"`
}

// Chat implements chatMessage → playerChat (relayed to the whole room,
// including the sender, so its own client can echo it in context).
func Chat(r *room.Room, senderOdID, message string) {
	r.Broadcast("playerChat", ChatView{OdID: senderOdID, Message: message})
}

// Relay rebroadcasts an already-shaped payload to every room member except
// the sender, for the purely-visual relays of §4.7 (VFX, projectiles,
// skill VFX) that carry no server-meaningful state.
func Relay(r *room.Room, senderOdID, outEvent string, payload interface{}) {
	r.Broadcast(outEvent, payload, senderOdID)
}

// AppearanceUpdate implements updateAppearance → playerAppearanceUpdated,
// merging the supplied diff into the player's recorded appearance.
func AppearanceUpdate(r *room.Room, p *room.Player, diff room.Appearance) {
	if diff.Equipped != nil {
		p.Appearance.Equipped = diff.Equipped
	}
	if diff.CosmeticEquipped != nil {
		p.Appearance.CosmeticEquipped = diff.CosmeticEquipped
	}
	if diff.Customization != nil {
		p.Appearance.Customization = diff.Customization
	}
	if diff.Guild != "" {
		p.Appearance.Guild = diff.Guild
	}
	if diff.EquippedMedal != "" {
		p.Appearance.EquippedMedal = diff.EquippedMedal
	}
	if diff.DisplayMedals != nil {
		p.Appearance.DisplayMedals = diff.DisplayMedals
	}

	r.Broadcast("playerAppearanceUpdated", appearanceView{OdID: p.OdID, Appearance: p.Appearance}, p.OdID)
}

type appearanceView struct {
	OdID       string          `json:"odId"`
	Appearance room.Appearance `json:"appearance"`
}

// UpdateParty implements updateParty → playerPartyUpdated.
func UpdateParty(r *room.Room, p *room.Player, partyID string) {
	p.PartyID = partyID
	r.Broadcast("playerPartyUpdated", partyView{OdID: p.OdID, PartyID: partyID}, p.OdID)
}

type partyView struct {
	OdID    string `json:"odId"`
	PartyID string `json:"partyId"`
}

// PartyStats is the parsed updatePartyStats ingress payload.
type PartyStats struct {
	HP     int `json:"hp"`
	MaxHP  int `json:"maxHp"`
	Level  int `json:"level"`
	Exp    int `json:"exp"`
	MaxExp int `json:"maxExp"`
}

// UpdatePartyStats implements updatePartyStats → partyMemberStats.
func UpdatePartyStats(r *room.Room, p *room.Player, stats PartyStats) {
	p.HP, p.MaxHP = stats.HP, stats.MaxHP
	p.Level = stats.Level
	p.Exp, p.MaxExp = stats.Exp, stats.MaxExp
	r.Broadcast("partyMemberStats", partyStatsView{OdID: p.OdID, PartyStats: stats}, p.OdID)
}

type partyStatsView struct {
	OdID string `json:"odId"`
	PartyStats
}

// PlayerDeath implements playerDeath → playerDied.
func PlayerDeath(r *room.Room, senderOdID string, payload interface{}) {
	r.Broadcast("playerDied", payload, senderOdID)
}

// PlayerRespawn implements playerRespawn → playerRespawned.
func PlayerRespawn(r *room.Room, senderOdID string, payload interface{}) {
	r.Broadcast("playerRespawned", payload, senderOdID)
}

// RequestMonsters implements requestMonsters: unicast the room's current
// live-monster list back to the requester (§4.7).
func RequestMonsters(r *room.Room, requesterOdID string) {
	r.Unicast(requesterOdID, "currentMonsters", monster.Snapshot(r))
}
