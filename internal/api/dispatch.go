package api

import (
	"encoding/json"
	"log"

	"sidescroller-session-engine/internal/combat"
	"sidescroller-session-engine/internal/elite"
	"sidescroller-session-engine/internal/eventbus"
	"sidescroller-session-engine/internal/loot"
	"sidescroller-session-engine/internal/monster"
	"sidescroller-session-engine/internal/presence"
	"sidescroller-session-engine/internal/room"
	"sidescroller-session-engine/internal/session"
)

// dispatch decodes one ingress envelope and routes it into the session
// engine (§6's ingress event table). Unknown events and malformed payloads
// are dropped silently, matching §7's "unknown target is a no-op" posture
// for anything that isn't itself identity-establishing.
func dispatch(e *session.Engine, s *session.Session, event string, data json.RawMessage) {
	switch event {
	case "join":
		var req presence.JoinRequest
		if decode(data, &req) {
			e.Join(s, req)
		}
	case "rejoin":
		var req presence.JoinRequest
		if decode(data, &req) {
			e.Rejoin(s, req)
		}
	case "changeMap":
		var req struct {
			NewMapID string  `json:"newMapId"`
			X        float64 `json:"x"`
			Y        float64 `json:"y"`
		}
		if decode(data, &req) {
			e.ChangeMap(s, req.NewMapID, req.X, req.Y)
		}
	case "updatePosition":
		var req eventbus.PositionUpdate
		if decode(data, &req) {
			e.UpdatePosition(s, req)
		}
	case "chatMessage":
		var req struct {
			Message string `json:"message"`
		}
		if decode(data, &req) {
			e.ChatMessage(s, req.Message)
		}
	case "initMapMonsters":
		var req monster.InitMapRequest
		if decode(data, &req) {
			e.InitMapMonsters(s, req)
		}
	case "attackMonster":
		var req combat.AttackRequest
		if decode(data, &req) {
			RecordAttack()
			e.AttackMonster(s, req)
		}
	case "transformElite":
		var req elite.TransformEliteRequest
		if decode(data, &req) {
			e.TransformElite(s, req)
		}
	case "itemPickup":
		var req loot.ItemPickupRequest
		if decode(data, &req) {
			RecordPickup()
			e.ItemPickup(s, req)
		}
	case "playerDropItem":
		var req loot.PlayerDropRequest
		if decode(data, &req) {
			e.PlayerDropItem(s, req)
		}
	case "sharePartyGold":
		var req loot.ShareGoldRequest
		if decode(data, &req) {
			e.SharePartyGold(s, req)
		}
	case "updateAppearance":
		var diff room.Appearance
		if decode(data, &diff) {
			e.UpdateAppearance(s, diff)
		}
	case "updateParty":
		var req struct {
			PartyID string `json:"partyId"`
		}
		if decode(data, &req) {
			e.UpdateParty(s, req.PartyID)
		}
	case "updatePartyStats":
		var req eventbus.PartyStats
		if decode(data, &req) {
			e.UpdatePartyStats(s, req)
		}
	case "playerVFX":
		relayPayload(e, s, data, "remotePlayerVFX")
	case "playerProjectile":
		relayPayload(e, s, data, "remoteProjectile")
	case "playerProjectileHit":
		relayPayload(e, s, data, "remoteProjectileHit")
	case "playerSkillVFX":
		relayPayload(e, s, data, "remoteSkillVFX")
	case "playerDeath":
		var payload interface{}
		if decode(data, &payload) {
			e.PlayerDeath(s, payload)
		}
	case "playerRespawn":
		var payload interface{}
		if decode(data, &payload) {
			e.PlayerRespawn(s, payload)
		}
	case "gmAuth":
		var req struct {
			Password string `json:"password"`
		}
		if decode(data, &req) {
			e.GMAuth(s, req.Password)
		}
	case "checkGmAuth":
		e.CheckGMAuth(s)
	case "latencyPing":
		var req struct {
			T int64 `json:"t"`
		}
		if decode(data, &req) {
			e.LatencyPing(s, req.T)
		}
	case "requestMonsters":
		e.RequestMonsters(s)
	default:
		log.Printf("dispatch: unknown event %q", event)
	}
}

func relayPayload(e *session.Engine, s *session.Session, data json.RawMessage, outEvent string) {
	var payload interface{}
	if decode(data, &payload) {
		e.Relay(s, outEvent, payload)
	}
}

func decode(data json.RawMessage, v interface{}) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("dispatch: payload decode error: %v", err)
		return false
	}
	return true
}
