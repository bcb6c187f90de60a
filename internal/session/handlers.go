package session

import (
	"log"

	"sidescroller-session-engine/internal/combat"
	"sidescroller-session-engine/internal/elite"
	"sidescroller-session-engine/internal/eventbus"
	"sidescroller-session-engine/internal/loot"
	"sidescroller-session-engine/internal/monster"
	"sidescroller-session-engine/internal/presence"
	"sidescroller-session-engine/internal/ratelimit"
	"sidescroller-session-engine/internal/room"
)

// ErrorView is the generic unicast error payload (§7 taxonomy item 1).
type ErrorView struct {
	Message string `json:"message"`
}

func (s *Session) setIdentity(odID, mapID string) {
	s.odID = odID
	s.mapID = mapID
}

// withPlayer resolves the session's current room and player, holding the
// room lock for the duration of fn. A missing room or player is a silent
// no-op, matching §7's "unknown target" handling for anything that isn't
// itself a join/rejoin.
func (e *Engine) withPlayer(s *Session, fn func(r *room.Room, p *room.Player)) {
	if s.mapID == "" || s.odID == "" {
		return
	}
	r, ok := e.Registry.Room(s.mapID)
	if !ok {
		return
	}
	r.Lock()
	defer r.Unlock()
	p, ok := r.Player(s.odID)
	if !ok {
		return
	}
	fn(r, p)
}

// ServerStartTimeView is the serverStartTime egress payload (§6 "Persisted
// state"): the boot timestamp, so a client can tell whether it's still
// talking to the same server process it joined earlier.
type ServerStartTimeView struct {
	T int64 `json:"t"`
}

// Join handles the join ingress event (§4.3).
func (e *Engine) Join(s *Session, req presence.JoinRequest) {
	p, err := e.Presence.Join(s.Conn, req)
	if err != nil {
		s.Conn.Send("error", ErrorView{Message: err.Error()})
		return
	}
	s.setIdentity(p.OdID, p.MapID)
	s.Conn.Send("serverStartTime", ServerStartTimeView{T: e.StartTime.UnixMilli()})
}

// Rejoin handles the rejoin ingress event (§4.3).
func (e *Engine) Rejoin(s *Session, req presence.JoinRequest) {
	p, err := e.Presence.Rejoin(s.Conn, req, s.mapID, s.odID, req.OldOdID)
	if err != nil {
		s.Conn.Send("error", ErrorView{Message: err.Error()})
		return
	}
	s.setIdentity(p.OdID, p.MapID)
	s.Conn.Send("serverStartTime", ServerStartTimeView{T: e.StartTime.UnixMilli()})
}

// ChangeMap handles the changeMap ingress event (§4.3).
func (e *Engine) ChangeMap(s *Session, newMapID string, x, y float64) {
	if s.mapID == "" || s.odID == "" {
		return
	}
	r, ok := e.Registry.Room(s.mapID)
	if !ok {
		return
	}
	r.Lock()
	current, ok := r.Player(s.odID)
	r.Unlock()
	if !ok {
		return
	}

	p, err := e.Presence.ChangeMap(s.Conn, current, newMapID, x, y)
	if err != nil {
		s.Conn.Send("error", ErrorView{Message: err.Error()})
		return
	}
	s.setIdentity(p.OdID, p.MapID)
}

// Disconnect handles socket closure (§4.3).
func (e *Engine) Disconnect(s *Session) {
	if s.mapID != "" && s.odID != "" {
		e.Presence.Disconnect(s.mapID, s.odID)
	}
	e.GM.Forget(s.ConnID)
}

// UpdatePosition handles updatePosition → playerMoved (§4.7, rate-limited
// per §4.1).
func (e *Engine) UpdatePosition(s *Session, upd eventbus.PositionUpdate) {
	if !e.Limiter.Admit(s.odID, ratelimit.ActionPosition) {
		log.Printf("⚠️  rate limit: %s exceeded position cap", s.odID)
		return
	}
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		eventbus.UpdatePosition(r, p, upd)
	})
}

// ChatMessage handles chatMessage → playerChat.
func (e *Engine) ChatMessage(s *Session, message string) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		eventbus.Chat(r, p.OdID, message)
	})
}

// InitMapMonsters handles initMapMonsters (§4.4 "Initialization").
func (e *Engine) InitMapMonsters(s *Session, req monster.InitMapRequest) {
	r := e.Registry.EnsureRoom(req.MapID)
	r.Lock()
	defer r.Unlock()

	topo := room.MapTopology{MapWidth: req.MapWidth, GroundY: req.GroundY, Types: req.MonsterTypes}
	spawned := monster.InitMap(r, topo, req.SpawnPositions, req.Monsters)
	for _, m := range spawned {
		r.Broadcast("monsterSpawned", monster.ToView(m))
	}
}

// AttackMonster handles attackMonster (§4.5).
func (e *Engine) AttackMonster(s *Session, req combat.AttackRequest) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		e.Combat.AttackMonster(r, p.OdID, req)
	})
}

// TransformElite handles the client/GM-initiated transformElite variant
// (§4.8).
func (e *Engine) TransformElite(s *Session, req elite.TransformEliteRequest) {
	e.withPlayer(s, func(r *room.Room, _ *room.Player) {
		m, ok := r.Monster(req.MonsterID)
		if !ok {
			return
		}
		elite.ApplyClientTransform(r, m, req)
	})
}

// ItemPickup handles itemPickup (§4.6).
func (e *Engine) ItemPickup(s *Session, req loot.ItemPickupRequest) {
	if !e.Limiter.Admit(s.odID, ratelimit.ActionPickup) {
		log.Printf("⚠️  rate limit: %s exceeded pickup cap", s.odID)
		return
	}
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		item, ok := loot.Pickup(r, req.ItemID)
		if !ok {
			r.Unicast(p.OdID, "itemPickupRejected", loot.PickupRejected{
				ItemID: req.ItemID, ItemName: req.ItemName, X: req.X, Y: req.Y,
				Reason: "already_picked_up",
			})
			return
		}
		r.Broadcast("itemPickedUp", loot.PickedUp{
			ItemID: item.ItemID, ItemName: item.Name, X: req.X, Y: req.Y,
			PickedUpBy: p.OdID, PickedUpByName: p.Name,
		})
	})
}

// PlayerDropItem handles playerDropItem (§4.6).
func (e *Engine) PlayerDropItem(s *Session, req loot.PlayerDropRequest) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		item := loot.PlayerDrop(p.OdID, req.Name, req.X, req.Y, req.Attrs)
		r.AddItem(item)
		r.Broadcast("playerItemDropped", loot.ToView(item), p.OdID)
		r.Unicast(p.OdID, "playerDropConfirm", loot.DropConfirm{
			ID: item.ItemID, VelocityX: item.VelocityX, VelocityY: item.VelocityY,
		})
	})
}

// SharePartyGold handles sharePartyGold (§4.6).
func (e *Engine) SharePartyGold(s *Session, req loot.ShareGoldRequest) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		if p.PartyID == "" {
			return
		}
		var memberIDs []string
		for _, other := range r.Players() {
			if other.OdID != p.OdID && other.PartyID == p.PartyID {
				memberIDs = append(memberIDs, other.OdID)
			}
		}
		shares, looterShare, memberCount := loot.SharePartyGold(req.TotalAmount, memberIDs)
		if memberCount == 1 {
			return
		}
		for _, share := range shares {
			r.Unicast(share.OdID, "partyGoldShare", loot.GoldShare{Amount: share.Share, FromName: p.Name})
		}
		r.Unicast(p.OdID, "partyGoldShareResult", loot.GoldShareResult{
			OriginalAmount: req.TotalAmount, YourShare: looterShare, MemberCount: memberCount,
		})
	})
}

// UpdateAppearance handles updateAppearance → playerAppearanceUpdated.
func (e *Engine) UpdateAppearance(s *Session, diff room.Appearance) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		eventbus.AppearanceUpdate(r, p, diff)
	})
}

// UpdateParty handles updateParty → playerPartyUpdated.
func (e *Engine) UpdateParty(s *Session, partyID string) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		eventbus.UpdateParty(r, p, partyID)
	})
}

// UpdatePartyStats handles updatePartyStats → partyMemberStats.
func (e *Engine) UpdatePartyStats(s *Session, stats eventbus.PartyStats) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		eventbus.UpdatePartyStats(r, p, stats)
	})
}

// Relay handles the purely-visual passthrough events (§4.7): playerVFX,
// playerProjectile, playerProjectileHit, playerSkillVFX.
func (e *Engine) Relay(s *Session, outEvent string, payload interface{}) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		eventbus.Relay(r, p.OdID, outEvent, payload)
	})
}

// PlayerDeath handles playerDeath → playerDied.
func (e *Engine) PlayerDeath(s *Session, payload interface{}) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		eventbus.PlayerDeath(r, p.OdID, payload)
	})
}

// PlayerRespawn handles playerRespawn → playerRespawned.
func (e *Engine) PlayerRespawn(s *Session, payload interface{}) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		eventbus.PlayerRespawn(r, p.OdID, payload)
	})
}

// RequestMonsters handles requestMonsters (§4.7).
func (e *Engine) RequestMonsters(s *Session) {
	e.withPlayer(s, func(r *room.Room, p *room.Player) {
		eventbus.RequestMonsters(r, p.OdID)
	})
}

// GMAuth handles gmAuth (§4.9).
func (e *Engine) GMAuth(s *Session, password string) {
	result := e.GM.Authenticate(s.ConnID, password)
	s.Conn.Send("gmAuthResult", result)
}

// CheckGMAuth handles checkGmAuth (§4.9).
func (e *Engine) CheckGMAuth(s *Session) {
	s.Conn.Send("gmAuthStatus", e.GM.Check(s.ConnID))
}

// LatencyPongView is the latencyPong egress payload.
type LatencyPongView struct {
	T int64 `json:"t"`
}

// LatencyPing handles latencyPing (§5 "answered with a latencyPong reply
// and used only as a health signal").
func (e *Engine) LatencyPing(s *Session, clientT int64) {
	s.Conn.Send("latencyPong", LatencyPongView{T: clientT})
}
