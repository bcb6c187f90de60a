// Package presence implements the player lifecycle described in spec §4.3
// (C3): join, rejoin (character switching on one socket), map change,
// disconnect, and the periodic inactivity sweep.
//
// Generalizes a register/unregister connection bookkeeping pattern from one
// global connection set to per-room membership, plus the room-destruction
// rule from §4.2.
package presence

import (
	"errors"
	"time"

	"sidescroller-session-engine/internal/monster"
	"sidescroller-session-engine/internal/ratelimit"
	"sidescroller-session-engine/internal/room"
)

// JoinRequest is the parsed join/rejoin ingress payload (§6).
type JoinRequest struct {
	OdID             string            `json:"odId"`
	Name             string            `json:"name"`
	MapID            string            `json:"mapId"`
	X                float64           `json:"x"`
	Y                float64           `json:"y"`
	Level            int               `json:"level"`
	Exp              int               `json:"exp"`
	MaxExp           int               `json:"maxExp"`
	HP               int               `json:"hp"`
	MaxHP            int               `json:"maxHp"`
	PlayerClass      string            `json:"playerClass"`
	Guild            string            `json:"guild"`
	Equipped         map[string]string `json:"equipped"`
	CosmeticEquipped map[string]string `json:"cosmeticEquipped"`
	Customization    map[string]string `json:"customization"`
	EquippedMedal    string            `json:"equippedMedal"`
	DisplayMedals    []string          `json:"displayMedals"`
	PartyID          string            `json:"partyId"`
	OldOdID          string            `json:"oldOdId"`
}

var ErrMissingField = errors.New("join requires odId, name, and mapId")

// Manager implements the C3 transitions. It owns whatever room locking its
// operations need, since rejoin/changeMap can span two rooms.
type Manager struct {
	registry *room.Registry
	limiter  *ratelimit.Limiter
	timeout  time.Duration
}

func NewManager(registry *room.Registry, limiter *ratelimit.Limiter, timeout time.Duration) *Manager {
	return &Manager{registry: registry, limiter: limiter, timeout: timeout}
}

func buildPlayer(req JoinRequest, conn room.Conn) *room.Player {
	maxHP := req.MaxHP
	hp := req.HP
	if maxHP == 0 {
		maxHP = 100
	}
	if hp == 0 {
		hp = maxHP
	}
	return &room.Player{
		OdID:  req.OdID,
		Name:  req.Name,
		MapID: req.MapID,
		X:     req.X,
		Y:     req.Y,
		Facing: room.FacingRight,
		Appearance: room.Appearance{
			Equipped:         req.Equipped,
			CosmeticEquipped: req.CosmeticEquipped,
			Customization:    req.Customization,
			Guild:            req.Guild,
			EquippedMedal:    req.EquippedMedal,
			DisplayMedals:    req.DisplayMedals,
		},
		HP:         hp,
		MaxHP:      maxHP,
		Level:      req.Level,
		Exp:        req.Exp,
		MaxExp:     req.MaxExp,
		PartyID:    req.PartyID,
		LastUpdate: time.Now(),
		Conn:       conn,
	}
}

// Join implements §4.3's join transition.
func (mgr *Manager) Join(conn room.Conn, req JoinRequest) (*room.Player, error) {
	if req.OdID == "" || req.Name == "" || req.MapID == "" {
		return nil, ErrMissingField
	}

	r := mgr.registry.EnsureRoom(req.MapID)
	r.Lock()
	defer r.Unlock()

	p := buildPlayer(req, conn)
	r.AddPlayer(p)

	conn.Send("currentPlayers", Roster(r))
	conn.Send("currentMonsters", monster.Snapshot(r))
	r.Broadcast("playerJoined", ToView(p), p.OdID)

	return p, nil
}

// Rejoin implements §4.3's rejoin transition: drop whichever odId this
// connection currently owns (plus an explicit oldOdId if different), then
// join fresh. currentOdID/currentMapID are the connection's tracked
// identity before this call; empty means the connection hasn't joined yet.
func (mgr *Manager) Rejoin(conn room.Conn, req JoinRequest, currentMapID, currentOdID, oldOdID string) (*room.Player, error) {
	if currentMapID != "" && currentOdID != "" {
		mgr.leave(currentMapID, currentOdID)
	}
	if oldOdID != "" && oldOdID != currentOdID {
		mgr.leave(currentMapID, oldOdID)
	}
	return mgr.Join(conn, req)
}

// ChangeMap implements §4.3's changeMap transition. current must be the
// player's existing record (so name/appearance/stats carry over).
func (mgr *Manager) ChangeMap(conn room.Conn, current *room.Player, newMapID string, x, y float64) (*room.Player, error) {
	if newMapID == current.MapID {
		// No-op beyond membership confirmation (§8 round-trip property).
		// The lock/unlock is scoped to this closure so every exit path —
		// found or not — releases it before any fallthrough to leave(),
		// which would otherwise re-lock the same *room.Room and deadlock.
		r := mgr.registry.EnsureRoom(current.MapID)
		if moved, ok := func() (*room.Player, bool) {
			r.Lock()
			defer r.Unlock()
			p, ok := r.Player(current.OdID)
			if !ok {
				return nil, false
			}
			p.X, p.Y = x, y
			conn.Send("currentPlayers", Roster(r))
			conn.Send("currentMonsters", monster.Snapshot(r))
			return p, true
		}(); ok {
			return moved, nil
		}
	}

	snapshot := *current
	mgr.leave(current.MapID, current.OdID)

	snapshot.MapID = newMapID
	snapshot.X, snapshot.Y = x, y

	req := JoinRequest{
		OdID: snapshot.OdID, Name: snapshot.Name, MapID: newMapID,
		X: x, Y: y,
		Level: snapshot.Level, Exp: snapshot.Exp, MaxExp: snapshot.MaxExp,
		HP: snapshot.HP, MaxHP: snapshot.MaxHP,
		Guild:            snapshot.Appearance.Guild,
		Equipped:         snapshot.Appearance.Equipped,
		CosmeticEquipped: snapshot.Appearance.CosmeticEquipped,
		Customization:    snapshot.Appearance.Customization,
		EquippedMedal:    snapshot.Appearance.EquippedMedal,
		DisplayMedals:    snapshot.Appearance.DisplayMedals,
		PartyID:          snapshot.PartyID,
	}
	return mgr.Join(conn, req)
}

// Disconnect implements §4.3's disconnect transition.
func (mgr *Manager) Disconnect(mapID, odID string) {
	mgr.leave(mapID, odID)
	mgr.limiter.Forget(odID)
}

// leave removes odID from mapID's room, broadcasts playerLeft, and destroys
// the room if it is now empty (§4.2, §4.3).
func (mgr *Manager) leave(mapID, odID string) {
	if mapID == "" || odID == "" {
		return
	}
	r, ok := mgr.registry.Room(mapID)
	if !ok {
		return
	}
	r.Lock()
	_, existed := r.Player(odID)
	if existed {
		r.RemovePlayer(odID)
		r.Broadcast("playerLeft", LeftView{OdID: odID})
	}
	empty := r.PlayerCount() == 0
	r.Unlock()

	if empty {
		mgr.registry.DestroyRoom(mapID)
	}
}

// Sweep runs the 10s inactivity sweep (§4.3): any player whose lastUpdate
// exceeds the configured timeout is removed as if disconnected.
func (mgr *Manager) Sweep() {
	now := time.Now()
	for _, r := range mgr.registry.Rooms() {
		var stale []string
		r.Lock()
		for _, p := range r.Players() {
			if now.Sub(p.LastUpdate) > mgr.timeout {
				stale = append(stale, p.OdID)
			}
		}
		for _, odID := range stale {
			r.RemovePlayer(odID)
			r.Broadcast("playerLeft", LeftView{OdID: odID})
		}
		empty := r.PlayerCount() == 0
		r.Unlock()

		for _, odID := range stale {
			mgr.limiter.Forget(odID)
		}
		if empty {
			mgr.registry.DestroyRoom(r.MapID)
		}
	}
}

// StartSweeper runs Sweep on the given interval until stop is closed.
func (mgr *Manager) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mgr.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
