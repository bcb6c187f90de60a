package room

import (
	"sync"
)

// Room holds every piece of per-mapId state assigned to a room
// (§3): players, monsters, topology, ground items and the damage ledger
// used for loot attribution. Its methods do not lock; callers hold the
// room's own mutex (Lock/Unlock) around them, giving a total order over
// events for a single mapId (§5) while leaving rooms free to run
// concurrently with one another.
type Room struct {
	MapID string

	mu sync.Mutex

	players  map[string]*Player
	monsters map[string]*Monster
	items    map[string]*GroundItem

	// DamageLedger[monsterId][odId] = cumulative damage, consulted only at
	// kill time for loot attribution (§3, §4.5).
	ledger map[string]map[string]int

	// ledgerOrder[monsterId] lists attackers by the time of their latest
	// hit (the moment each reached its current total), so TopDamager can
	// break ties in favor of whoever reached the max damage first rather
	// than Go's randomized map iteration order.
	ledgerOrder map[string][]string

	topology *MapTopology

	// EliteMonsterID is the room's current elite, or "" if none (§4.8).
	EliteMonsterID string

	// simulatorStarted latches that this room has received its first
	// initMapMonsters and the tick loop should process it.
	simulatorStarted bool
}

func newRoom(mapID string) *Room {
	return &Room{
		MapID:       mapID,
		players:     make(map[string]*Player),
		monsters:    make(map[string]*Monster),
		items:       make(map[string]*GroundItem),
		ledger:      make(map[string]map[string]int),
		ledgerOrder: make(map[string][]string),
	}
}

// Lock/Unlock expose the room's mutex to the presence/combat/monster
// packages, which need to perform several reads-then-writes atomically
// (e.g. "resolve room, validate, mutate, broadcast" in one critical
// section). Exported rather than hidden behind a giant do-everything
// method because the operations that need this span multiple packages.
func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// --- players ---

func (r *Room) AddPlayer(p *Player) {
	r.players[p.OdID] = p
}

func (r *Room) RemovePlayer(odID string) {
	delete(r.players, odID)
}

func (r *Room) Player(odID string) (*Player, bool) {
	p, ok := r.players[odID]
	return p, ok
}

func (r *Room) Players() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

func (r *Room) PlayerCount() int { return len(r.players) }

// --- monsters ---

func (r *Room) AddMonster(m *Monster) {
	r.monsters[m.ID] = m
}

func (r *Room) RemoveMonster(id string) {
	delete(r.monsters, id)
	delete(r.ledger, id)
	if r.EliteMonsterID == id {
		r.EliteMonsterID = ""
	}
}

func (r *Room) Monster(id string) (*Monster, bool) {
	m, ok := r.monsters[id]
	return m, ok
}

func (r *Room) Monsters() []*Monster {
	out := make([]*Monster, 0, len(r.monsters))
	for _, m := range r.monsters {
		out = append(out, m)
	}
	return out
}

func (r *Room) LiveMonsters() []*Monster {
	out := make([]*Monster, 0, len(r.monsters))
	for _, m := range r.monsters {
		if !m.IsDead {
			out = append(out, m)
		}
	}
	return out
}

// --- damage ledger ---

func (r *Room) AddDamage(monsterID, odID string, amount int) {
	m, ok := r.ledger[monsterID]
	if !ok {
		m = make(map[string]int)
		r.ledger[monsterID] = m
	}
	order := r.ledgerOrder[monsterID]
	for i, id := range order {
		if id == odID {
			order = append(order[:i], order[i+1:]...)
			break
		}
	}
	r.ledgerOrder[monsterID] = append(order, odID)
	m[odID] += amount
}

// TopDamager returns the odId with the highest cumulative damage on a
// monster, ties resolved in favor of the first contributor to reach the
// maximum (§3 DamageLedger, §8 scenario 1). Returns "" if no entries exist.
func (r *Room) TopDamager(monsterID string) string {
	entries, ok := r.ledger[monsterID]
	if !ok || len(entries) == 0 {
		return ""
	}
	order := r.ledgerOrder[monsterID]
	best := ""
	bestVal := -1
	for _, odID := range order {
		v, ok := entries[odID]
		if !ok {
			continue
		}
		if v > bestVal {
			bestVal = v
			best = odID
		}
	}
	return best
}

func (r *Room) ClearLedger(monsterID string) {
	delete(r.ledger, monsterID)
	delete(r.ledgerOrder, monsterID)
}

// --- ground items ---

func (r *Room) AddItem(item *GroundItem) {
	r.items[item.ItemID] = item
}

// TakeItem atomically removes and returns an item, or ok=false if it was
// already consumed (first-come-wins, §4.6).
func (r *Room) TakeItem(itemID string) (*GroundItem, bool) {
	item, ok := r.items[itemID]
	if !ok {
		return nil, false
	}
	delete(r.items, itemID)
	return item, true
}

func (r *Room) Items() []*GroundItem {
	out := make([]*GroundItem, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	return out
}

// --- topology ---

func (r *Room) Topology() *MapTopology { return r.topology }

func (r *Room) SetTopology(t *MapTopology) { r.topology = t }

func (r *Room) HasTopology() bool { return r.topology != nil }

func (r *Room) SimulatorStarted() bool { return r.simulatorStarted }
func (r *Room) MarkSimulatorStarted()  { r.simulatorStarted = true }

// Broadcast sends an event to every present player except the given odIds.
func (r *Room) Broadcast(event string, data interface{}, except ...string) {
	skip := make(map[string]bool, len(except))
	for _, o := range except {
		skip[o] = true
	}
	for odID, p := range r.players {
		if skip[odID] {
			continue
		}
		p.Conn.Send(event, data)
	}
}

// Unicast sends an event to exactly one player, if present.
func (r *Room) Unicast(odID, event string, data interface{}) {
	if p, ok := r.players[odID]; ok {
		p.Conn.Send(event, data)
	}
}
