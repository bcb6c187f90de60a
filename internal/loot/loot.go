// Package loot implements the ground-item authority described in spec §4.6
// (C6): server-minted drop ids, elite drop-table multipliers, the
// celebration-drop policy, player-initiated drops, first-come pickup, and
// party gold splitting.
//
// Uses the standard rand.Float64/rand.Intn helpers for roll evaluation,
// and a weighted entry-list loot table walked once per kill.
package loot

import (
	"math"
	"math/rand"
	"time"

	"sidescroller-session-engine/internal/idgen"
	"sidescroller-session-engine/internal/room"
)

const eliteDropMultiplier = 3

// celebrationTable implements the Open Question resolution documented in
// SPEC_FULL.md: a narrow, type-scoped guaranteed drop rather than a global
// 20% roll across all monster kills.
var celebrationTable = map[string]string{
	"babySlime": "Salami Stick",
}

// Generate mints the drops for one kill, per §4.6. baseX/baseY are the
// monster's center.
func Generate(typ string, catalog room.MonsterTypeCatalogEntry, isElite bool, baseX, baseY float64) []*room.GroundItem {
	mult := 1.0
	if isElite {
		mult = eliteDropMultiplier
	}

	var drops []*room.GroundItem
	idx := 0
	mint := func() int {
		idx++
		return idx - 1
	}

	for _, entry := range catalog.Loot {
		if rand.Float64() >= entry.Rate*mult {
			continue
		}
		if entry.Name == "Gold" {
			amount := uniformIntInclusive(entry.Min, entry.Max)
			if isElite {
				amount *= 20
			}
			drops = append(drops, goldDrop(mint(), baseX, baseY, amount))
			continue
		}
		drops = append(drops, itemDrop(mint(), baseX, baseY, entry.Name))
	}

	if isElite {
		drops = append(drops, goldDrop(mint(), baseX, baseY, uniformIntExclusive(50_000, 100_000)))
		for i, n := 0, uniformIntInclusive(2, 5); i < n; i++ {
			drops = append(drops, itemDrop(mint(), baseX, baseY, "Gachapon Ticket"))
		}
		for i, n := 0, uniformIntInclusive(4, 8); i < n; i++ {
			drops = append(drops, itemDrop(mint(), baseX, baseY, "Enhancement Scroll"))
		}
	}

	if name, ok := celebrationTable[typ]; ok {
		drops = append(drops, itemDrop(mint(), baseX, baseY, name))
	}

	return drops
}

func goldDrop(idx int, baseX, baseY float64, amount int) *room.GroundItem {
	amt := amount
	return &room.GroundItem{
		ItemID:    idgen.NextDropID(idx),
		Name:      "Gold",
		X:         baseX + float64(idx)*10,
		Y:         baseY,
		DroppedBy: room.DroppedByMonster,
		Timestamp: time.Now(),
		Amount:    &amt,
		VelocityX: uniformFloat(-2, 2),
		VelocityY: uniformFloat(-5, -3),
	}
}

func itemDrop(idx int, baseX, baseY float64, name string) *room.GroundItem {
	return &room.GroundItem{
		ItemID:    idgen.NextDropID(idx),
		Name:      name,
		X:         baseX + float64(idx)*10,
		Y:         baseY,
		DroppedBy: room.DroppedByMonster,
		Timestamp: time.Now(),
		VelocityX: uniformFloat(-2, 2),
		VelocityY: uniformFloat(-5, -3),
	}
}

// PlayerDrop implements playerDropItem (§4.6).
func PlayerDrop(odID, name string, x, y float64, attrs Attrs) *room.GroundItem {
	item := &room.GroundItem{
		ItemID:      idgen.NextPlayerDropID(),
		Name:        name,
		X:           x,
		Y:           y,
		DroppedBy:   odID,
		Timestamp:   time.Now(),
		VelocityX:   uniformFloat(-2, 2),
		VelocityY:   uniformFloat(-5, -3),
		Stats:       attrs.Stats,
		Rarity:      attrs.Rarity,
		Enhancement: attrs.Enhancement,
		Quantity:    attrs.Quantity,
		LevelReq:    attrs.LevelReq,
		IsQuestItem: attrs.IsQuestItem,
	}
	if attrs.IsGold && attrs.Amount != 0 {
		amt := attrs.Amount
		item.Amount = &amt
	}
	return item
}

// Attrs bundles the optional equipment fields a player may attach to a
// playerDropItem event.
type Attrs struct {
	Stats       map[string]interface{} `json:"stats"`
	Rarity      string                 `json:"rarity"`
	Enhancement int                    `json:"enhancement"`
	Quantity    int                    `json:"quantity"`
	LevelReq    int                    `json:"levelReq"`
	IsQuestItem bool                   `json:"isQuestItem"`
	IsGold      bool                   `json:"isGold"`
	Amount      int                    `json:"amount"`
}

// PlayerDropRequest is the parsed playerDropItem ingress payload (§6).
type PlayerDropRequest struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Attrs
}

// ItemPickupRequest is the parsed itemPickup ingress payload (§6).
type ItemPickupRequest struct {
	ItemID   string  `json:"itemId"`
	ItemName string  `json:"itemName"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// PickupRejected is the itemPickupRejected egress payload.
type PickupRejected struct {
	ItemID   string `json:"itemId"`
	ItemName string `json:"itemName"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Reason   string `json:"reason"`
}

// PickedUp is the itemPickedUp egress payload.
type PickedUp struct {
	ItemID         string  `json:"itemId"`
	ItemName       string  `json:"itemName"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	PickedUpBy     string  `json:"pickedUpBy"`
	PickedUpByName string  `json:"pickedUpByName"`
}

// DropConfirm is the playerDropConfirm egress payload (unicast to the
// dropper so it adopts the canonical server-minted id).
type DropConfirm struct {
	ID        string  `json:"id"`
	VelocityX float64 `json:"velocityX"`
	VelocityY float64 `json:"velocityY"`
}

// ShareGoldRequest is the parsed sharePartyGold ingress payload (§6).
type ShareGoldRequest struct {
	TotalAmount int `json:"totalAmount"`
}

// GoldShare is the partyGoldShare egress payload (unicast to each member).
type GoldShare struct {
	Amount   int    `json:"amount"`
	FromName string `json:"fromName"`
}

// GoldShareResult is the partyGoldShareResult egress payload (unicast to
// the looter).
type GoldShareResult struct {
	OriginalAmount int `json:"originalAmount"`
	YourShare      int `json:"yourShare"`
	MemberCount    int `json:"memberCount"`
}

// Pickup implements itemPickup's atomic first-come-wins consumption
// (§4.6). Caller already holds the room lock.
func Pickup(r *room.Room, itemID string) (*room.GroundItem, bool) {
	return r.TakeItem(itemID)
}

// PartyShare is one recipient's cut of a sharePartyGold call.
type PartyShare struct {
	OdID  string
	Share int
}

// SharePartyGold implements §4.6's split math. members excludes the looter.
// Returns the per-member shares and the looter's own retained share.
func SharePartyGold(totalAmount int, memberOdIDs []string) (shares []PartyShare, looterShare int, memberCount int) {
	m := 1 + len(memberOdIDs)
	if m == 1 {
		return nil, totalAmount, 1
	}
	share := maxInt(1, ceilDiv(totalAmount, m))
	shares = make([]PartyShare, 0, len(memberOdIDs))
	for _, odID := range memberOdIDs {
		shares = append(shares, PartyShare{OdID: odID, Share: share})
	}
	looterShare = maxInt(1, totalAmount-share*(m-1))
	return shares, looterShare, m
}

func ceilDiv(a, b int) int {
	return int(math.Ceil(float64(a) / float64(b)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func uniformIntInclusive(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}

func uniformIntExclusive(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min)
}

func uniformFloat(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}
