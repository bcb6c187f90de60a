// Package room implements the data model and room registry described in
// spec §2 (C2) and §3: a process-wide mapping of mapId to Room, each Room
// owning its players, monsters, topology, ground items and damage ledgers.
//
// Generalizes a single global engine owning one players map into a
// registry of many rooms, one per mapId, each independently locked (§5:
// "two events for the same mapId must observe a total order").
package room

import "time"

// Conn is the minimal surface the room package needs from a client
// connection: send it a named event. The concrete
// implementation lives in internal/api (a WebSocket connection); keeping
// the dependency as an interface here avoids api importing room importing
// api.
type Conn interface {
	// Send delivers a {event, data} envelope to this connection, matching
	// a {event, data} wire envelope.
	Send(event string, data interface{})
}

// Facing is left or right, per spec §3.
type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// Appearance bundles the cosmetic fields listed for Player (§3).
type Appearance struct {
	Equipped         map[string]string `json:"equipped,omitempty"`
	CosmeticEquipped map[string]string `json:"cosmeticEquipped,omitempty"`
	Customization    map[string]string `json:"customization,omitempty"`
	Guild            string            `json:"guild,omitempty"`
	EquippedMedal    string            `json:"equippedMedal,omitempty"`
	DisplayMedals    []string          `json:"displayMedals,omitempty"`
}

// Player is the authoritative presence record for a connected client (§3).
// Position, HP and most combat stats are client-asserted and merely
// recorded/relayed; the server does not simulate them (§1 Non-goals).
type Player struct {
	OdID  string
	Name  string
	MapID string
	X, Y  float64
	Facing    Facing
	AnimState string

	VelocityX, VelocityY float64

	Appearance Appearance

	HP, MaxHP   int
	Level       int
	Exp, MaxExp int

	PartyID string // nullable; empty means no party

	ActiveBuffs []string
	Pet         map[string]interface{}

	LastUpdate time.Time

	Conn Conn
}

// LootTableEntry is one row of a MonsterTypeCatalog entry's drop table.
type LootTableEntry struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
	Min  int     `json:"min,omitempty"`
	Max  int     `json:"max,omitempty"`
}

// AIType classifies whether a monster moves at all.
type AIType string

const (
	AIStatic     AIType = "static"
	AIPatrolling AIType = "patrolling"
)

// MonsterTypeCatalogEntry is the per-type stat block supplied once per map
// by the first client to join (§3, §9 "Client-provided catalog").
type MonsterTypeCatalogEntry struct {
	HP         int              `json:"hp"`
	Speed      float64          `json:"speed"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	AIType     AIType           `json:"aiType"`
	IsMiniBoss bool             `json:"isMiniBoss"`
	CanJump    bool             `json:"canJump"`
	JumpForce  float64          `json:"jumpForce"`
	Loot       []LootTableEntry `json:"loot"`
}

// AIState is a monster's current behavior mode.
type AIState string

const (
	AIStateIdle       AIState = "idle"
	AIStatePatrolling AIState = "patrolling"
	AIStateChasing    AIState = "chasing"
)

// Monster is a server-simulated NPC (§3).
type Monster struct {
	ID   string
	Type string

	X, Y                 float64
	VelocityX, VelocityY float64
	Direction            int // -1 or +1
	Facing               Facing

	HP, MaxHP int
	Damage    int

	AIType  AIType
	AIState AIState

	IsDead         bool
	IsMiniBoss     bool
	IsEliteMonster bool
	IsTrialBoss    bool
	IsShiny        bool
	CanJump        bool
	IsJumping      bool

	Width, Height float64

	PatrolMinX, PatrolMaxX float64
	SurfaceX, SurfaceWidth float64 // retained so respawn can reapply the same surface

	SpawnX, SpawnY float64
	GroundY        float64

	TargetPlayer string // odId, empty if none

	KnockbackEndTime    time.Time
	LastInteractionTime time.Time
	LastUpdate          time.Time

	OriginalMaxHP  int
	OriginalDamage int
}

// GroundItem is a pickup-able drop (§3). DroppedByMonster is the sentinel
// "__monster__" when a monster minted it.
const DroppedByMonster = "__monster__"

type GroundItem struct {
	ItemID    string
	Name      string
	X, Y      float64
	DroppedBy string
	Timestamp time.Time

	Amount *int

	Stats       map[string]interface{}
	Rarity      string
	Enhancement int
	Quantity    int
	LevelReq    int
	IsQuestItem bool

	VelocityX, VelocityY float64
}

// MapTopology is the map-wide geometry supplied by the first joiner (§3).
type MapTopology struct {
	MapWidth float64
	GroundY  float64
	Types    map[string]MonsterTypeCatalogEntry
}

// SpawnPosition is one entry of the spawnPositions list from initMapMonsters.
type SpawnPosition struct {
	Type         string  `json:"type"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	SurfaceX     float64 `json:"surfaceX"`
	SurfaceWidth float64 `json:"surfaceWidth"`
}
