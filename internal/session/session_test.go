package session

import (
	"sync"
	"testing"

	"sidescroller-session-engine/internal/combat"
	"sidescroller-session-engine/internal/config"
	"sidescroller-session-engine/internal/monster"
	"sidescroller-session-engine/internal/presence"
	"sidescroller-session-engine/internal/room"
)

type fakeConn struct {
	mu  sync.Mutex
	out []string
}

func (f *fakeConn) Send(event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, event)
}

func (f *fakeConn) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.out))
	copy(out, f.out)
	return out
}

func newTestEngine() *Engine {
	cfg := config.DefaultTuning()
	return NewEngine(config.AppConfig{Tuning: cfg})
}

func TestJoinThenAttackThenKillFlowsThroughTheEngine(t *testing.T) {
	e := newTestEngine()

	conn := &fakeConn{}
	s := NewSession("conn1", conn)
	e.Join(s, presence.JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})

	if s.OdID() != "p1" || s.MapID() != "town" {
		t.Fatalf("expected session identity to be set after join, got odId=%q mapId=%q", s.OdID(), s.MapID())
	}

	e.InitMapMonsters(s, monster.InitMapRequest{
		MapID: "town",
		SpawnPositions: []room.SpawnPosition{
			{Type: "slime", X: 100, Y: 400, SurfaceX: 0, SurfaceWidth: 0},
		},
		MapWidth: 1000, GroundY: 400,
		MonsterTypes: map[string]room.MonsterTypeCatalogEntry{
			"slime": {HP: 10},
		},
	})

	r, ok := e.Registry.Room("town")
	if !ok {
		t.Fatal("expected room 'town' to exist")
	}
	var monsterID string
	r.Lock()
	for _, m := range r.LiveMonsters() {
		monsterID = m.ID
	}
	r.Unlock()
	if monsterID == "" {
		t.Fatal("expected initMapMonsters to have spawned a monster")
	}

	e.AttackMonster(s, combat.AttackRequest{MonsterID: monsterID, Damage: 100})

	r.Lock()
	_, stillAlive := func() (string, bool) {
		for _, m := range r.LiveMonsters() {
			if m.ID == monsterID {
				return m.ID, true
			}
		}
		return "", false
	}()
	r.Unlock()
	if stillAlive {
		t.Fatal("expected the monster to have died from a lethal attack")
	}

	found := false
	for _, ev := range conn.events() {
		if ev == "monsterKilled" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a monsterKilled event to have reached the attacker, got %v", conn.events())
	}
}

func TestJoinSendsServerStartTimeSoClientsCanDetectRestarts(t *testing.T) {
	e := newTestEngine()
	conn := &fakeConn{}
	s := NewSession("conn1", conn)
	e.Join(s, presence.JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})

	found := false
	for _, ev := range conn.events() {
		if ev == "serverStartTime" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a serverStartTime event on join, got %v", conn.events())
	}
}

func TestDisconnectClearsIdentityAndGMMembership(t *testing.T) {
	e := NewEngine(config.AppConfig{Tuning: config.DefaultTuning(), GM: config.GMConfig{Password: "secret"}})
	conn := &fakeConn{}
	s := NewSession("conn1", conn)
	e.Join(s, presence.JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})
	e.GMAuth(s, "secret")
	if !e.GM.IsGM(s.ConnID) {
		t.Fatal("expected the connection to hold GM membership before disconnecting")
	}

	e.Disconnect(s)

	if _, ok := e.Registry.Room("town"); ok {
		t.Fatal("expected the room to be destroyed once its only player disconnects")
	}
	if e.GM.IsGM(s.ConnID) {
		t.Fatal("expected disconnect to discard the connection's GM membership")
	}
}

func TestStatsReflectsLivePlayersAndMonsters(t *testing.T) {
	e := newTestEngine()
	conn := &fakeConn{}
	s := NewSession("conn1", conn)
	e.Join(s, presence.JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})

	stats := e.Stats()
	if stats.TotalPlayers != 1 {
		t.Fatalf("expected 1 total player, got %d", stats.TotalPlayers)
	}
	if len(stats.Maps) != 1 || stats.Maps[0].ID != "town" {
		t.Fatalf("expected one map entry for 'town', got %+v", stats.Maps)
	}
}

func TestGMAuthRoundTrip(t *testing.T) {
	e := NewEngine(config.AppConfig{Tuning: config.DefaultTuning(), GM: config.GMConfig{Password: "secret"}})
	conn := &fakeConn{}
	s := NewSession("conn1", conn)

	e.GMAuth(s, "wrong")
	e.CheckGMAuth(s)
	e.GMAuth(s, "secret")
	e.CheckGMAuth(s)

	events := conn.events()
	if len(events) != 4 {
		t.Fatalf("expected 4 gm events (result,status,result,status), got %v", events)
	}
}
