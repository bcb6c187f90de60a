package presence

import (
	"sync"
	"testing"
	"time"

	"sidescroller-session-engine/internal/ratelimit"
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

func newManager() *Manager {
	return NewManager(room.NewRegistry(), ratelimit.New(ratelimit.DefaultLimits()), 30*time.Second)
}

func TestJoinRequiresCoreFields(t *testing.T) {
	mgr := newManager()
	_, err := mgr.Join(&fakeConn{}, JoinRequest{})
	if err != ErrMissingField {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestJoinCreatesPlayerAndRoom(t *testing.T) {
	mgr := newManager()
	conn := &fakeConn{}
	p, err := mgr.Join(conn, JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MapID != "town" {
		t.Fatalf("expected player on map 'town', got %q", p.MapID)
	}
	r, ok := mgr.registry.Room("town")
	if !ok {
		t.Fatal("expected room 'town' to have been created")
	}
	if r.PlayerCount() != 1 {
		t.Fatalf("expected 1 player in room, got %d", r.PlayerCount())
	}
	if len(conn.out) == 0 {
		t.Fatal("expected the joining connection to receive currentPlayers/currentMonsters")
	}
}

func TestJoinDefaultsHPFromMaxHP(t *testing.T) {
	mgr := newManager()
	p, _ := mgr.Join(&fakeConn{}, JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})
	if p.MaxHP != 100 || p.HP != 100 {
		t.Fatalf("expected default maxHp/hp of 100, got maxHp=%d hp=%d", p.MaxHP, p.HP)
	}
}

func TestDisconnectDestroysEmptyRoom(t *testing.T) {
	mgr := newManager()
	mgr.Join(&fakeConn{}, JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})

	mgr.Disconnect("town", "p1")

	if _, ok := mgr.registry.Room("town"); ok {
		t.Fatal("room should be destroyed once its last player disconnects")
	}
}

func TestDisconnectKeepsRoomWithOtherPlayers(t *testing.T) {
	mgr := newManager()
	mgr.Join(&fakeConn{}, JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})
	mgr.Join(&fakeConn{}, JoinRequest{OdID: "p2", Name: "Other", MapID: "town"})

	mgr.Disconnect("town", "p1")

	r, ok := mgr.registry.Room("town")
	if !ok {
		t.Fatal("room should still exist with p2 present")
	}
	if r.PlayerCount() != 1 {
		t.Fatalf("expected 1 remaining player, got %d", r.PlayerCount())
	}
}

func TestRejoinMovesConnectionBetweenOdIDs(t *testing.T) {
	mgr := newManager()
	conn := &fakeConn{}
	mgr.Join(conn, JoinRequest{OdID: "old", Name: "Hero", MapID: "town"})

	p, err := mgr.Rejoin(conn, JoinRequest{OdID: "new", Name: "Hero2", MapID: "town"}, "town", "old", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.OdID != "new" {
		t.Fatalf("expected rejoin to register the new odId, got %q", p.OdID)
	}
	r, _ := mgr.registry.Room("town")
	if _, ok := r.Player("old"); ok {
		t.Fatal("old odId should have been removed on rejoin")
	}
	if r.PlayerCount() != 1 {
		t.Fatalf("expected exactly 1 player after rejoin, got %d", r.PlayerCount())
	}
}

func TestChangeMapMovesPlayerAcrossRooms(t *testing.T) {
	mgr := newManager()
	conn := &fakeConn{}
	current, _ := mgr.Join(conn, JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})

	moved, err := mgr.ChangeMap(conn, current, "dungeon", 10, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved.MapID != "dungeon" {
		t.Fatalf("expected player on 'dungeon', got %q", moved.MapID)
	}

	if _, ok := mgr.registry.Room("town"); ok {
		t.Fatal("origin room should be destroyed once its only player changes map")
	}
	dst, ok := mgr.registry.Room("dungeon")
	if !ok || dst.PlayerCount() != 1 {
		t.Fatal("destination room should contain exactly the moved player")
	}
}

func TestChangeMapToSameMapIsPositionOnlyUpdate(t *testing.T) {
	mgr := newManager()
	conn := &fakeConn{}
	current, _ := mgr.Join(conn, JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})

	moved, err := mgr.ChangeMap(conn, current, "town", 99, 88)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved.X != 99 || moved.Y != 88 {
		t.Fatalf("expected position update to 99,88, got %v,%v", moved.X, moved.Y)
	}
	r, _ := mgr.registry.Room("town")
	if r.PlayerCount() != 1 {
		t.Fatalf("same-map changeMap should not duplicate the player, got count=%d", r.PlayerCount())
	}
}

func TestChangeMapToSameMapFallsThroughWhenPlayerVanishedConcurrently(t *testing.T) {
	mgr := newManager()
	conn := &fakeConn{}
	current, _ := mgr.Join(conn, JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})

	// Simulate a concurrent Sweep()/Disconnect removing the player between
	// the caller's own lock-check and this call: the same-map fast path's
	// player lookup will miss, and ChangeMap must fall through to a full
	// leave+rejoin without deadlocking on town's room mutex.
	r, _ := mgr.registry.Room("town")
	r.Lock()
	r.RemovePlayer("p1")
	r.Unlock()

	done := make(chan struct{})
	go func() {
		mgr.ChangeMap(conn, current, "town", 5, 6)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ChangeMap deadlocked on the same-map fast path's room lock")
	}

	r, ok := mgr.registry.Room("town")
	if !ok || r.PlayerCount() != 1 {
		t.Fatal("expected the fallthrough rejoin to re-add the player to town")
	}
}

func TestSweepRemovesStalePlayersAndDestroysEmptyRooms(t *testing.T) {
	mgr := newManager()
	mgr.Join(&fakeConn{}, JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})

	r, _ := mgr.registry.Room("town")
	r.Lock()
	p, _ := r.Player("p1")
	p.LastUpdate = time.Now().Add(-time.Hour)
	r.Unlock()

	mgr.Sweep()

	if _, ok := mgr.registry.Room("town"); ok {
		t.Fatal("room should be destroyed after its only player is swept for inactivity")
	}
}

func TestSweepLeavesFreshPlayersAlone(t *testing.T) {
	mgr := newManager()
	mgr.Join(&fakeConn{}, JoinRequest{OdID: "p1", Name: "Hero", MapID: "town"})

	mgr.Sweep()

	r, ok := mgr.registry.Room("town")
	if !ok || r.PlayerCount() != 1 {
		t.Fatal("a player updated moments ago should survive the sweep")
	}
}
