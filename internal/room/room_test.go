package room

import (
	"sync"
	"testing"
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

func TestRegistryEnsureRoomReusesExisting(t *testing.T) {
	reg := NewRegistry()
	a := reg.EnsureRoom("map1")
	b := reg.EnsureRoom("map1")
	if a != b {
		t.Fatal("EnsureRoom should return the same *Room for the same mapId")
	}
	if reg.Count() != 1 {
		t.Fatalf("expected 1 room, got %d", reg.Count())
	}
}

func TestRegistryDestroyRoomOnlyWhenEmpty(t *testing.T) {
	reg := NewRegistry()
	r := reg.EnsureRoom("map1")
	r.Lock()
	r.AddPlayer(&Player{OdID: "p1", Conn: &fakeConn{}})
	r.Unlock()

	if reg.DestroyRoom("map1") {
		t.Fatal("DestroyRoom should refuse to remove a room with players present")
	}
	if _, ok := reg.Room("map1"); !ok {
		t.Fatal("room should still exist")
	}

	r.Lock()
	r.RemovePlayer("p1")
	r.Unlock()

	if !reg.DestroyRoom("map1") {
		t.Fatal("DestroyRoom should remove an empty room")
	}
	if _, ok := reg.Room("map1"); ok {
		t.Fatal("room should no longer exist after destruction")
	}
}

func TestTopDamagerBreaksTiesByFirstContributor(t *testing.T) {
	r := newRoom("map1")
	r.AddDamage("m1", "first", 10)
	r.AddDamage("m1", "second", 10)
	// Equal totals: "first" reached 10 before "second" did, so it should
	// win the tie.
	if got := r.TopDamager("m1"); got != "first" {
		t.Fatalf("TopDamager = %q, want %q", got, "first")
	}
}

func TestTopDamagerPicksStrictlyHigher(t *testing.T) {
	r := newRoom("map1")
	r.AddDamage("m1", "first", 5)
	r.AddDamage("m1", "second", 20)
	if got := r.TopDamager("m1"); got != "second" {
		t.Fatalf("TopDamager = %q, want %q", got, "second")
	}
}

func TestTopDamagerEmptyLedger(t *testing.T) {
	r := newRoom("map1")
	if got := r.TopDamager("no-such-monster"); got != "" {
		t.Fatalf("TopDamager on an untouched monster = %q, want empty", got)
	}
}

func TestClearLedgerRemovesBothMaps(t *testing.T) {
	r := newRoom("map1")
	r.AddDamage("m1", "p1", 5)
	r.ClearLedger("m1")
	if got := r.TopDamager("m1"); got != "" {
		t.Fatalf("expected cleared ledger to report no top damager, got %q", got)
	}
	if _, ok := r.ledger["m1"]; ok {
		t.Fatal("expected the damage map entry to be removed")
	}
	if _, ok := r.ledgerOrder["m1"]; ok {
		t.Fatal("expected the attacker-order entry to be removed")
	}
}

func TestTakeItemIsFirstComeWins(t *testing.T) {
	r := newRoom("map1")
	r.AddItem(&GroundItem{ItemID: "drop_1"})

	item1, ok1 := r.TakeItem("drop_1")
	item2, ok2 := r.TakeItem("drop_1")

	if !ok1 || item1 == nil {
		t.Fatal("first TakeItem should succeed")
	}
	if ok2 || item2 != nil {
		t.Fatal("second TakeItem on the same id should fail: item already consumed")
	}
}

func TestBroadcastSkipsExcepted(t *testing.T) {
	r := newRoom("map1")
	sender := &fakeConn{}
	other := &fakeConn{}
	r.AddPlayer(&Player{OdID: "sender", Conn: sender})
	r.AddPlayer(&Player{OdID: "other", Conn: other})

	r.Broadcast("playerMoved", struct{}{}, "sender")

	if len(sender.out) != 0 {
		t.Fatalf("sender should not receive its own broadcast, got %v", sender.out)
	}
	if len(other.out) != 1 || other.out[0] != "playerMoved" {
		t.Fatalf("other player should receive the broadcast, got %v", other.out)
	}
}

func TestUnicastTargetsOnePlayer(t *testing.T) {
	r := newRoom("map1")
	target := &fakeConn{}
	bystander := &fakeConn{}
	r.AddPlayer(&Player{OdID: "target", Conn: target})
	r.AddPlayer(&Player{OdID: "bystander", Conn: bystander})

	r.Unicast("target", "attackCorrection", struct{}{})

	if len(target.out) != 1 {
		t.Fatalf("target should receive exactly one event, got %v", target.out)
	}
	if len(bystander.out) != 0 {
		t.Fatalf("bystander should receive nothing, got %v", bystander.out)
	}
}
