package elite

import (
	"sync"
	"testing"
	"time"

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

func newRoomWithMonster(mapID string, m *room.Monster) *room.Room {
	r := room.NewRegistry().EnsureRoom(mapID)
	r.AddPlayer(&room.Player{OdID: "p1", Conn: &fakeConn{}})
	r.AddMonster(m)
	return r
}

func TestExcludedMapPrefixBlocksPromotion(t *testing.T) {
	p := NewPromoter(room.NewRegistry(), time.Minute, time.Minute)
	r := newRoomWithMonster("dewdropValley", &room.Monster{ID: "m1", HP: 10, MaxHP: 10})

	tryPromoteRoom(r)

	if r.EliteMonsterID != "" {
		t.Fatal("elite promotion must never occur on an excluded map prefix")
	}
	_ = p
}

func TestPartyQuestMapBlocksPromotion(t *testing.T) {
	r := newRoomWithMonster("pq_arena", &room.Monster{ID: "m1", HP: 10, MaxHP: 10})

	tryPromoteRoom(r)

	if r.EliteMonsterID != "" {
		t.Fatal("elite promotion must never occur on a pq-prefixed map")
	}
}

func TestPromoteAppliesStatMultipliersAndSetsPointer(t *testing.T) {
	r := newRoomWithMonster("town", &room.Monster{ID: "m1", HP: 50, MaxHP: 50, Damage: 10})
	m, _ := r.Monster("m1")

	Promote(r, m)

	if m.MaxHP != 5000 || m.HP != 5000 {
		t.Fatalf("expected maxHp/hp scaled by 100, got maxHp=%d hp=%d", m.MaxHP, m.HP)
	}
	if m.Damage != 30 {
		t.Fatalf("expected damage scaled by 3, got %d", m.Damage)
	}
	if !m.IsEliteMonster {
		t.Fatal("expected IsEliteMonster to be set")
	}
	if r.EliteMonsterID != "m1" {
		t.Fatalf("expected room's elite pointer to be m1, got %q", r.EliteMonsterID)
	}
	if m.OriginalMaxHP != 50 || m.OriginalDamage != 10 {
		t.Fatalf("expected original stats preserved, got maxHp=%d damage=%d", m.OriginalMaxHP, m.OriginalDamage)
	}
}

func TestIneligibleMonstersAreSkipped(t *testing.T) {
	tests := []*room.Monster{
		{ID: "boss", IsMiniBoss: true},
		{ID: "trial", IsTrialBoss: true},
		{ID: "already-elite", IsEliteMonster: true},
		{ID: "dummy", Type: "testDummy"},
	}
	for _, m := range tests {
		if isEligible(m) {
			t.Errorf("monster %q should not be eligible for promotion", m.ID)
		}
	}
	if !isEligible(&room.Monster{ID: "normal"}) {
		t.Fatal("a plain monster should be eligible for promotion")
	}
}

func TestAlreadyElitedRoomIsSkipped(t *testing.T) {
	r := newRoomWithMonster("town", &room.Monster{ID: "m1", HP: 10, MaxHP: 10})
	r.EliteMonsterID = "m1"

	secondMonster := &room.Monster{ID: "m2", HP: 10, MaxHP: 10}
	r.AddMonster(secondMonster)

	tryPromoteRoom(r)

	if r.EliteMonsterID != "m1" {
		t.Fatal("a room that already has an elite must not promote a second one")
	}
}
