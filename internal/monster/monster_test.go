package monster

import (
	"testing"
	"time"

	"sidescroller-session-engine/internal/room"
)

func TestComputePatrolBoundsRespectsSurfaceEdgeBuffer(t *testing.T) {
	minX, maxX, state := computePatrolBounds(1000, 200, 100, 300)
	if state != room.AIStatePatrolling {
		t.Fatalf("expected patrolling state for a wide surface, got %v", state)
	}
	wantMin, wantMax := 100+edgeBuffer, 100+300-edgeBuffer
	if minX != wantMin || maxX != wantMax {
		t.Fatalf("got bounds (%v,%v), want (%v,%v)", minX, maxX, wantMin, wantMax)
	}
}

func TestComputePatrolBoundsFallsBackToIdleWhenSurfaceTooNarrow(t *testing.T) {
	_, _, state := computePatrolBounds(1000, 200, 190, 30)
	if state != room.AIStateIdle {
		t.Fatalf("expected idle state for a surface narrower than the minimum patrol distance, got %v", state)
	}
}

func TestComputePatrolBoundsWithoutSurfaceCentersOnX(t *testing.T) {
	minX, maxX, state := computePatrolBounds(1000, 500, 0, 0)
	if state != room.AIStatePatrolling {
		t.Fatalf("expected patrolling state without a surface, got %v", state)
	}
	if minX != 350 || maxX != 650 {
		t.Fatalf("expected bounds centered at x=500 +/-150, got (%v,%v)", minX, maxX)
	}
}

func TestIsShinyEligibleExcludesSpecialMonstersAndMaps(t *testing.T) {
	cases := []struct {
		m      *room.Monster
		mapID  string
		expect bool
	}{
		{&room.Monster{}, "town", true},
		{&room.Monster{IsMiniBoss: true}, "town", false},
		{&room.Monster{IsTrialBoss: true}, "town", false},
		{&room.Monster{Type: "testDummy"}, "town", false},
		{&room.Monster{}, "dewdropValley", false},
		{&room.Monster{}, "pq_arena", false},
	}
	for _, c := range cases {
		if got := isShinyEligible(c.m, c.mapID); got != c.expect {
			t.Errorf("isShinyEligible(%+v, %q) = %v, want %v", c.m, c.mapID, got, c.expect)
		}
	}
}

func TestSpawnMonsterAssignsPatrolBoundsAndCatalogStats(t *testing.T) {
	reg := room.NewRegistry()
	r := reg.EnsureRoom("town")
	topo := &room.MapTopology{
		MapWidth: 1000, GroundY: 400,
		Types: map[string]room.MonsterTypeCatalogEntry{"slime": {HP: 50}},
	}
	m := SpawnMonster(r, topo, "slime", 200, 400, 100, 300)

	if m.HP != 50 || m.MaxHP != 50 {
		t.Fatalf("expected catalog HP of 50, got hp=%d maxHp=%d", m.HP, m.MaxHP)
	}
	if m.PatrolMinX >= m.PatrolMaxX {
		t.Fatalf("expected a non-degenerate patrol range, got [%v,%v]", m.PatrolMinX, m.PatrolMaxX)
	}
	if _, ok := r.Monster(m.ID); !ok {
		t.Fatal("expected the spawned monster to be present in the room")
	}
}

func TestUpdateMonsterAIStaticNeverMoves(t *testing.T) {
	m := &room.Monster{AIType: room.AIStatic, VelocityX: 5}
	updateMonsterAI(m, &room.MapTopology{}, room.NewRegistry().EnsureRoom("town"), time.Now(), 4.2)
	if m.VelocityX != 0 {
		t.Fatalf("expected a static monster to never accrue velocity, got %v", m.VelocityX)
	}
}

func TestUpdateMonsterAIHoldsStillDuringKnockback(t *testing.T) {
	now := time.Now()
	m := &room.Monster{
		AIType:           room.AIPatrolling,
		KnockbackEndTime: now.Add(time.Second),
		VelocityX:        0,
	}
	updateMonsterAI(m, &room.MapTopology{MapWidth: 1000}, room.NewRegistry().EnsureRoom("town"), now, 4.2)
	if m.VelocityX != 0 {
		t.Fatalf("expected velocity to stay at 0 while knockback is in effect, got %v", m.VelocityX)
	}
}

func TestOnAttackedSetsTarget(t *testing.T) {
	m := &room.Monster{}
	OnAttacked(m, "p1", time.Now())
	if m.TargetPlayer != "p1" {
		t.Fatalf("expected TargetPlayer to be set to the attacker, got %q", m.TargetPlayer)
	}
	if m.AIState != room.AIStateChasing {
		t.Fatalf("expected AIState to switch to chasing, got %v", m.AIState)
	}
}
