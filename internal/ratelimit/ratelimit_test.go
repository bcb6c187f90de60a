package ratelimit

import (
	"math"
	"testing"
	"time"
)

func TestAdmitExactlyCap(t *testing.T) {
	l := New(Limits{Attacks: 10, Pickups: 20, Positions: 30})
	base := time.Now()

	admitted := 0
	for i := 0; i < 15; i++ {
		if l.admitAt("p1", ActionAttack, base) {
			admitted++
		}
	}
	if admitted != 10 {
		t.Fatalf("expected exactly 10 admitted attacks within the window, got %d", admitted)
	}
}

func TestAdmitRecoversAfterWindow(t *testing.T) {
	l := New(Limits{Attacks: 10, Pickups: 20, Positions: 30})
	base := time.Now()

	for i := 0; i < 10; i++ {
		l.admitAt("p1", ActionAttack, base)
	}
	if l.admitAt("p1", ActionAttack, base) {
		t.Fatal("expected 11th attack within the same second to be rejected")
	}
	later := base.Add(1001 * time.Millisecond)
	if !l.admitAt("p1", ActionAttack, later) {
		t.Fatal("expected an attack just past the 1s window to be admitted")
	}
}

func TestAdmitBucketsAreIndependentPerAction(t *testing.T) {
	l := New(DefaultLimits())
	now := time.Now()
	for i := 0; i < 10; i++ {
		if !l.admitAt("p1", ActionAttack, now) {
			t.Fatalf("attack %d should have been admitted", i)
		}
	}
	if !l.admitAt("p1", ActionPickup, now) {
		t.Fatal("pickup bucket should be unaffected by a saturated attack bucket")
	}
}

func TestForgetClearsPlayerState(t *testing.T) {
	l := New(Limits{Attacks: 1, Pickups: 1, Positions: 1})
	now := time.Now()
	if !l.admitAt("p1", ActionAttack, now) {
		t.Fatal("first attack should be admitted")
	}
	if l.admitAt("p1", ActionAttack, now) {
		t.Fatal("second attack in the same instant should be rejected")
	}
	l.Forget("p1")
	if !l.admitAt("p1", ActionAttack, now) {
		t.Fatal("after Forget, the player's bucket should be reset")
	}
}

func TestValidateDamageRejectsNonFinite(t *testing.T) {
	cases := []float64{math.NaN(), math.Inf(1), math.Inf(-1), -5}
	for _, d := range cases {
		v, capped := ValidateDamage(d)
		if v != 0 || !capped {
			t.Errorf("ValidateDamage(%v) = (%d, %v), want (0, true)", d, v, capped)
		}
	}
}

func TestValidateDamageCapsAtAbsoluteMax(t *testing.T) {
	v, capped := ValidateDamage(AbsoluteDamageCap + 12345)
	if v != AbsoluteDamageCap || !capped {
		t.Fatalf("ValidateDamage over cap = (%d, %v), want (%d, true)", v, capped, AbsoluteDamageCap)
	}
}

func TestValidateDamagePassesThroughNormalValues(t *testing.T) {
	v, capped := ValidateDamage(42.9)
	if v != 42 || capped {
		t.Fatalf("ValidateDamage(42.9) = (%d, %v), want (42, false)", v, capped)
	}
}
