// Package ratelimit implements the sliding-window action limiter and the
// damage validator described in spec §4.1 (C1).
//
// Unlike the HTTP-facing limiter in internal/api (a token bucket from
// golang.org/x/time/rate, used for connection-layer rate limiting), the
// protocol-level admission check here is a literal sliding window over a
// 1-second horizon per (player, action): stamps older than now-1s are
// evicted on every admission check. A token bucket approximates but does
// not reproduce the exact eviction semantics the testable properties
// depend on (scenario 4: "exactly 10 applied damages"), so this is
// hand-rolled against time.Time slices rather than reached for a library.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Action identifies which bucket an admission check applies to.
type Action int

const (
	ActionAttack Action = iota
	ActionPickup
	ActionPosition
)

// window is exactly 1 second, per spec §4.1.
const window = time.Second

// Limits configures the three per-action caps.
type Limits struct {
	Attacks   int
	Pickups   int
	Positions int
}

// DefaultLimits returns the stated caps: 10/s attacks, 20/s pickups,
// 30/s position updates.
func DefaultLimits() Limits {
	return Limits{Attacks: 10, Pickups: 20, Positions: 30}
}

func (l Limits) capFor(a Action) int {
	switch a {
	case ActionAttack:
		return l.Attacks
	case ActionPickup:
		return l.Pickups
	case ActionPosition:
		return l.Positions
	default:
		return 0
	}
}

type bucket struct {
	stamps []time.Time
}

// evict drops stamps older than now-window from the bucket in place.
func (b *bucket) evict(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(b.stamps) && b.stamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		b.stamps = b.stamps[i:]
	}
}

// Limiter tracks per-player sliding-window buckets for every action.
type Limiter struct {
	mu      sync.Mutex
	limits  Limits
	buckets map[string]*[3]bucket // odId -> [attack, pickup, position]
}

// New creates a Limiter with the given caps.
func New(limits Limits) *Limiter {
	return &Limiter{
		limits:  limits,
		buckets: make(map[string]*[3]bucket),
	}
}

// Admit evicts stale stamps, then admits the action iff the surviving count
// is strictly below the action's cap (spec §4.1).
func (l *Limiter) Admit(odID string, action Action) bool {
	return l.admitAt(odID, action, time.Now())
}

func (l *Limiter) admitAt(odID string, action Action, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[odID]
	if !ok {
		b = &[3]bucket{}
		l.buckets[odID] = b
	}
	bk := &b[action]
	bk.evict(now)

	cap := l.limits.capFor(action)
	if len(bk.stamps) >= cap {
		return false
	}
	bk.stamps = append(bk.stamps, now)
	return true
}

// Forget discards all buckets for a player, called on disconnect (§4.3).
func (l *Limiter) Forget(odID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, odID)
}

// AbsoluteDamageCap is the sole server defense against damage forgery
// (§4.1): fine-grained per-class validation is explicitly deferred.
const AbsoluteDamageCap = 50000

// ValidateDamage returns 0 when d is not a finite non-negative number, and
// floor(min(d, AbsoluteDamageCap)) otherwise, plus whether the value was
// capped (used by callers to decide the broadcast's isCritical flag).
func ValidateDamage(d float64) (value int, capped bool) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, true
	}
	clamped := d
	wasCapped := false
	if clamped > AbsoluteDamageCap {
		clamped = AbsoluteDamageCap
		wasCapped = true
	}
	return int(math.Floor(clamped)), wasCapped
}
