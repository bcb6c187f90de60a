package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-player or per-monster labels, to
// keep this safe against label-explosion DoS).
var (
	roomCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_room_count",
		Help: "Current number of active rooms (maps)",
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_player_count",
		Help: "Current number of connected players across all rooms",
	})

	monsterCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_monster_count",
		Help: "Current number of live monsters across all rooms",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "session_monster_tick_duration_seconds",
		Help:    "Time spent in one monster simulator tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	attacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_attacks_total",
		Help: "Total attackMonster events decoded, counted before rate limiting",
	})

	killsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_monster_kills_total",
		Help: "Total monsters killed",
	})

	pickupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_item_pickups_total",
		Help: "Total itemPickup requests decoded, including rejected ones",
	})

	// connectionRejected uses ONLY bounded label values.
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	rateLimitRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_action_rate_limited_total",
		Help: "Protocol-level actions rejected by the sliding-window limiter",
	}, []string{"action"}) // bounded: "attack", "pickup", "position"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_websocket_messages_total",
		Help: "Total WebSocket messages received",
	})
)

// metricsHandler exposes the Prometheus registry over HTTP. Mounted
// directly on the public router (unlike a separate
// localhost-only debug server) since this domain's metrics carry no
// per-player or pprof-level sensitivity.
func metricsHandler() http.HandlerFunc {
	h := promhttp.Handler()
	return func(w http.ResponseWriter, r *http.Request) { h.ServeHTTP(w, r) }
}

// RecordTick records monster simulator tick timing. Nothing in this module
// calls it, so the tick-duration histogram stays empty.
func RecordTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

// UpdatePlayerCount updates the player gauge.
func UpdatePlayerCount(count int) {
	playerCount.Set(float64(count))
}

// UpdateMonsterCount updates the monster gauge.
func UpdateMonsterCount(count int) {
	monsterCount.Set(float64(count))
}

// UpdateRoomCount updates the room gauge.
func UpdateRoomCount(count int) {
	roomCount.Set(float64(count))
}

// RecordAttack increments the attack counter. dispatch calls it for every
// decoded attackMonster event, before the session's rate limit check.
func RecordAttack() {
	attacksTotal.Inc()
}

// RecordKill increments the monster-kill counter. Nothing in this module
// calls it, so the kill counter stays at zero.
func RecordKill() {
	killsTotal.Inc()
}

// RecordPickup increments the item-pickup counter. dispatch calls it for
// every decoded itemPickup event, whether or not the pickup succeeds.
func RecordPickup() {
	pickupsTotal.Inc()
}

// RecordConnectionRejected increments the connection-rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit".
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordActionRateLimited increments the protocol-level rate-limit counter.
// action must be one of: "attack", "pickup", "position". Nothing in this
// module calls it; rate-limit rejections are only logged.
func RecordActionRateLimited(action string) {
	rateLimitRejectedTotal.WithLabelValues(action).Inc()
}

// UpdateWSConnections updates the WebSocket connection gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments the WebSocket message counter.
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
