// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all server tunables.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP/WebSocket listener settings.
type ServerConfig struct {
	Port int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{Port: 3001}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	return cfg
}

// =============================================================================
// GM AUTHENTICATION
// =============================================================================

// GMConfig holds the shared GM password. An empty Password disables the
// whole GM surface (§4.9): gmAuth always replies "GM system not configured".
type GMConfig struct {
	Password string
}

// GMFromEnv reads GM_PASSWORD. Absence disables GM features entirely.
func GMFromEnv() GMConfig {
	return GMConfig{Password: os.Getenv("GM_PASSWORD")}
}

// Enabled reports whether the GM surface is configured.
func (c GMConfig) Enabled() bool {
	return c.Password != ""
}

// =============================================================================
// DEBUG / LOGGING
// =============================================================================

// DebugConfig toggles verbose logging.
type DebugConfig struct {
	Verbose bool
}

// DebugFromEnv reads DEBUG ("true" enables verbose logs).
func DebugFromEnv() DebugConfig {
	return DebugConfig{Verbose: os.Getenv("DEBUG") == "true"}
}

// =============================================================================
// KEEP-ALIVE
// =============================================================================

// KeepAliveConfig configures the optional self-ping used on hosts (e.g.
// Render) that idle down a process with no inbound traffic.
type KeepAliveConfig struct {
	ExternalURL string
	Interval    time.Duration
}

// KeepAliveFromEnv reads RENDER_EXTERNAL_URL. Empty disables self-ping.
func KeepAliveFromEnv() KeepAliveConfig {
	return KeepAliveConfig{
		ExternalURL: os.Getenv("RENDER_EXTERNAL_URL"),
		Interval:    10 * time.Minute,
	}
}

// Enabled reports whether a keep-alive target is configured.
func (c KeepAliveConfig) Enabled() bool {
	return c.ExternalURL != ""
}

// =============================================================================
// SIMULATION TUNING
// =============================================================================

// TuningConfig holds the numeric constants called out as
// historically-adjusted knobs rather than fixed truths (§3, §4.3, §9).
type TuningConfig struct {
	// TickHz is the monster simulator cadence. SpeedMultiplier is derived
	// from it so patrol/chase speeds stay consistent if TickHz changes.
	TickHz int

	// PlayerTimeout is the inactivity ceiling enforced by the 10s sweeper.
	PlayerTimeout time.Duration

	// Rate limiter caps, one bucket per action per player per second.
	AttackCapPerSecond   int
	PickupCapPerSecond   int
	PositionCapPerSecond int

	// EliteCheckMinInterval/MaxInterval bound the randomized promoter timer.
	EliteCheckMinInterval time.Duration
	EliteCheckMaxInterval time.Duration

	// PresenceSweepInterval is how often inactive players are purged.
	PresenceSweepInterval time.Duration
}

// DefaultTuning returns the default simulation tuning.
func DefaultTuning() TuningConfig {
	return TuningConfig{
		TickHz:                20,
		PlayerTimeout:         30 * time.Second,
		AttackCapPerSecond:    10,
		PickupCapPerSecond:    20,
		PositionCapPerSecond:  30,
		EliteCheckMinInterval: 2 * time.Minute,
		EliteCheckMaxInterval: 7 * time.Minute,
		PresenceSweepInterval: 10 * time.Second,
	}
}

// TuningFromEnv layers environment overrides onto DefaultTuning.
func TuningFromEnv() TuningConfig {
	cfg := DefaultTuning()
	if hz := getEnvInt("TICK_HZ", 0); hz > 0 {
		cfg.TickHz = hz
	}
	if secs := getEnvInt("PLAYER_TIMEOUT_SECONDS", 0); secs > 0 {
		cfg.PlayerTimeout = time.Duration(secs) * time.Second
	}
	return cfg
}

// SpeedMultiplier reconciles the monster simulator's tick rate with the
// 60Hz/0.7-local-speed client integration the constant was derived for
// (§9 "Speed-multiplier coupling"): 4.2 == 60*0.7/10.
func (c TuningConfig) SpeedMultiplier() float64 {
	if c.TickHz <= 0 {
		return 4.2
	}
	return 4.2 * 10.0 / float64(c.TickHz)
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server    ServerConfig
	GM        GMConfig
	Debug     DebugConfig
	KeepAlive KeepAliveConfig
	Tuning    TuningConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server:    ServerFromEnv(),
		GM:        GMFromEnv(),
		Debug:     DebugFromEnv(),
		KeepAlive: KeepAliveFromEnv(),
		Tuning:    TuningFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
