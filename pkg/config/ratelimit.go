package config

import "time"

// Rate limit defaults.
const (
	DefaultRateWindowMs   = 60000
	DefaultAPIRateMax     = 240
	DefaultAskJobsMax     = 1200
	MinRateWindowMs       = 1000
	DefaultConcurrencyMax = 4
)

// RateLimitConfig controls the sliding-window limiter and the per-route
// concurrency guard.
type RateLimitConfig struct {
	// Enabled turns the sliding-window limiter on. Defaults to true in
	// production, false in development.
	Enabled bool

	// Window is the sliding window span. Sub-second values are clamped
	// up to one second.
	Window time.Duration

	// APIMax is the per-key request ceiling for general API routes.
	// Zero disables the limiter for those routes.
	APIMax int

	// AskJobsMax is the per-key ceiling for ask job submissions.
	AskJobsMax int

	// ConcurrencyMax bounds simultaneous in-flight ask runs per route.
	ConcurrencyMax int

	// SkipPaths lists path prefixes that bypass the limiter entirely
	// (event streams are always skipped).
	SkipPaths []string
}

// DefaultRateLimitConfig returns the built-in rate limit defaults for the
// given environment.
func DefaultRateLimitConfig(env Environment) *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:        env == EnvProduction,
		Window:         DefaultRateWindowMs * time.Millisecond,
		APIMax:         DefaultAPIRateMax,
		AskJobsMax:     DefaultAskJobsMax,
		ConcurrencyMax: DefaultConcurrencyMax,
	}
}

// Normalize clamps the window to its floor.
func (c *RateLimitConfig) Normalize() {
	if c.Window < MinRateWindowMs*time.Millisecond {
		c.Window = MinRateWindowMs * time.Millisecond
	}
	if c.ConcurrencyMax <= 0 {
		c.ConcurrencyMax = DefaultConcurrencyMax
	}
}
