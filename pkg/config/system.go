package config

import "time"

// ServerConfig holds resolved HTTP server configuration.
type ServerConfig struct {
	Port            int           // listen port (default: 8787)
	Env             Environment   // development or production
	ShutdownTimeout time.Duration // grace period for in-flight requests on shutdown
}

// StoreConfig holds resolved session/trace store configuration.
type StoreConfig struct {
	DatabaseURL   string // postgres connection string (empty = in-memory store)
	RetentionDays int    // sessions and traces older than this are swept (0 = keep forever)
}

// GeneratorConfig holds resolved local language-model runtime configuration.
type GeneratorConfig struct {
	BaseURL  string  // OpenAI-compatible endpoint (e.g., "http://127.0.0.1:8080/v1")
	Model    string  // model name passed through to the runtime
	MaxRPS   float64 // request pacing toward the runtime (0 = unpaced)
	MaxBurst int     // pacing burst size
}

// LatticeConfig holds resolved external collaborator endpoints.
type LatticeConfig struct {
	PlannerURL  string // plan capability (empty = planning disabled)
	ExecutorURL string // execute capability (empty = execution disabled)
	SearchURL   string // code-lattice search capability (empty = search disabled)
	ReportsDir  string // telemetry auto-collection directory for constraint packs
}

// BusConfig holds resolved tool-log bus sizing.
type BusConfig struct {
	BufferSize int // ring buffer capacity (default: 4096)
	OutboxSize int // per-subscriber outbox bound (default: 256)
}

// Bus sizing defaults.
const (
	DefaultBusBufferSize = 4096
	DefaultBusOutboxSize = 256
)

// DefaultBusConfig returns the built-in bus sizing.
func DefaultBusConfig() *BusConfig {
	return &BusConfig{
		BufferSize: DefaultBusBufferSize,
		OutboxSize: DefaultBusOutboxSize,
	}
}

// Normalize applies defaults to unset fields.
func (c *BusConfig) Normalize() {
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBusBufferSize
	}
	if c.OutboxSize <= 0 {
		c.OutboxSize = DefaultBusOutboxSize
	}
}
