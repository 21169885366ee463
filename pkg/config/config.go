package config

// Config is the umbrella configuration object returned by Initialize()
// and used throughout the application. All fields are resolved, clamped,
// and immutable after startup.
type Config struct {
	Server    *ServerConfig
	RateLimit *RateLimitConfig
	Ask       *AskConfig
	Gates     *Gates
	Bus       *BusConfig
	Store     *StoreConfig
	Generator *GeneratorConfig
	Lattice   *LatticeConfig
	Retention *RetentionConfig

	// PackRegistry holds the resolved constraint packs (built-in merged
	// with the optional packs file).
	PackRegistry *PackRegistry
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Server.Env == EnvDevelopment
}

// Stats contains statistics about loaded configuration.
type Stats struct {
	Packs          int
	RateLimited    bool
	ExecuteEnabled bool
	DurableStore   bool
}

// Stats returns configuration statistics for logging.
func (c *Config) Stats() Stats {
	s := Stats{}
	if c.PackRegistry != nil {
		s.Packs = c.PackRegistry.Len()
	}
	if c.RateLimit != nil {
		s.RateLimited = c.RateLimit.Enabled
	}
	if c.Lattice != nil {
		s.ExecuteEnabled = c.Lattice.ExecutorURL != ""
	}
	if c.Store != nil {
		s.DurableStore = c.Store.DatabaseURL != ""
	}
	return s
}

// GetPack retrieves a constraint pack by ID. This is a convenience method
// that wraps PackRegistry.Get().
func (c *Config) GetPack(id string) (*ConstraintPack, bool) {
	return c.PackRegistry.Get(id)
}
