package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// PacksYAMLConfig represents the optional helix.yaml file structure.
// Only constraint packs are file-configurable; everything else is
// environment-driven.
type PacksYAMLConfig struct {
	ConstraintPacks map[string]*ConstraintPack `yaml:"constraint_packs"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Resolve all settings from the environment
//  2. Load the optional packs file (HELIX_PACKS_FILE, default helix.yaml)
//  3. Expand environment variables in the packs file
//  4. Merge built-in + user-defined packs
//  5. Apply defaults and clamps
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(ctx context.Context) (*Config, error) {
	cfg, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	slog.Info("Configuration initialized successfully",
		"env", string(cfg.Server.Env),
		"packs", stats.Packs,
		"rate_limited", stats.RateLimited,
		"execute_enabled", stats.ExecuteEnabled,
		"durable_store", stats.DurableStore)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context) (*Config, error) {
	env := Environment(envString(EnvHelixEnv, string(EnvDevelopment)))
	if !env.IsValid() {
		slog.Warn("Unknown HELIX_ENV, falling back to development", "value", string(env))
		env = EnvDevelopment
	}

	server := &ServerConfig{
		Port:            envInt(EnvHTTPPort, 8787),
		Env:             env,
		ShutdownTimeout: 15 * time.Second,
	}

	rl := DefaultRateLimitConfig(env)
	rl.Enabled = envBool(EnvRateLimitEnabled, rl.Enabled)
	rl.Window = envMillis(EnvRateWindowMs, rl.Window)
	rl.APIMax = envInt(EnvRateAPIMax, rl.APIMax)
	rl.AskJobsMax = envInt(EnvRateAskJobsMax, rl.AskJobsMax)
	rl.ConcurrencyMax = envInt(EnvAskConcurrencyMax, rl.ConcurrencyMax)
	rl.Normalize()

	ask := DefaultAskConfig()
	ask.Mode = AskMode(envString(EnvAskMode, string(ask.Mode)))
	ask.QueueLimit = envInt(EnvAskQueueLimit, ask.QueueLimit)
	ask.SearchQueryLimit = envInt(EnvAskSearchQueryLimit, ask.SearchQueryLimit)
	ask.SearchFallback = envBool(EnvAskSearchFallback, ask.SearchFallback)
	ask.Budgets = Budgets{
		ContextTokens: envInt(EnvAskContextTokens, 0),
		OutputTokens:  envInt(EnvAskOutputTokens, 0),
		ContextFiles:  envInt(EnvAskContextFiles, 0),
		PatchFiles:    envInt(EnvAskPatchFiles, 0),
		ContextChars:  envInt(EnvAskContextChars, 0),
	}
	ask.Normalize()

	gates := &Gates{
		EnableAGI:       envBool(EnvEnableAGI, true),
		EnableAGIAuth:   envBool(EnvEnableAGIAuth, false),
		EnableTraceAPI:  envBool(EnvEnableTraceAPI, false),
		EnableEssence:   envBool(EnvEnableEssence, false),
		AllowMockStream: envBool(EnvAllowMockStream, false),
	}

	bus := DefaultBusConfig()
	bus.Normalize()

	store := &StoreConfig{
		DatabaseURL:   envString(EnvSessionsDatabaseURL, ""),
		RetentionDays: envInt(EnvRetentionDays, 0),
	}

	generator := &GeneratorConfig{
		BaseURL:  envString(EnvLLMLocalURL, "http://127.0.0.1:8080/v1"),
		Model:    envString(EnvLLMLocalModel, "helix-local"),
		MaxRPS:   envFloat(EnvLLMMaxRPS, 0),
		MaxBurst: 1,
	}

	lattice := &LatticeConfig{
		PlannerURL:  envString(EnvPlannerURL, ""),
		ExecutorURL: envString(EnvExecutorURL, ""),
		SearchURL:   envString(EnvLatticeSearchURL, ""),
		ReportsDir:  envString(EnvReportsDir, "reports"),
	}

	retention := DefaultRetentionConfig()
	retention.RetentionDays = store.RetentionDays
	retention.Normalize()

	packs, err := loadPacks(envString(EnvPacksFile, "helix.yaml"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:       server,
		RateLimit:    rl,
		Ask:          ask,
		Gates:        gates,
		Bus:          bus,
		Store:        store,
		Generator:    generator,
		Lattice:      lattice,
		Retention:    retention,
		PackRegistry: NewPackRegistry(packs),
	}, nil
}

// loadPacks merges the optional packs file over the built-in constraint
// packs. A missing file is not an error; the built-ins always apply.
func loadPacks(path string) (map[string]*ConstraintPack, error) {
	merged := make(map[string]*ConstraintPack, len(GetBuiltinPacks()))
	for id, p := range GetBuiltinPacks() {
		cp := *p
		cp.Checks = append([]ConstraintCheck(nil), p.Checks...)
		merged[id] = &cp
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return merged, nil
		}
		return nil, NewLoadError(path, err)
	}

	// Expand environment variables using {{.VAR}} template syntax before
	// parsing, so thresholds can come from the deployment.
	data = ExpandEnv(data)

	var fileCfg PacksYAMLConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	for id, userPack := range fileCfg.ConstraintPacks {
		if userPack == nil {
			continue
		}
		if userPack.ID == "" {
			userPack.ID = id
		}
		if base, ok := merged[id]; ok {
			// User checks replace built-in checks wholesale; merging
			// per-check would make thresholds ambiguous.
			if err := mergo.Merge(base, userPack, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("failed to merge constraint pack %q: %w", id, err)
			}
			if len(userPack.Checks) > 0 {
				base.Checks = userPack.Checks
			}
		} else {
			merged[id] = userPack
		}
	}

	return merged, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}
