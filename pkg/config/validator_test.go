package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration that passes validation; tests
// break one field at a time.
func validConfig() *Config {
	ask := DefaultAskConfig()
	ask.Normalize()
	return &Config{
		Server: &ServerConfig{Port: 8787, Env: EnvDevelopment},
		Ask:    ask,
		PackRegistry: NewPackRegistry(map[string]*ConstraintPack{
			"p": {ID: "p", Checks: []ConstraintCheck{
				{Key: "m.v", Op: OpLE, Threshold: 1, Severity: SeverityHard},
			}},
		}),
	}
}

func TestValidateAllPasses(t *testing.T) {
	require.NoError(t, NewValidator(validConfig()).ValidateAll())
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "port 0 out of range",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Server.Port = 75000 },
			wantErr: "port 75000 out of range",
		},
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.Server.Env = Environment("staging") },
			wantErr: "invalid environment: staging",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := NewValidator(cfg).ValidateAll()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "server validation failed")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAsk(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Ask.Mode = AskMode("turbo") },
			wantErr: "invalid mode: turbo",
		},
		{
			name:    "context files escaped clamp",
			mutate:  func(c *Config) { c.Ask.Budgets.ContextFiles = 500 },
			wantErr: "escaped clamp",
		},
		{
			name:    "patch files escaped clamp",
			mutate:  func(c *Config) { c.Ask.Budgets.PatchFiles = 0 },
			wantErr: "escaped clamp",
		},
		{
			name:    "context chars escaped clamp",
			mutate:  func(c *Config) { c.Ask.Budgets.ContextChars = 7 },
			wantErr: "escaped clamp",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := NewValidator(cfg).ValidateAll()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "ask validation failed")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidatePacks(t *testing.T) {
	tests := []struct {
		name    string
		pack    *ConstraintPack
		wantErr string
	}{
		{
			name:    "no checks",
			pack:    &ConstraintPack{ID: "p"},
			wantErr: "at least one check required",
		},
		{
			name: "missing key",
			pack: &ConstraintPack{ID: "p", Checks: []ConstraintCheck{
				{Op: OpLE, Threshold: 1, Severity: SeverityHard},
			}},
			wantErr: "missing key",
		},
		{
			name: "invalid op",
			pack: &ConstraintPack{ID: "p", Checks: []ConstraintCheck{
				{Key: "m.v", Op: "=>", Threshold: 1, Severity: SeverityHard},
			}},
			wantErr: "invalid op: =>",
		},
		{
			name: "invalid severity",
			pack: &ConstraintPack{ID: "p", Checks: []ConstraintCheck{
				{Key: "m.v", Op: OpLE, Threshold: 1, Severity: "FATAL"},
			}},
			wantErr: "invalid severity: FATAL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.PackRegistry = NewPackRegistry(map[string]*ConstraintPack{tt.pack.ID: tt.pack})
			err := NewValidator(cfg).ValidateAll()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "constraint pack validation failed")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateStopsAtFirstError(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = -1
	cfg.Ask.Mode = AskMode("turbo")

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server validation failed")
	assert.NotContains(t, err.Error(), "ask validation failed")
}
