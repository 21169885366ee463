package config

import "time"

// RetentionConfig controls data retention and cleanup behavior.
type RetentionConfig struct {
	// RetentionDays is how many days to keep sessions and trace rows
	// before the sweeper deletes them. Zero keeps everything.
	RetentionDays int `yaml:"retention_days"`

	// SweepInterval is how often the cleanup loop runs.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		RetentionDays: 0,
		SweepInterval: 12 * time.Hour,
	}
}

// Normalize applies defaults to unset fields.
func (c *RetentionConfig) Normalize() {
	if c.SweepInterval <= 0 {
		c.SweepInterval = 12 * time.Hour
	}
}
