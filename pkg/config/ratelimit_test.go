package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRateLimitConfigPerEnvironment(t *testing.T) {
	dev := DefaultRateLimitConfig(EnvDevelopment)
	assert.False(t, dev.Enabled)

	prod := DefaultRateLimitConfig(EnvProduction)
	assert.True(t, prod.Enabled)
	assert.Equal(t, DefaultAPIRateMax, prod.APIMax)
	assert.Equal(t, DefaultAskJobsMax, prod.AskJobsMax)
	assert.Equal(t, 60*time.Second, prod.Window)
}

func TestRateLimitNormalize(t *testing.T) {
	c := &RateLimitConfig{Window: 100 * time.Millisecond, ConcurrencyMax: -2}
	c.Normalize()

	assert.Equal(t, time.Second, c.Window)
	assert.Equal(t, DefaultConcurrencyMax, c.ConcurrencyMax)

	// Values above the floor pass through untouched.
	c2 := &RateLimitConfig{Window: 30 * time.Second, ConcurrencyMax: 8}
	c2.Normalize()
	assert.Equal(t, 30*time.Second, c2.Window)
	assert.Equal(t, 8, c2.ConcurrencyMax)
}
