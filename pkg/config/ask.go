package config

import "time"

// Ask pipeline defaults.
const (
	DefaultSearchQueryLimit = 10
	DefaultAskQueueLimit    = 12

	DefaultPlanTimeout     = 60 * time.Second
	DefaultExecuteTimeout  = 120 * time.Second
	DefaultContextTimeout  = 2 * time.Second
	DefaultGenerateTimeout = 120 * time.Second

	// DefaultActivationTimeout is the longer ceiling for async diagnostics
	// activation.
	DefaultActivationTimeout = 60 * time.Second
)

// AskConfig controls the ask orchestrator.
type AskConfig struct {
	// Mode is the default orchestration mode when a request omits one.
	Mode AskMode

	// QueueLimit bounds the FIFO of pending questions; overflow is
	// rejected, never dropped silently.
	QueueLimit int

	// SearchQueryLimit caps derived lattice search queries per run.
	SearchQueryLimit int

	// SearchFallback enables lattice search when the planner yields no
	// knowledge context.
	SearchFallback bool

	// Budgets are the context assembly budgets.
	Budgets Budgets

	// Per-stage timeouts.
	PlanTimeout     time.Duration
	ExecuteTimeout  time.Duration
	ContextTimeout  time.Duration
	GenerateTimeout time.Duration
}

// DefaultAskConfig returns the built-in orchestrator defaults.
func DefaultAskConfig() *AskConfig {
	return &AskConfig{
		Mode:             AskModeGrounded,
		QueueLimit:       DefaultAskQueueLimit,
		SearchQueryLimit: DefaultSearchQueryLimit,
		SearchFallback:   true,
		Budgets:          DefaultBudgets(),
		PlanTimeout:      DefaultPlanTimeout,
		ExecuteTimeout:   DefaultExecuteTimeout,
		ContextTimeout:   DefaultContextTimeout,
		GenerateTimeout:  DefaultGenerateTimeout,
	}
}

// Normalize applies defaults to unset fields.
func (c *AskConfig) Normalize() {
	if !c.Mode.IsValid() {
		c.Mode = AskModeGrounded
	}
	if c.QueueLimit <= 0 {
		c.QueueLimit = DefaultAskQueueLimit
	}
	if c.SearchQueryLimit <= 0 {
		c.SearchQueryLimit = DefaultSearchQueryLimit
	}
	c.Budgets.Normalize()
	if c.PlanTimeout <= 0 {
		c.PlanTimeout = DefaultPlanTimeout
	}
	if c.ExecuteTimeout <= 0 {
		c.ExecuteTimeout = DefaultExecuteTimeout
	}
	if c.ContextTimeout <= 0 {
		c.ContextTimeout = DefaultContextTimeout
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = DefaultGenerateTimeout
	}
}
