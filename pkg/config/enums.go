package config

// Environment identifies the deployment environment
type Environment string

const (
	// EnvDevelopment relaxes gates (mock streams, verbose logging)
	EnvDevelopment Environment = "development"
	// EnvProduction enables rate limiting by default and locks mock surfaces
	EnvProduction Environment = "production"
)

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	return e == EnvDevelopment || e == EnvProduction
}

// AskMode defines the default orchestration mode for ask requests
type AskMode string

const (
	// AskModeGrounded retrieves context and generates, no tool execution
	AskModeGrounded AskMode = "grounded"
	// AskModeExecute plans and executes a tool chain, then summarizes
	AskModeExecute AskMode = "execute"
)

// IsValid checks if the ask mode is valid
func (m AskMode) IsValid() bool {
	return m == AskModeGrounded || m == AskModeExecute
}
