package config

import "fmt"

// ConfigValidator validates configuration comprehensively with clear error messages
type ConfigValidator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *ConfigValidator {
	return &ConfigValidator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error)
func (v *ConfigValidator) ValidateAll() error {
	if err := v.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}

	if err := v.validateAsk(); err != nil {
		return fmt.Errorf("ask validation failed: %w", err)
	}

	if err := v.validatePacks(); err != nil {
		return fmt.Errorf("constraint pack validation failed: %w", err)
	}

	return nil
}

func (v *ConfigValidator) validateServer() error {
	s := v.cfg.Server
	if s.Port < 1 || s.Port > 65535 {
		return NewValidationError("server", "http", "port", fmt.Errorf("port %d out of range", s.Port))
	}
	if !s.Env.IsValid() {
		return NewValidationError("server", "http", "env", fmt.Errorf("invalid environment: %s", s.Env))
	}
	return nil
}

func (v *ConfigValidator) validateAsk() error {
	a := v.cfg.Ask
	if !a.Mode.IsValid() {
		return NewValidationError("ask", "orchestrator", "mode", fmt.Errorf("invalid mode: %s", a.Mode))
	}
	// Budgets are normalized at load; a violated clamp here means a
	// programming error, not bad input.
	b := a.Budgets
	if b.ContextFiles < MinContextFiles || b.ContextFiles > MaxContextFiles {
		return NewValidationError("ask", "budgets", "context_files", fmt.Errorf("value %d escaped clamp", b.ContextFiles))
	}
	if b.PatchFiles < MinPatchFiles || b.PatchFiles > MaxPatchFiles {
		return NewValidationError("ask", "budgets", "patch_files", fmt.Errorf("value %d escaped clamp", b.PatchFiles))
	}
	if b.ContextChars < MinContextChars || b.ContextChars > MaxContextChars {
		return NewValidationError("ask", "budgets", "context_chars", fmt.Errorf("value %d escaped clamp", b.ContextChars))
	}
	if b.PromptBudget() < MinPromptBudget {
		return NewValidationError("ask", "budgets", "prompt_budget", fmt.Errorf("budget below floor"))
	}
	return nil
}

func (v *ConfigValidator) validatePacks() error {
	for _, id := range v.cfg.PackRegistry.IDs() {
		pack, _ := v.cfg.PackRegistry.Get(id)
		if len(pack.Checks) == 0 {
			return NewValidationError("pack", id, "checks", fmt.Errorf("at least one check required"))
		}
		for i, check := range pack.Checks {
			field := fmt.Sprintf("checks[%d]", i)
			if check.Key == "" {
				return NewValidationError("pack", id, field, fmt.Errorf("missing key"))
			}
			if !check.IsValidOp() {
				return NewValidationError("pack", id, field, fmt.Errorf("invalid op: %s", check.Op))
			}
			if check.Severity != SeverityHard && check.Severity != SeveritySoft {
				return NewValidationError("pack", id, field, fmt.Errorf("invalid severity: %s", check.Severity))
			}
		}
	}
	return nil
}
