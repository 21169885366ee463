package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetsNormalizeDefaults(t *testing.T) {
	var b Budgets
	b.Normalize()

	assert.Equal(t, DefaultContextTokens, b.ContextTokens)
	assert.Equal(t, DefaultContextTokens/2, b.OutputTokens)
	assert.Equal(t, DefaultContextFiles, b.ContextFiles)
	assert.Equal(t, DefaultPatchFiles, b.PatchFiles)
	assert.Equal(t, DefaultContextChars, b.ContextChars)
}

func TestBudgetsNormalizeClamps(t *testing.T) {
	b := Budgets{
		ContextTokens: 8192,
		ContextFiles:  1000,
		PatchFiles:    1,
		ContextChars:  50,
	}
	b.Normalize()

	assert.Equal(t, MaxContextFiles, b.ContextFiles)
	assert.Equal(t, MinPatchFiles, b.PatchFiles)
	assert.Equal(t, MinContextChars, b.ContextChars)
}

func TestBudgetsOutputDerivation(t *testing.T) {
	// Output defaults to half the context, capped at 2048.
	small := Budgets{ContextTokens: 1000}
	small.Normalize()
	assert.Equal(t, 500, small.OutputTokens)

	large := Budgets{ContextTokens: 16384}
	large.Normalize()
	assert.Equal(t, 2048, large.OutputTokens)

	explicit := Budgets{ContextTokens: 4096, OutputTokens: 300}
	explicit.Normalize()
	assert.Equal(t, 300, explicit.OutputTokens)
}

func TestPromptBudget(t *testing.T) {
	b := Budgets{ContextTokens: 4096, OutputTokens: 1024}
	b.Normalize()
	assert.Equal(t, 4096-1024-128, b.PromptBudget())

	// Tiny contexts never push the prompt budget below its floor.
	tiny := Budgets{ContextTokens: 300, OutputTokens: 280}
	tiny.Normalize()
	assert.Equal(t, MinPromptBudget, tiny.PromptBudget())
}

func TestReducedPromptBudget(t *testing.T) {
	b := Budgets{ContextTokens: 4096, OutputTokens: 1024}
	b.Normalize()
	assert.Equal(t, b.PromptBudget()*6/10, b.ReducedPromptBudget())

	tiny := Budgets{ContextTokens: 300, OutputTokens: 280}
	tiny.Normalize()
	assert.Equal(t, MinPromptBudget, tiny.ReducedPromptBudget())
}
