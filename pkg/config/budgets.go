package config

// Token budget defaults and bounds for context assembly.
const (
	DefaultContextTokens = 2048
	DefaultContextFiles  = 48
	DefaultPatchFiles    = 12
	DefaultContextChars  = 2400

	MinContextFiles = 2
	MaxContextFiles = 48
	MinPatchFiles   = 2
	MaxPatchFiles   = 24
	MinContextChars = 120
	MaxContextChars = 2400

	// MinPromptBudget is the floor under which the prompt budget never drops,
	// including overflow-retry reductions.
	MinPromptBudget = 256

	// promptOverhead reserves tokens for the instruction block and framing.
	promptOverhead = 128
)

// Budgets controls how much context the ask pipeline may assemble.
// Zero values are replaced by defaults and all fields are clamped to their
// documented bounds, so a Budgets from any source is safe to use directly.
type Budgets struct {
	ContextTokens int `yaml:"context_tokens"` // total model context estimate
	OutputTokens  int `yaml:"output_tokens"`  // reserved for the generated answer
	ContextFiles  int `yaml:"context_files"`  // knowledge files considered, clamped [2,48]
	PatchFiles    int `yaml:"patch_files"`    // resonance patch files, clamped [2,24]
	ContextChars  int `yaml:"context_chars"`  // preview clip length, clamped [120,2400]
}

// DefaultBudgets returns the built-in budget defaults.
func DefaultBudgets() Budgets {
	b := Budgets{ContextTokens: DefaultContextTokens}
	b.Normalize()
	return b
}

// Normalize applies defaults, derivations, and clamps in place.
func (b *Budgets) Normalize() {
	if b.ContextTokens <= 0 {
		b.ContextTokens = DefaultContextTokens
	}
	if b.OutputTokens <= 0 {
		b.OutputTokens = min(2048, b.ContextTokens/2)
	}
	if b.ContextFiles == 0 {
		b.ContextFiles = DefaultContextFiles
	}
	if b.PatchFiles == 0 {
		b.PatchFiles = DefaultPatchFiles
	}
	if b.ContextChars == 0 {
		b.ContextChars = DefaultContextChars
	}
	b.ContextFiles = clampInt(b.ContextFiles, MinContextFiles, MaxContextFiles)
	b.PatchFiles = clampInt(b.PatchFiles, MinPatchFiles, MaxPatchFiles)
	b.ContextChars = clampInt(b.ContextChars, MinContextChars, MaxContextChars)
}

// PromptBudget returns the token budget available for the assembled prompt:
// max(256, context - output - overhead).
func (b Budgets) PromptBudget() int {
	budget := b.ContextTokens - b.OutputTokens - promptOverhead
	if budget < MinPromptBudget {
		return MinPromptBudget
	}
	return budget
}

// ReducedPromptBudget returns the budget for the single overflow retry:
// max(256, floor(0.6 * PromptBudget)).
func (b Budgets) ReducedPromptBudget() int {
	reduced := b.PromptBudget() * 6 / 10
	if reduced < MinPromptBudget {
		return MinPromptBudget
	}
	return reduced
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
