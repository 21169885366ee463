package models

// PromptSection is one titled block of the assembled prompt.
type PromptSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PromptPlan is the output of context assembly: ordered sections that fit
// the token budget, a stable citation list, and the unspent budget.
type PromptPlan struct {
	Sections        []PromptSection `json:"sections"`
	Sources         []string        `json:"sources"` // "resonance: <path>" then "search: <path>", deduped, capped
	RemainingTokens int             `json:"remainingTokens"`
}

// Text renders the prompt sections in order, separated by blank lines.
func (p *PromptPlan) Text() string {
	out := ""
	for i, s := range p.Sections {
		if i > 0 {
			out += "\n\n"
		}
		if s.Title != "" {
			out += s.Title + "\n"
		}
		out += s.Body
	}
	return out
}
