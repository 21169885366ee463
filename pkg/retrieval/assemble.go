// Package retrieval turns a question plus retrieval candidates into a
// token-budgeted prompt with a stable citation list.
//
// The pipeline is deterministic end to end: query derivation, patch and
// file scoring, section assembly, and citation order depend only on the
// inputs and the configured budgets. No map iteration order leaks into
// any output.
package retrieval

import (
	"fmt"
	"strings"

	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/models"
)

// maxSources caps the citation list.
const maxSources = 12

// sectionJoiner matches the separator models.PromptPlan.Text renders
// between sections.
const sectionJoiner = "\n\n"

// Section titles.
const (
	resonanceTitle = "Resonance patch:"
	knowledgeTitle = "Knowledge projects:"
)

// Citation labels.
const (
	sourceResonance = "resonance: "
	sourceSearch    = "search: "
)

// Assembler builds prompts within the configured budgets. Stateless and
// thread-safe; all request state comes from parameters.
type Assembler struct {
	budgets config.Budgets
}

// NewAssembler creates an Assembler. Budgets are normalized once here so
// every Build call works with clamped values.
func NewAssembler(budgets config.Budgets) *Assembler {
	budgets.Normalize()
	return &Assembler{budgets: budgets}
}

// Budgets returns the normalized budgets the assembler operates under.
func (a *Assembler) Budgets() config.Budgets { return a.budgets }

// Input carries everything one assembly may draw from.
type Input struct {
	Question     string
	Resonance    *models.ResonanceBundle // optional pre-computed patches
	Knowledge    []models.KnowledgeFile  // merged knowledge/search candidates, caller order
	RequireMatch bool                    // knowledge files must score > 0
	PromptBudget int                     // tokens; 0 means the configured budget
}

// Result is one assembled prompt plus the signals the orchestrator
// surfaces in debug payloads.
type Result struct {
	Plan          *models.PromptPlan
	Format        AnswerFormat
	Tokens        []string // derived query tokens
	WarpFocus     bool
	PatchID       string // selected resonance patch, if any
	PatchScore    int
	FileCount     int      // evidence files rendered into the prompt
	SelectedPaths []string // rendered file paths, patch files first
}

// Build assembles the prompt. Sections are appended in fixed order
// (question, resonance patch, knowledge files, instruction block) and
// each evidence section is trimmed at a character boundary when the
// remaining budget cannot hold it whole. The question and instruction
// block are budgeted first so they survive even minimal budgets. Fitting
// is tracked in bytes against budget*4, which keeps the token estimate
// of the rendered prompt within the budget exactly.
func (a *Assembler) Build(in Input) *Result {
	tokens := QueryTokens(in.Question)
	warp := hasWarpFocus(tokens)
	format := DecideFormat(in.Question)

	budget := in.PromptBudget
	if budget <= 0 {
		budget = a.budgets.PromptBudget()
	}

	question := "Question: " + strings.TrimSpace(in.Question)
	instruction := InstructionBlock(format)
	remainingBytes := budget*4 - len(question) - len(instruction) - len(sectionJoiner)
	if remainingBytes < 0 {
		remainingBytes = 0
	}

	res := &Result{
		Format:    format,
		Tokens:    tokens,
		WarpFocus: warp,
	}
	plan := &models.PromptPlan{}
	plan.Sections = append(plan.Sections, models.PromptSection{Body: question})

	appendSection := func(title, body string) bool {
		overhead := 0
		if len(plan.Sections) > 0 {
			overhead += len(sectionJoiner)
		}
		if title != "" {
			overhead += len(title) + 1 // trailing newline after the title
		}
		if remainingBytes <= overhead {
			return false
		}
		if len(body) > remainingBytes-overhead {
			body = clipRunes(body, remainingBytes-overhead)
			if body == "" {
				return false
			}
		}
		plan.Sections = append(plan.Sections, models.PromptSection{Title: title, Body: body})
		remainingBytes -= overhead + len(body)
		return true
	}

	// Resonance section.
	patch, patchScore := SelectPatch(in.Resonance, tokens)
	var patchFiles []models.ResonanceFile
	if patch != nil {
		res.PatchID = patch.ID
		res.PatchScore = patchScore

		patchFiles = patch.Knowledge.Files
		if len(patchFiles) > a.budgets.PatchFiles {
			patchFiles = patchFiles[:a.budgets.PatchFiles]
		}
		if appendSection(resonanceTitle, a.renderPatchSection(patch, patchFiles)) {
			res.FileCount += len(patchFiles)
		} else {
			patchFiles = nil // not rendered, so not counted or cited
		}
	}

	// Knowledge section. The file slots left over after the patch section
	// go to scored knowledge and search candidates.
	var searchPaths []string
	slots := a.budgets.ContextFiles - len(patchFiles)
	if slots > 0 && len(in.Knowledge) > 0 {
		candidates := make([]Candidate, len(in.Knowledge))
		for i, f := range in.Knowledge {
			candidates[i] = Candidate{Path: f.Path, Name: f.Name, Preview: f.Preview}
		}
		selected := SelectFiles(candidates, tokens, warp, slots, in.RequireMatch)
		if len(selected) > 0 && appendSection(knowledgeTitle, a.renderFileList(selected)) {
			res.FileCount += len(selected)
			searchPaths = candidatePaths(selected)
		}
	}

	// Instruction block always closes the prompt.
	plan.Sections = append(plan.Sections, models.PromptSection{Body: instruction})

	res.SelectedPaths = append(resonancePaths(patchFiles), searchPaths...)
	plan.Sources = buildSources(resonancePaths(patchFiles), searchPaths)
	plan.RemainingTokens = remainingBytes / 4
	res.Plan = plan
	return res
}

// buildSources labels and merges citation paths, resonance first, skipping
// paths already cited and stopping at the cap.
func buildSources(resonance, search []string) []string {
	seen := make(map[string]struct{}, len(resonance)+len(search))
	var out []string
	add := func(label, path string) {
		if len(out) >= maxSources || path == "" {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		out = append(out, label+path)
	}
	for _, p := range resonance {
		add(sourceResonance, p)
	}
	for _, p := range search {
		add(sourceSearch, p)
	}
	return out
}

func (a *Assembler) renderPatchSection(patch *models.ResonancePatch, files []models.ResonanceFile) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(patch.Summary))
	for i, f := range files {
		sb.WriteString(fmt.Sprintf("\n(%d) %s\n", i+1, f.Path))
		sb.WriteString(clipRunes(f.Preview, a.budgets.ContextChars))
	}
	return sb.String()
}

func (a *Assembler) renderFileList(files []Candidate) string {
	var sb strings.Builder
	for i, f := range files {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("(%d) %s\n", i+1, f.Path))
		sb.WriteString(clipRunes(f.Preview, a.budgets.ContextChars))
	}
	return sb.String()
}

func resonancePaths(files []models.ResonanceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func candidatePaths(files []Candidate) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
