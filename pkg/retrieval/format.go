package retrieval

import (
	"regexp"
	"strings"
)

// Answer format kinds.
const (
	FormatSteps   = "steps"
	FormatCompare = "compare"
	FormatBrief   = "brief"
)

// AnswerFormat is the shape the instruction block asks the model for.
type AnswerFormat struct {
	Kind      string `json:"kind"`                // steps, compare, brief
	StageTags bool   `json:"stageTags,omitempty"` // steps tagged (observe|hypothesis|...)
}

// Format triggers, checked in order: methodology questions get tagged
// steps, step-intent questions get plain steps, comparative questions get
// a comparison, everything else a brief answer.
var (
	methodRe  = regexp.MustCompile(`scientific method|methodology|method`)
	stepsRe   = regexp.MustCompile(`\bsteps?\b|\bstages?\b|\bprocedure\b|\bprocess\b|\bpipeline\b|\bworkflow\b|walk me through|walkthrough|\bhow (do|to|would|can|should)\b`)
	compareRe = regexp.MustCompile(`\bcompare\b|\bversus\b|\bvs\b|\bdifference\b|\bbetter\b|\bworse\b|\badvantages\b|what is\b|what's\b|why is\b|how is\b`)
)

// stageTagNames are the tags requested for methodology answers and
// stripped from every other answer.
const stageTagNames = `observe|hypothesis|experiment|analysis|explain`

// DecideFormat classifies the question into an answer format. Triggers
// match the raw lowercase text; the first trigger wins.
func DecideFormat(question string) AnswerFormat {
	q := strings.ToLower(question)
	switch {
	case methodRe.MatchString(q):
		return AnswerFormat{Kind: FormatSteps, StageTags: true}
	case stepsRe.MatchString(q):
		return AnswerFormat{Kind: FormatSteps}
	case compareRe.MatchString(q):
		return AnswerFormat{Kind: FormatCompare}
	default:
		return AnswerFormat{Kind: FormatBrief}
	}
}

// System prompts. The intent decision selects one: repo-grounded
// questions answer from the assembled evidence, everything else from
// general knowledge.
const (
	SystemPromptGrounded = "You are Helix, answering questions about this repository. " +
		"Ground every claim in the evidence sections of the prompt and cite nothing else."
	SystemPromptGeneral = "You are Helix. Answer from general knowledge, briefly and directly."
)

// scaffoldPrefixes open the instruction lines the model tends to echo.
// The sanitizer drops any output line starting with one of these.
var scaffoldPrefixes = []string{
	"Use only the evidence",
	"Answer in",
	"Answer with",
	"Do not include stage tags",
	"Tag each step",
	"End your answer",
	"Evidence:",
}

// InstructionBlock renders the fixed instruction section for a format.
// Every prompt ends with the FINAL: contract so the sanitizer has a
// reliable extraction anchor.
func InstructionBlock(format AnswerFormat) string {
	out := "Use only the evidence above. Do not invent file names or APIs.\n"
	switch {
	case format.Kind == FormatSteps && format.StageTags:
		out += "Answer in 3-6 concise steps. Tag each step with one of (" + stageTagNames + ").\n"
	case format.Kind == FormatSteps:
		out += "Answer in 3-6 concise steps. Do not include stage tags.\n"
	case format.Kind == FormatCompare:
		out += "Answer with a short comparison: contrast the options point by point, then give a one-line verdict.\n"
	default:
		out += "Answer in 2-4 plain sentences.\n"
	}
	out += "End your answer with a single line starting with FINAL: that states the answer."
	return out
}
