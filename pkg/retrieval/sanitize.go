package retrieval

import (
	"regexp"
	"strings"
)

// Generation output markers. The instruction block asks for FINAL:; some
// model checkpoints emit the bracket markers instead.
const (
	answerStartMarker = "ANSWER_START"
	answerEndMarker   = "ANSWER_END"
	finalMarker       = "FINAL:"
)

var (
	trailingStageTagRe = regexp.MustCompile(`\s*\((` + stageTagNames + `)\)[\s.]*$`)
	blankRunRe         = regexp.MustCompile(`\n{3,}`)
)

// CleanAnswer strips prompt scaffolding from raw model output: extracts
// the marked answer region, drops echoed question and instruction lines,
// and removes stage tags when the format did not ask for them. Returns
// the empty string when nothing survives.
func CleanAnswer(raw, question string, format AnswerFormat) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = extractAnswerRegion(s)

	normQuestion := NormalizeQuestion(question)
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Question:") {
			continue
		}
		if normQuestion != "" && NormalizeQuestion(trimmed) == normQuestion {
			continue
		}
		if isScaffoldLine(trimmed) {
			continue
		}
		if !format.StageTags {
			line = trailingStageTagRe.ReplaceAllString(line, "")
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}

	out := strings.Join(kept, "\n")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// extractAnswerRegion returns the marked answer region: the span between
// ANSWER_START and ANSWER_END when present, otherwise everything after
// the last FINAL:.
func extractAnswerRegion(s string) string {
	if start := strings.Index(s, answerStartMarker); start >= 0 {
		rest := s[start+len(answerStartMarker):]
		if end := strings.Index(rest, answerEndMarker); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	if idx := strings.LastIndex(s, finalMarker); idx >= 0 {
		return s[idx+len(finalMarker):]
	}
	return s
}

func isScaffoldLine(trimmed string) bool {
	for _, prefix := range scaffoldPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
