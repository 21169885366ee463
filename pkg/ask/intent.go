package ask

import "regexp"

// Intent labels carried on interpret events and debug payloads.
const (
	intentGrounded = "grounded"
	intentGeneral  = "general"
)

// Repo-grounded triggers. Any match routes the question through
// retrieval with the grounded system prompt; no match answers from
// general knowledge without touching the lattice.
var groundedRes = []*regexp.Regexp{
	// source file references
	regexp.MustCompile(`(?i)\.(ts|tsx|js|jsx|go|py|rs|md|json|ya?ml|css|html|sql)\b`),
	// repository vocabulary
	regexp.MustCompile(`(?i)\b(repo|repository|codebase|modules?|packages?|files?|folders?|director(y|ies)|paths?|imports?)\b`),
	// system vocabulary
	regexp.MustCompile(`(?i)\b(servers?|clients?|backend|frontend|routes?|endpoints?|api|handlers?|components?|hooks?|stores?|sessions?|traces?|adapters?|skills?|pipelines?|bus|schemas?)\b`),
	// product vocabulary
	regexp.MustCompile(`(?i)\b(helix|resonance|lattice|patch|desktop|pill|diagnostics|agi)\b`),
	// physics module vocabulary
	regexp.MustCompile(`(?i)\b(warp|bubble|alcubierre|natario|sdf|solver|geometry|metric|theta|curvature|energy)\b`),
}

// isRepoGrounded reports whether the question targets this repository
// or its domain modules rather than general knowledge.
func isRepoGrounded(question string) bool {
	for _, re := range groundedRes {
		if re.MatchString(question) {
			return true
		}
	}
	return false
}
