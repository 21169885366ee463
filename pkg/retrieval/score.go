package retrieval

import (
	"sort"
	"strings"

	"github.com/latticelabs/helix/pkg/models"
)

// Scoring weights. Metadata hits are worth less than file-content hits so
// a patch whose files mention the question outranks one that only labels it.
const (
	patchMetaHit = 2
	patchFileHit = 3
	fileTokenHit = 2
)

// pathBoost is one deterministic score adjustment keyed on a lowercase
// path substring.
type pathBoost struct {
	substr string
	score  int
}

// pathBoosts reward the files that answer most ask questions; the
// penalties push chatter like smoke-test logs below real documentation.
var pathBoosts = []pathBoost{
	{"docs/helix-ask-flow.md", 10},
	{"helixaskpill", 8},
	{"desktop", 6},
	{"server/routes/agi.plan", 6},
	{"server/skills/llm.local", 4},
	{"docs/smoke.md", -6},
}

// warpBoosts apply only when the question has warp focus.
var warpBoosts = []pathBoost{
	{"modules/warp", 8},
	{"natario-warp", 6},
	{"warp-module", 6},
	{"warp-theta", 6},
	{"warp-pipeline", 4},
	{"energy-pipeline", 4},
}

// Candidate is one file considered for context inclusion.
type Candidate struct {
	Path    string
	Name    string
	Preview string
}

// ScorePatch scores a resonance patch against the derived tokens:
// +2 per token found in summary/label/mode, +3 per token found in any of
// the patch's files.
func ScorePatch(p *models.ResonancePatch, tokens []string) int {
	meta := strings.ToLower(p.Summary + " " + p.Label + " " + p.Mode)

	fileHaystacks := make([]string, 0, len(p.Knowledge.Files))
	for _, f := range p.Knowledge.Files {
		fileHaystacks = append(fileHaystacks, strings.ToLower(f.Path+" "+f.Name+" "+f.Preview))
	}

	score := 0
	for _, tok := range tokens {
		if strings.Contains(meta, tok) {
			score += patchMetaHit
		}
		for _, hay := range fileHaystacks {
			if strings.Contains(hay, tok) {
				score += patchFileHit
				break
			}
		}
	}
	return score
}

// SelectPatch picks the patch to ground the prompt on. The best-scoring
// candidate wins (first wins ties); a collapse-selected primary patch is
// preferred only when its own score is positive.
func SelectPatch(bundle *models.ResonanceBundle, tokens []string) (*models.ResonancePatch, int) {
	if bundle == nil || len(bundle.Candidates) == 0 {
		return nil, 0
	}

	var best *models.ResonancePatch
	bestScore := -1
	for i := range bundle.Candidates {
		p := &bundle.Candidates[i]
		if s := ScorePatch(p, tokens); s > bestScore {
			best, bestScore = p, s
		}
	}

	if bundle.Collapse != nil && bundle.Collapse.PrimaryPatchID != "" {
		for i := range bundle.Candidates {
			p := &bundle.Candidates[i]
			if p.ID != bundle.Collapse.PrimaryPatchID {
				continue
			}
			if s := ScorePatch(p, tokens); s > 0 {
				return p, s
			}
			break
		}
	}
	return best, bestScore
}

// ScoreFile scores one candidate file: +2 per token in path/name/preview
// plus the path boosts (and warp boosts when the question has warp focus).
func ScoreFile(c Candidate, tokens []string, warp bool) int {
	lcPath := strings.ToLower(c.Path)
	hay := lcPath + " " + strings.ToLower(c.Name) + " " + strings.ToLower(c.Preview)

	score := 0
	for _, tok := range tokens {
		if strings.Contains(hay, tok) {
			score += fileTokenHit
		}
	}
	for _, b := range pathBoosts {
		if strings.Contains(lcPath, b.substr) {
			score += b.score
		}
	}
	if warp {
		for _, b := range warpBoosts {
			if strings.Contains(lcPath, b.substr) {
				score += b.score
			}
		}
	}
	return score
}

// SelectFiles returns the top-limit candidates by score. Ties keep input
// order, so identical inputs always select identical files. With
// requireMatch set, zero- and negative-scored candidates are excluded.
func SelectFiles(candidates []Candidate, tokens []string, warp bool, limit int, requireMatch bool) []Candidate {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}

	type scored struct {
		c     Candidate
		score int
		idx   int
	}
	ranked := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		s := ScoreFile(c, tokens, warp)
		if requireMatch && s <= 0 {
			continue
		}
		ranked = append(ranked, scored{c: c, score: s, idx: i})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].idx < ranked[j].idx
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]Candidate, len(ranked))
	for i, r := range ranked {
		out[i] = r.c
	}
	return out
}
