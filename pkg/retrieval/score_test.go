package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticelabs/helix/pkg/models"
)

func TestScorePatch(t *testing.T) {
	patch := &models.ResonancePatch{
		ID:      "p-1",
		Summary: "warp field summary",
		Label:   "geometry",
		Knowledge: models.ResonanceKnowledge{
			Files: []models.ResonanceFile{
				{Path: "modules/warp/theta.ts", Preview: "theta profile"},
				{Path: "docs/notes.md", Preview: "bubble wall energy"},
			},
		},
	}

	// "warp": +2 meta +3 file; "bubble": +3 file; "geometry": +2 meta.
	assert.Equal(t, 10, ScorePatch(patch, []string{"warp", "bubble", "geometry"}))
	assert.Equal(t, 0, ScorePatch(patch, []string{"sessions"}))
	assert.Equal(t, 0, ScorePatch(patch, nil))
}

func TestSelectPatch(t *testing.T) {
	bundle := &models.ResonanceBundle{
		Candidates: []models.ResonancePatch{
			{ID: "p-low", Summary: "nothing relevant"},
			{ID: "p-high", Summary: "warp bubble geometry"},
			{ID: "p-mid", Summary: "warp only"},
		},
	}
	tokens := []string{"warp", "bubble"}

	t.Run("best score wins", func(t *testing.T) {
		patch, score := SelectPatch(bundle, tokens)
		require.NotNil(t, patch)
		assert.Equal(t, "p-high", patch.ID)
		assert.Equal(t, 4, score)
	})

	t.Run("primary selection wins when it scores", func(t *testing.T) {
		withCollapse := *bundle
		withCollapse.Collapse = &models.ResonanceCollapse{PrimaryPatchID: "p-mid"}
		patch, score := SelectPatch(&withCollapse, tokens)
		require.NotNil(t, patch)
		assert.Equal(t, "p-mid", patch.ID)
		assert.Equal(t, 2, score)
	})

	t.Run("zero-score primary falls back to best", func(t *testing.T) {
		withCollapse := *bundle
		withCollapse.Collapse = &models.ResonanceCollapse{PrimaryPatchID: "p-low"}
		patch, _ := SelectPatch(&withCollapse, tokens)
		require.NotNil(t, patch)
		assert.Equal(t, "p-high", patch.ID)
	})

	t.Run("unknown primary falls back to best", func(t *testing.T) {
		withCollapse := *bundle
		withCollapse.Collapse = &models.ResonanceCollapse{PrimaryPatchID: "p-missing"}
		patch, _ := SelectPatch(&withCollapse, tokens)
		require.NotNil(t, patch)
		assert.Equal(t, "p-high", patch.ID)
	})

	t.Run("empty bundle", func(t *testing.T) {
		patch, score := SelectPatch(nil, tokens)
		assert.Nil(t, patch)
		assert.Zero(t, score)
		patch, _ = SelectPatch(&models.ResonanceBundle{}, tokens)
		assert.Nil(t, patch)
	})
}

func TestScoreFile(t *testing.T) {
	tests := []struct {
		name   string
		file   Candidate
		tokens []string
		warp   bool
		want   int
	}{
		{
			name:   "token hits",
			file:   Candidate{Path: "server/session.ts", Preview: "session hash check"},
			tokens: []string{"session", "hash"},
			want:   4,
		},
		{
			name: "ask flow doc boost",
			file: Candidate{Path: "docs/helix-ask-flow.md"},
			want: 10,
		},
		{
			name: "pill component boost is case-insensitive on path",
			file: Candidate{Path: "client/src/components/HelixAskPill.tsx"},
			want: 8,
		},
		{
			name: "smoke doc penalty",
			file: Candidate{Path: "docs/SMOKE.md"},
			want: -6,
		},
		{
			name:   "warp boosts only with warp focus",
			file:   Candidate{Path: "modules/warp/warp-module.ts", Preview: "warp field"},
			tokens: []string{"warp"},
			warp:   true,
			want:   16, // +2 token, +8 modules/warp, +6 warp-module
		},
		{
			name:   "no warp boosts without focus",
			file:   Candidate{Path: "modules/warp/warp-module.ts", Preview: "warp field"},
			tokens: []string{"warp"},
			want:   2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreFile(tt.file, tt.tokens, tt.warp))
		})
	}
}

func TestSelectFiles(t *testing.T) {
	candidates := []Candidate{
		{Path: "a/first.md", Preview: "warp"},
		{Path: "b/second.md", Preview: "warp"},
		{Path: "c/unrelated.md", Preview: "nothing"},
	}
	tokens := []string{"warp"}

	t.Run("top-k keeps input order on ties", func(t *testing.T) {
		got := SelectFiles(candidates, tokens, false, 2, false)
		require.Len(t, got, 2)
		assert.Equal(t, "a/first.md", got[0].Path)
		assert.Equal(t, "b/second.md", got[1].Path)
	})

	t.Run("requireMatch drops zero scores", func(t *testing.T) {
		got := SelectFiles(candidates, tokens, false, 10, true)
		require.Len(t, got, 2)
		for _, c := range got {
			assert.NotEqual(t, "c/unrelated.md", c.Path)
		}
	})

	t.Run("without requireMatch zero scores may fill slots", func(t *testing.T) {
		got := SelectFiles(candidates, tokens, false, 10, false)
		assert.Len(t, got, 3)
	})

	t.Run("zero limit", func(t *testing.T) {
		assert.Nil(t, SelectFiles(candidates, tokens, false, 0, false))
	})
}
