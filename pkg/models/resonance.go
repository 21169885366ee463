package models

// ResonanceFile is one file reference inside a resonance patch.
type ResonanceFile struct {
	Path    string `json:"path"`
	Name    string `json:"name,omitempty"`
	Preview string `json:"preview,omitempty"`
}

// ResonanceKnowledge groups the files attached to a patch.
type ResonanceKnowledge struct {
	Files []ResonanceFile `json:"files,omitempty"`
}

// ResonancePatch is one pre-computed retrieval candidate from a code-lattice
// query. Patches are consumed as-is; the service never mutates them.
type ResonancePatch struct {
	ID        string             `json:"id"`
	Summary   string             `json:"summary,omitempty"`
	Label     string             `json:"label,omitempty"`
	Mode      string             `json:"mode,omitempty"`
	Knowledge ResonanceKnowledge `json:"knowledge,omitempty"`
}

// ResonanceCollapse records a caller-selected primary patch.
type ResonanceCollapse struct {
	PrimaryPatchID string `json:"primaryPatchId,omitempty"`
}

// ResonanceBundle carries retrieval candidates plus an optional collapse
// selection.
type ResonanceBundle struct {
	Candidates []ResonancePatch   `json:"candidates,omitempty"`
	Collapse   *ResonanceCollapse `json:"collapse,omitempty"`
}

// KnowledgeFile is one file from a knowledge project export.
type KnowledgeFile struct {
	ID        string `json:"id,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
	Path      string `json:"path"`
	Name      string `json:"name,omitempty"`
	Preview   string `json:"preview,omitempty"`
	Mime      string `json:"mime,omitempty"`
	Size      int64  `json:"size,omitempty"`
}

// KnowledgeProjectExport wraps a project's exported files with summary
// metadata. Audit entries are pass-through.
type KnowledgeProjectExport struct {
	Project      string          `json:"project"`
	Summary      string          `json:"summary,omitempty"`
	Files        []KnowledgeFile `json:"files"`
	ApproxBytes  int64           `json:"approxBytes,omitempty"`
	OmittedFiles int             `json:"omittedFiles,omitempty"`
	Audit        map[string]any  `json:"audit,omitempty"`
}
