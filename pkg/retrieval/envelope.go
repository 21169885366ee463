package retrieval

import (
	"strings"

	"github.com/latticelabs/helix/pkg/models"
)

// Envelope section markers, checked per line in this order. Text before
// the first marker is the answer section.
var envelopeMarkers = []struct {
	prefix string
	kind   string
}{
	{"DETAILS:", models.SectionDetails},
	{"PROOF:", models.SectionProof},
	{"EXTENSION:", models.SectionExtension},
}

// ParseEnvelope splits a cleaned answer into tagged sections. Returns nil
// when the text carries no section markers; callers then treat the reply
// as plain text.
func ParseEnvelope(text string) *models.Envelope {
	lines := strings.Split(text, "\n")

	var sections []models.EnvelopeSection
	current := models.EnvelopeSection{Kind: models.SectionAnswer}
	var body []string
	sawMarker := false

	flush := func() {
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Body != "" || current.Title != "" {
			sections = append(sections, current)
		}
		body = body[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		marked := false
		for _, marker := range envelopeMarkers {
			if strings.HasPrefix(trimmed, marker.prefix) {
				flush()
				sawMarker = true
				current = models.EnvelopeSection{
					Kind:  marker.kind,
					Title: strings.TrimSpace(strings.TrimPrefix(trimmed, marker.prefix)),
				}
				marked = true
				break
			}
		}
		if !marked {
			body = append(body, line)
		}
	}
	flush()

	if !sawMarker {
		return nil
	}
	return &models.Envelope{Sections: sections}
}
