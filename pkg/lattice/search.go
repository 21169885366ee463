package lattice

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/latticelabs/helix/pkg/models"
)

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type searchResponse struct {
	Files []models.KnowledgeFile `json:"files"`
}

// Search calls the code-lattice search capability.
type Search struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewSearch creates a search client. An empty URL disables search.
func NewSearch(url string) *Search {
	return &Search{
		url:    url,
		client: &http.Client{},
		logger: slog.With("component", "lattice.search"),
	}
}

// Enabled reports whether a search endpoint is configured.
func (s *Search) Enabled() bool { return s.url != "" }

// Query returns file candidates for one derived query.
func (s *Search) Query(ctx context.Context, query string, limit int) ([]models.KnowledgeFile, error) {
	var result searchResponse
	if err := postJSON(ctx, s.client, "search", s.url, searchRequest{Query: query, Limit: limit}, &result); err != nil {
		return nil, err
	}
	s.logger.Debug("search complete", "query", query, "files", len(result.Files))
	return result.Files, nil
}
