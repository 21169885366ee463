// Package lattice contains the HTTP clients for the external plan,
// execute, and code-search capabilities. All three collaborators are
// black boxes behind configured URLs; an empty URL disables the
// capability and its client reports Enabled() == false.
package lattice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
)

// StatusError is a non-200 reply from a lattice collaborator. Body is
// carried so callers can classify refusals.
type StatusError struct {
	Capability string
	Status     int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Capability, e.Status, e.Body)
}

var knowledgeRejectRe = regexp.MustCompile(`(?i)bad_request|knowledge_projects_disabled`)

// IsKnowledgeRejected reports whether a planner error means the knowledge
// context was refused, which qualifies for one retry without knowledge.
func IsKnowledgeRejected(err error) bool {
	return err != nil && knowledgeRejectRe.MatchString(err.Error())
}

// postJSON sends a JSON body and decodes a JSON reply into out.
func postJSON(ctx context.Context, client *http.Client, capability, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", capability, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", capability, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", capability, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Capability: capability, Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", capability, err)
	}
	return nil
}
