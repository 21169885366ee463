// Package llm provides the language-model capability behind ask: a
// streaming Generator interface plus the local OpenAI-compatible client.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Chunk is one streamed fragment of a generation.
type Chunk struct {
	Text  string // delta text, may be empty on the final chunk
	Final bool   // set on the last chunk of a successful generation
}

// Request is one generation call.
type Request struct {
	TraceID   string // propagated for logging only
	System    string // optional system message
	Prompt    string // assembled user prompt
	MaxTokens int    // output token cap (0 = runtime default)
}

// Generator streams completions. Implementations must honor ctx
// cancellation promptly at every chunk boundary: a canceled context
// closes both channels without further sends.
type Generator interface {
	Generate(ctx context.Context, req Request) (<-chan Chunk, <-chan error)
}

// StatusError is a non-200 response from the model runtime.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model runtime returned %d: %s", e.Status, e.Body)
}

var overflowRe = regexp.MustCompile(`(?i)context|token|exceed`)

// IsOverflow reports whether a generation error looks like a context
// window overflow and therefore qualifies for the reduced-budget retry.
func IsOverflow(err error) bool {
	return err != nil && overflowRe.MatchString(err.Error())
}

// Collect drains a generation into its accumulated text. On error it
// returns the partial text alongside the error.
func Collect(ctx context.Context, g Generator, req Request) (string, error) {
	chunks, errs := g.Generate(ctx, req)

	var sb strings.Builder
	for chunks != nil || errs != nil {
		select {
		case c, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			sb.WriteString(c.Text)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return sb.String(), err
			}
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		}
	}
	return sb.String(), nil
}
