// Package llmtest provides a scripted Generator for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/latticelabs/helix/pkg/llm"
)

// ScriptEntry defines one scripted generation response.
type ScriptEntry struct {
	// Response content
	Chunks []llm.Chunk // pre-built chunks, sent in order
	Text   string      // shorthand: one text chunk plus a final chunk
	Err    error       // terminal error, delivered after any Chunks

	// Test control
	BlockUntilCanceled bool            // after sending Chunks, hold the stream open until ctx is canceled
	WaitCh             <-chan struct{} // block before responding until closed
	OnBlock            chan<- struct{} // notified when the entry enters its blocking path
}

// Scripted implements llm.Generator from a fixed script consumed in call
// order. It records every request for assertions.
type Scripted struct {
	mu       sync.Mutex
	script   []ScriptEntry
	index    int
	captured []llm.Request
}

var _ llm.Generator = (*Scripted)(nil)

// NewScripted creates an empty scripted generator.
func NewScripted() *Scripted {
	return &Scripted{}
}

// Add appends one entry to the script.
func (s *Scripted) Add(entry ScriptEntry) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, entry)
	return s
}

// AddText appends a plain text response.
func (s *Scripted) AddText(text string) *Scripted {
	return s.Add(ScriptEntry{Text: text})
}

// AddError appends a failing response.
func (s *Scripted) AddError(err error) *Scripted {
	return s.Add(ScriptEntry{Err: err})
}

// Requests returns a copy of every request seen so far.
func (s *Scripted) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Request, len(s.captured))
	copy(out, s.captured)
	return out
}

// CallCount returns how many generations were requested.
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.captured)
}

// Generate implements llm.Generator.
func (s *Scripted) Generate(ctx context.Context, req llm.Request) (<-chan llm.Chunk, <-chan error) {
	chunks := make(chan llm.Chunk, 16)
	errs := make(chan error, 1)

	s.mu.Lock()
	s.captured = append(s.captured, req)
	var entry ScriptEntry
	exhausted := s.index >= len(s.script)
	if !exhausted {
		entry = s.script[s.index]
		s.index++
	}
	s.mu.Unlock()

	go func() {
		defer close(chunks)
		defer close(errs)

		if exhausted {
			errs <- errors.New("scripted generator: no entry for call")
			return
		}

		if entry.WaitCh != nil {
			if entry.OnBlock != nil {
				entry.OnBlock <- struct{}{}
			}
			select {
			case <-entry.WaitCh:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}

		out := entry.Chunks
		if len(out) == 0 && entry.Text != "" {
			out = []llm.Chunk{{Text: entry.Text}, {Final: true}}
		}
		for _, c := range out {
			select {
			case chunks <- c:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}

		if entry.Err != nil {
			errs <- entry.Err
			return
		}

		if entry.BlockUntilCanceled {
			if entry.OnBlock != nil {
				entry.OnBlock <- struct{}{}
			}
			<-ctx.Done()
			errs <- ctx.Err()
			return
		}
	}()

	return chunks, errs
}
