package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/latticelabs/helix/pkg/config"
)

// chunkBuffer sizes the chunk channel so slow consumers do not stall the
// HTTP read loop immediately.
const chunkBuffer = 100

// LocalClient talks to an OpenAI-compatible chat completions endpoint,
// typically a local runtime (llama.cpp, vLLM, Ollama). Requests are paced
// with a token bucket when the config asks for it.
type LocalClient struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ Generator = (*LocalClient)(nil)

// NewLocalClient creates a client for the configured runtime.
func NewLocalClient(cfg *config.GeneratorConfig) *LocalClient {
	var limiter *rate.Limiter
	if cfg.MaxRPS > 0 {
		burst := cfg.MaxBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), burst)
	}
	return &LocalClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{}, // no client timeout; generations are ctx-bounded
		limiter: limiter,
		logger:  slog.With("component", "llm.local"),
	}
}

// Wire types, the subset of the chat completions schema the runtime needs.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatDelta struct {
	Content string `json:"content,omitempty"`
}

type chatChoice struct {
	Delta        *chatDelta `json:"delta,omitempty"`
	Message      *chatDelta `json:"message,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// Generate streams a completion. The chunk channel closes after the final
// chunk; the error channel carries at most one terminal error.
func (c *LocalClient) Generate(ctx context.Context, req Request) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk, chunkBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				errs <- err
				return
			}
		}

		start := time.Now()
		resp, err := c.send(ctx, req)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			errs <- &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
			return
		}

		if err := c.stream(ctx, resp.Body, chunks); err != nil {
			errs <- err
			return
		}
		c.logger.Debug("generation complete",
			"trace_id", req.TraceID,
			"duration_ms", time.Since(start).Milliseconds())
	}()

	return chunks, errs
}

func (c *LocalClient) send(ctx context.Context, req Request) (*http.Response, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  messages,
		Stream:    true,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.client.Do(httpReq)
}

// stream reads "data: {...}" SSE lines until [DONE] or EOF, forwarding
// content deltas as chunks.
func (c *LocalClient) stream(ctx context.Context, body io.Reader, chunks chan<- Chunk) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var parsed chatResponse
		if err := json.Unmarshal([]byte(data), &parsed); err != nil {
			// Malformed keep-alive noise; skip.
			continue
		}
		if len(parsed.Choices) == 0 {
			continue
		}
		choice := parsed.Choices[0]
		text := ""
		if choice.Delta != nil {
			text = choice.Delta.Content
		} else if choice.Message != nil {
			text = choice.Message.Content
		}
		if text == "" {
			continue
		}

		select {
		case chunks <- Chunk{Text: text}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	select {
	case chunks <- Chunk{Final: true}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
