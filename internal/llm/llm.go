// Package llm provides a small provider-agnostic interface to chat-style
// language models, together with the providers the service ships with
// (Anthropic, OpenAI-compatible HTTP, and an offline stub) and a resilient
// decorator that adds rate limiting, bounded concurrency, retries with
// exponential backoff, and a circuit breaker.
//
// Callers build a Request (system prompt + user prompt) and receive the raw
// text completion. Parsing the completion is the caller's job; ExtractObject
// helps with the usual model quirks (code fences, prose around JSON).
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-lostfound-backend/internal/config"
)

// Task names the kind of completion requested. Providers may use it for
// metrics labels; the stub uses it to choose an offline answer.
type Task string

const (
	TaskSimilarity Task = "similarity"
	TaskAttributes Task = "attributes"
	TaskCategory   Task = "category"
)

// Request is a single-turn completion request.
type Request struct {
	Task        Task
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64

	// Inputs are the raw texts Prompt was rendered from. Hosted providers
	// ignore them; the offline stub scores on them directly.
	Inputs []string
}

// Client completes prompts.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

var (
	// ErrEmptyResponse is returned when a provider answers without any text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrUnsupportedTask is returned by the stub for tasks it cannot answer offline.
	ErrUnsupportedTask = errors.New("llm: task not supported by provider")
	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("llm: circuit breaker is open")
)

// StatusError is a non-2xx answer from an HTTP provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s: status %d %s: %s", e.Provider, e.StatusCode, http.StatusText(e.StatusCode), body)
}

const defaultMaxTokens = 512

// New builds the configured provider wrapped in the resilient decorator.
func New(cfg config.LLMConfig, log zerolog.Logger) (Client, error) {
	var (
		base Client
		name = cfg.Provider
	)
	switch cfg.Provider {
	case "anthropic":
		base = NewAnthropic(cfg.APIKey, cfg.Model, cfg.BaseURL, nil)
	case "openai":
		base = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, nil)
	case "stub", "":
		name = "stub"
		base = NewStub(nil)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}

	log.Info().
		Str("provider", name).
		Str("model", cfg.Model).
		Int("max_retries", cfg.MaxRetries).
		Float64("rps", cfg.RPS).
		Msg("llm client ready")

	return NewResilient(base, ResilientOptions{
		Provider:   name,
		MaxRetries: cfg.MaxRetries,
		Timeout:    cfg.Timeout,
		RPS:        cfg.RPS,
	}, log), nil
}
