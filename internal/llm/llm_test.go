package llm

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-lostfound-backend/internal/config"
)

func TestNew_Providers(t *testing.T) {
	for _, p := range []string{"stub", "", "anthropic", "openai"} {
		c, err := New(config.LLMConfig{Provider: p, APIKey: "k", Model: "m"}, zerolog.Nop())
		if err != nil {
			t.Fatalf("New(%q): %v", p, err)
		}
		if _, ok := c.(*Resilient); !ok {
			t.Fatalf("New(%q) should return the resilient decorator, got %T", p, c)
		}
	}
	if _, err := New(config.LLMConfig{Provider: "bard"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestStatusError_Message(t *testing.T) {
	e := &StatusError{Provider: "openai", StatusCode: 503, Body: strings.Repeat("x", 300)}
	msg := e.Error()
	if !strings.Contains(msg, "openai: status 503 Service Unavailable") {
		t.Fatalf("unexpected message %q", msg)
	}
	if !strings.HasSuffix(msg, "...") {
		t.Fatalf("long body should be truncated: %q", msg)
	}
}
