package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
)

func TestOpenAI_Complete(t *testing.T) {
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://llm.test/v1/chat/completions",
		func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "Bearer secret" {
				return httpmock.NewStringResponse(http.StatusUnauthorized, "bad key"), nil
			}
			var body chatRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}
			if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Content != "hello" {
				return httpmock.NewStringResponse(http.StatusBadRequest, "unexpected messages"), nil
			}
			if body.Temperature == nil || *body.Temperature != 0.3 {
				return httpmock.NewStringResponse(http.StatusBadRequest, "temperature missing"), nil
			}
			return httpmock.NewStringResponse(http.StatusOK,
				`{"choices":[{"message":{"role":"assistant","content":"  {\"score\":81}  "}}]}`), nil
		})

	o := NewOpenAI("secret", "gpt-4o-mini", "https://llm.test/v1/", hc)
	out, err := o.Complete(context.Background(), Request{System: "sys", Prompt: "hello", Temperature: 0.3})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"score":81}` {
		t.Fatalf("unexpected completion %q", out)
	}
	if httpmock.GetTotalCallCount() != 1 {
		t.Fatalf("expected one call, got %d", httpmock.GetTotalCallCount())
	}
}

func TestOpenAI_StatusAndEmpty(t *testing.T) {
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	defer httpmock.DeactivateAndReset()

	o := NewOpenAI("k", "m", "https://llm.test/v1", hc)

	httpmock.RegisterResponder(http.MethodPost, "https://llm.test/v1/chat/completions",
		httpmock.NewStringResponder(http.StatusTooManyRequests, `{"error":"slow down"}`))
	_, err := o.Complete(context.Background(), Request{Prompt: "x"})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected StatusError 429, got %v", err)
	}
	if !IsRetriable(err) {
		t.Fatalf("429 must be retriable")
	}

	httpmock.RegisterResponder(http.MethodPost, "https://llm.test/v1/chat/completions",
		httpmock.NewStringResponder(http.StatusOK, `{"choices":[]}`))
	if _, err := o.Complete(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}

	httpmock.RegisterResponder(http.MethodPost, "https://llm.test/v1/chat/completions",
		httpmock.NewStringResponder(http.StatusOK, `not json`))
	if _, err := o.Complete(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewOpenAI_Defaults(t *testing.T) {
	o := NewOpenAI("k", "m", "", nil)
	if o.baseURL != openAIBaseURL || o.http == nil {
		t.Fatalf("defaults not applied: %+v", o)
	}
}
