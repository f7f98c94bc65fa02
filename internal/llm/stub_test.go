package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestStub_SimilarityIsDeterministic(t *testing.T) {
	s := NewStub(nil)
	req := Request{
		Task:   TaskSimilarity,
		Inputs: []string{"black leather wallet with cards", "black leather wallet"},
	}
	first, err := s.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	second, _ := s.Complete(context.Background(), req)
	if first != second {
		t.Fatalf("stub must be deterministic: %q vs %q", first, second)
	}

	var out struct {
		Score         int    `json:"score"`
		Justification string `json:"justification"`
	}
	if err := json.Unmarshal([]byte(first), &out); err != nil {
		t.Fatalf("stub output not JSON: %v", err)
	}
	if out.Score <= 50 || out.Score > 100 {
		t.Fatalf("expected high overlap score, got %d", out.Score)
	}
	if out.Justification == "" {
		t.Fatalf("expected justification")
	}

	none, _ := s.Complete(context.Background(), Request{Task: TaskSimilarity, Inputs: []string{"umbrella", "laptop"}})
	if err := json.Unmarshal([]byte(none), &out); err != nil || out.Score != 0 {
		t.Fatalf("disjoint inputs should score 0, got %q", none)
	}
}

func TestStub_CannedAndUnsupported(t *testing.T) {
	s := NewStub(map[Task]string{TaskCategory: `{"category":"Electronics"}`})
	out, err := s.Complete(context.Background(), Request{Task: TaskCategory})
	if err != nil || out != `{"category":"Electronics"}` {
		t.Fatalf("canned = %q,%v", out, err)
	}
	if _, err := s.Complete(context.Background(), Request{Task: TaskAttributes}); !errors.Is(err, ErrUnsupportedTask) {
		t.Fatalf("expected ErrUnsupportedTask, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Complete(ctx, Request{Task: TaskCategory}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
