package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tbourn/go-lostfound-backend/internal/search"
)

// Stub is a deterministic offline provider. Canned answers take precedence;
// otherwise similarity requests are scored by word overlap of the first two
// Inputs, and every other task returns ErrUnsupportedTask so callers use
// their heuristic fallbacks.
type Stub struct {
	canned map[Task]string
}

// NewStub returns a stub answering with canned[task] when present.
func NewStub(canned map[Task]string) *Stub {
	return &Stub{canned: canned}
}

func (s *Stub) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if out, ok := s.canned[req.Task]; ok {
		return out, nil
	}
	if req.Task != TaskSimilarity || len(req.Inputs) < 2 {
		return "", fmt.Errorf("stub %s: %w", req.Task, ErrUnsupportedTask)
	}

	a, b := req.Inputs[0], req.Inputs[1]
	ratio := (search.Overlap(a, b) + search.Jaccard(a, b)) / 2
	score := int(math.Round(ratio * 100))
	shared := sharedTokens(a, b)

	justification := "No shared descriptive terms."
	if len(shared) > 0 {
		justification = "Shared terms: " + strings.Join(shared, ", ") + "."
	}
	out, err := json.Marshal(map[string]any{"score": score, "justification": justification})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func sharedTokens(a, b string) []string {
	inB := make(map[string]struct{})
	for _, w := range search.Tokens(b) {
		inB[w] = struct{}{}
	}
	var out []string
	for _, w := range search.Tokens(a) {
		if _, ok := inB[w]; ok {
			out = append(out, w)
		}
		if len(out) == 8 {
			break
		}
	}
	return out
}
