package matching

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/llm"
)

// MaxJustificationRunes caps stored and returned justifications.
const MaxJustificationRunes = 250

// Diagnostics returned in place of a justification when scoring fails.
const (
	ErrorJustification      = "Error calculating score"
	NoResponseJustification = "No response from LLM"
	NoScoreJustification    = "LLM response had no score"
)

// Score is a similarity judgment for one pair.
type Score struct {
	Value         int    `json:"score"`
	Justification string `json:"justification"`
}

// Scorer judges how alike two reports are. It never fails: problems are
// reported as a zero score whose justification says what went wrong.
type Scorer interface {
	Score(ctx context.Context, newItem, existing domain.ItemReport) Score
}

// RubricScorer asks a language model to apply a Rubric.
type RubricScorer struct {
	llm    llm.Client
	rubric *Rubric
	log    zerolog.Logger
}

// NewRubricScorer returns a scorer using r, or the default rubric when r is nil.
func NewRubricScorer(c llm.Client, r *Rubric, log zerolog.Logger) *RubricScorer {
	if r == nil {
		r = Rubrics[DefaultRubricVersion]
	}
	return &RubricScorer{
		llm:    c,
		rubric: r,
		log:    log.With().Str("component", "scorer").Str("rubric", r.Version).Logger(),
	}
}

// Rubric returns the scoring strategy in use.
func (s *RubricScorer) Rubric() *Rubric { return s.rubric }

func (s *RubricScorer) Score(ctx context.Context, newItem, existing domain.ItemReport) Score {
	log := s.log.With().Str("new_id", newItem.ID).Str("existing_id", existing.ID).Logger()

	prompt, err := s.rubric.Prompt(newItem, existing)
	if err != nil {
		log.Warn().Err(err).Msg("render scoring prompt")
		scoreOutcomes.WithLabelValues("error").Inc()
		return Score{Justification: ErrorJustification}
	}

	out, err := s.llm.Complete(ctx, llm.Request{
		Task:        llm.TaskSimilarity,
		System:      s.rubric.SystemPrompt,
		Prompt:      prompt,
		MaxTokens:   s.rubric.MaxTokens,
		Temperature: s.rubric.Temperature,
		Inputs:      []string{itemText(newItem), itemText(existing)},
	})
	switch {
	case errors.Is(err, llm.ErrEmptyResponse) || (err == nil && strings.TrimSpace(out) == ""):
		log.Warn().Msg("similarity scoring got no response")
		scoreOutcomes.WithLabelValues("empty").Inc()
		return Score{Justification: NoResponseJustification}
	case err != nil:
		log.Warn().Err(err).Msg("similarity scoring failed")
		scoreOutcomes.WithLabelValues("error").Inc()
		return Score{Justification: ErrorJustification}
	}

	sc, err := parseScore(out)
	if err != nil {
		log.Warn().Err(err).Str("reply", truncateRunes(out, 120)).Msg("similarity reply unusable")
		scoreOutcomes.WithLabelValues("malformed").Inc()
		if errors.Is(err, errNoScore) {
			return Score{Justification: NoScoreJustification}
		}
		return Score{Justification: ErrorJustification}
	}
	scoreOutcomes.WithLabelValues("ok").Inc()
	return sc
}

var errNoScore = errors.New("no score field")

type scoreReply struct {
	Score         json.RawMessage `json:"score"`
	Justification string          `json:"justification"`
}

// parseScore decodes {"score": n, "justification": "..."}; n may be a
// number or a numeric string. The score is rounded and clamped to [0,100].
func parseScore(text string) (Score, error) {
	var r scoreReply
	if err := llm.DecodeObject(text, &r); err != nil {
		return Score{}, err
	}
	raw := strings.TrimSpace(string(r.Score))
	if raw == "" || raw == "null" {
		return Score{}, errNoScore
	}
	raw = strings.Trim(raw, `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) {
		return Score{}, errNoScore
	}
	return Score{
		Value:         clampScore(int(math.Round(f))),
		Justification: truncateRunes(strings.TrimSpace(r.Justification), MaxJustificationRunes),
	}, nil
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// itemText flattens the descriptive fields of a report for lexical scoring.
func itemText(it domain.ItemReport) string {
	a := it.Attrs()
	parts := []string{it.Title, it.Description, a.ItemType, a.Color, a.BrandModel, a.Material}
	parts = append(parts, a.UniqueIdentifiers...)
	parts = append(parts, a.Contents...)
	parts = append(parts, a.Accessories...)
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == domain.Unknown {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}
