package extraction

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/llm"
	"github.com/tbourn/go-lostfound-backend/internal/search"
)

const extractSystemPrompt = "You are an attribute extractor. Always include the itemType in your response. " +
	"Never return null for itemType if it can be determined from the description. Return a JSON object."

const extractPromptTmpl = `You extract key attributes from item descriptions for a lost and found service.

Title: %s
Description: %s

Return ONLY a JSON object with these keys (omit a key or use null when unknown):
{
  "itemType": "what the item is, e.g. wallet, smartphone",
  "color": "main colors",
  "brandModel": "brand and model",
  "sizeDimensions": "size or dimensions",
  "material": "material",
  "uniqueIdentifiers": ["serial numbers, engravings, names, stickers"],
  "accessories": ["attached or accompanying items"],
  "contents": ["things inside the item"],
  "condition": "wear, damage",
  "additionalDetails": "anything else distinctive"
}`

// colorWords is scanned in order by the heuristic fallback.
var colorWords = []string{"black", "brown", "blue", "red", "white", "green"}

// Extractor derives an AttributeRecord from a report's free text.
type Extractor struct {
	llm llm.Client
	log zerolog.Logger
}

func NewExtractor(c llm.Client, log zerolog.Logger) *Extractor {
	return &Extractor{llm: c, log: log.With().Str("component", "extractor").Logger()}
}

// Extract asks the model for attributes and normalizes the answer. When the
// call fails or the answer lacks an item type, heuristic values fill in; the
// result always has ItemType set.
func (e *Extractor) Extract(ctx context.Context, description, title string) domain.AttributeRecord {
	out, err := e.llm.Complete(ctx, llm.Request{
		Task:        llm.TaskAttributes,
		System:      extractSystemPrompt,
		Prompt:      fmt.Sprintf(extractPromptTmpl, title, description),
		MaxTokens:   400,
		Temperature: 0.2,
		Inputs:      []string{title, description},
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("attribute extraction failed, using heuristics")
		extractionOutcomes.WithLabelValues("attributes", "heuristic").Inc()
		return HeuristicAttributes(description, title)
	}

	var raw map[string]any
	if err := llm.DecodeObject(out, &raw); err != nil {
		e.log.Warn().Err(err).Msg("attribute extraction returned malformed JSON, using heuristics")
		extractionOutcomes.WithLabelValues("attributes", "heuristic").Inc()
		return HeuristicAttributes(description, title)
	}

	rec := domain.NormalizeAttributes(raw)
	if !rec.Complete() {
		h := HeuristicAttributes(description, title)
		rec.ItemType = h.ItemType
		if rec.Color == "" {
			rec.Color = h.Color
		}
		extractionOutcomes.WithLabelValues("attributes", "llm_partial").Inc()
		return rec
	}
	extractionOutcomes.WithLabelValues("attributes", "llm").Inc()
	return rec
}

// HeuristicAttributes is the offline attribute guess: the first known color
// word in the description, the title's last word as item type, and
// "unknown" for what cannot be guessed.
func HeuristicAttributes(description, title string) domain.AttributeRecord {
	return domain.AttributeRecord{
		ItemType:  guessItemType(title),
		Color:     extractColor(description + " " + title),
		Material:  domain.Unknown,
		Condition: domain.Unknown,
	}
}

func extractColor(text string) string {
	lower := strings.ToLower(text)
	for _, c := range colorWords {
		if strings.Contains(lower, c) {
			return c
		}
	}
	return domain.Unknown
}

func guessItemType(title string) string {
	words := strings.Fields(strings.ToLower(title))
	for i := len(words) - 1; i >= 0; i-- {
		for _, tok := range search.Tokens(words[i]) {
			if r, _ := utf8.DecodeRuneInString(tok); unicode.IsLetter(r) {
				return tok
			}
		}
	}
	return "other"
}
