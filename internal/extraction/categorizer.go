package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/llm"
)

const categorizeSystemPrompt = "You are a precise categorization system. Always return valid JSON."

const categorizePromptTmpl = `You categorize items for a lost and found service. These are the only valid categories, subcategories and sub-subcategories:

%s
Item title: %s
Item attributes:
%s

Pick the closest existing entries. Do not invent new ones.
Return ONLY a JSON object:
{"category": "...", "subcategory": "...", "subSubcategory": "... or empty"}`

type categoryReply struct {
	Category       string `json:"category"`
	Subcategory    string `json:"subcategory"`
	SubSubcategory string `json:"subSubcategory"`
}

// Categorizer places items in a Taxonomy. Results are memoized by title and
// item type for the configured TTL.
type Categorizer struct {
	llm      llm.Client
	tax      *Taxonomy
	memo     *cache.Cache
	log      zerolog.Logger
	rendered string
}

// NewCategorizer returns a Categorizer over tax. ttl <= 0 disables memoization.
func NewCategorizer(c llm.Client, tax *Taxonomy, ttl time.Duration, log zerolog.Logger) *Categorizer {
	cz := &Categorizer{
		llm:      c,
		tax:      tax,
		log:      log.With().Str("component", "categorizer").Logger(),
		rendered: tax.Render(),
	}
	if ttl > 0 {
		cz.memo = cache.New(ttl, 2*ttl)
	}
	return cz
}

// Taxonomy returns the tree the categorizer assigns into.
func (c *Categorizer) Taxonomy() *Taxonomy { return c.tax }

// Categorize returns a placement that always exists in the taxonomy. Labels
// the model makes up are rejected; the keyword guess and then Fallback are
// used instead.
func (c *Categorizer) Categorize(ctx context.Context, attrs domain.AttributeRecord, title string) Assignment {
	key := memoKey(attrs, title)
	if c.memo != nil {
		if v, ok := c.memo.Get(key); ok {
			extractionOutcomes.WithLabelValues("category", "cache").Inc()
			return v.(Assignment)
		}
	}

	a, source := c.categorize(ctx, attrs, title)
	extractionOutcomes.WithLabelValues("category", source).Inc()
	if c.memo != nil && ctx.Err() == nil {
		c.memo.Set(key, a, cache.DefaultExpiration)
	}
	return a
}

func (c *Categorizer) categorize(ctx context.Context, attrs domain.AttributeRecord, title string) (Assignment, string) {
	out, err := c.llm.Complete(ctx, llm.Request{
		Task:        llm.TaskCategory,
		System:      categorizeSystemPrompt,
		Prompt:      fmt.Sprintf(categorizePromptTmpl, c.rendered, title, c.promptAttributes(attrs)),
		MaxTokens:   200,
		Temperature: 0.3,
		Inputs:      []string{title, attrs.ItemType},
	})
	if err == nil {
		var r categoryReply
		if derr := llm.DecodeObject(out, &r); derr == nil {
			if a, ok := c.tax.Resolve(r.Category, r.Subcategory, r.SubSubcategory); ok {
				return a, "llm"
			}
			c.log.Warn().
				Str("category", r.Category).
				Str("subcategory", r.Subcategory).
				Msg("categorizer returned labels outside the taxonomy")
		} else {
			c.log.Warn().Err(derr).Msg("categorizer returned malformed JSON")
		}
	} else {
		c.log.Warn().Err(err).Msg("categorization failed, using heuristics")
	}

	if a, ok := c.tax.Guess(title + " " + attrs.ItemType); ok {
		return a, "heuristic"
	}
	return Fallback, "fallback"
}

// promptAttributes renders attrs for the categorization prompt, or "{}" when
// they cannot be encoded.
func (c *Categorizer) promptAttributes(attrs domain.AttributeRecord) string {
	b, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		c.log.Warn().Err(err).Msg("encode attributes for categorization")
		return "{}"
	}
	return string(b)
}

func memoKey(attrs domain.AttributeRecord, title string) string {
	return strings.Join([]string{fold(title), fold(attrs.ItemType), fold(attrs.BrandModel)}, "|")
}
