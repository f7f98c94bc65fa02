package matching

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

// DefaultRubricVersion is used when no version is configured.
const DefaultRubricVersion = "v3-stars"

const scoringSystemPrompt = "You are a precise matching system. Respond only with the JSON format specified."

// Bucket is one scoring criterion. Points are only ever added.
type Bucket struct {
	Key    string
	Name   string
	Points int
	Guide  string
}

// Rubric is a named scoring strategy: the instructions and weighted buckets
// sent to the model. Swapping rubrics changes how pairs are judged without
// touching the orchestrator.
type Rubric struct {
	Version      string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	// Preamble explains the task ahead of the buckets.
	Preamble string
	// Scoring explains how bucket points combine into the final score.
	Scoring string
	Buckets []Bucket

	tmpl *template.Template
}

// MaxPoints is the sum of all bucket points.
func (r *Rubric) MaxPoints() int {
	n := 0
	for _, b := range r.Buckets {
		n += b.Points
	}
	return n
}

type promptItem struct {
	Title       string
	Description string
	Attributes  string
	Location    string
	Date        string
}

type promptData struct {
	R        *Rubric
	New      promptItem
	Existing promptItem
}

const promptTmpl = `{{.R.Preamble}}

RUBRIC
{{range $i, $b := .R.Buckets}}{{letter $i}}. {{$b.Name}} (up to {{$b.Points}} pts): {{$b.Guide}}
{{end}}
{{.R.Scoring}}

Return ONLY this JSON object:
{"score": <integer 0-100>, "justification": "<at most 250 characters>"}

DATA
NEW ITEM
Title: {{.New.Title}}
Description: {{.New.Description}}
Attributes: {{.New.Attributes}}
Location: {{.New.Location}}
Date: {{.New.Date}}

EXISTING ITEM
Title: {{.Existing.Title}}
Description: {{.Existing.Description}}
Attributes: {{.Existing.Attributes}}
Location: {{.Existing.Location}}
Date: {{.Existing.Date}}
`

func newRubric(r Rubric) *Rubric {
	r.tmpl = template.Must(template.New(r.Version).Funcs(template.FuncMap{
		"letter": func(i int) string { return string(rune('A' + i)) },
	}).Parse(promptTmpl))
	return &r
}

// Prompt renders the scoring prompt for a pair.
func (r *Rubric) Prompt(newItem, existing domain.ItemReport) (string, error) {
	var b strings.Builder
	err := r.tmpl.Execute(&b, promptData{R: r, New: toPromptItem(newItem), Existing: toPromptItem(existing)})
	if err != nil {
		return "", fmt.Errorf("rubric %s: %w", r.Version, err)
	}
	return b.String(), nil
}

func toPromptItem(it domain.ItemReport) promptItem {
	attrs, err := json.Marshal(it.Attrs())
	if err != nil {
		attrs = []byte("{}")
	}
	return promptItem{
		Title:       it.Title,
		Description: it.Description,
		Attributes:  string(attrs),
		Location:    it.Location,
		Date:        it.Date,
	}
}

// Rubrics holds the shipped rubric versions by name.
var Rubrics = map[string]*Rubric{
	"v3-stars":   v3Stars,
	"v2-buckets": v2Buckets,
}

// LookupRubric returns the rubric registered as version; "" selects
// DefaultRubricVersion.
func LookupRubric(version string) (*Rubric, error) {
	if version == "" {
		version = DefaultRubricVersion
	}
	r, ok := Rubrics[strings.ToLower(version)]
	if !ok {
		return nil, fmt.Errorf("matching: unknown rubric %q (have %s)", version, strings.Join(RubricVersions(), ", "))
	}
	return r, nil
}

// RubricVersions lists the registered versions, sorted.
func RubricVersions() []string {
	out := make([]string, 0, len(Rubrics))
	for v := range Rubrics {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

var v3Stars = newRubric(Rubric{
	Version:      "v3-stars",
	SystemPrompt: scoringSystemPrompt,
	Temperature:  0.3,
	MaxTokens:    300,
	Preamble: `You compare a lost item report with a found item report and decide how likely they describe the same physical object.

STEP 1. Give an overall star rating from 1 to 5:
1 = clearly different items, 2 = unlikely, 3 = plausible, 4 = likely, 5 = almost certainly the same item.
Each star is worth 6 points.

STEP 2. Only if the rating is 3 stars or more, add points from the buckets below. Points are never subtracted.`,
	Scoring: `Final score = stars x 6 + bucket points, capped at 100.
The justification names the strongest evidence, for example a shared serial number, engraving or sticker.`,
	Buckets: []Bucket{
		{Key: "identifiers", Name: "Unique identifiers and markings", Points: 25, Guide: "serial numbers, engravings, names, stickers or damage present in both"},
		{Key: "type", Name: "Item type and variant", Points: 15, Guide: "same kind of item and same variant"},
		{Key: "brand", Name: "Brand, make and model", Points: 14, Guide: "same brand and model"},
		{Key: "physical", Name: "Physical attributes", Points: 12, Guide: "color, size, material and condition agree"},
		{Key: "context", Name: "Context clues", Points: 9, Guide: "compatible locations, contents and accessories"},
		{Key: "date", Name: "Date proximity", Points: 5, Guide: "same day 5, 1 to 3 days apart 3, 4 to 7 days apart 1"},
	},
})

var v2Buckets = newRubric(Rubric{
	Version:      "v2-buckets",
	SystemPrompt: scoringSystemPrompt,
	Temperature:  0.3,
	MaxTokens:    300,
	Preamble: `You compare a lost item report with a found item report and decide how likely they describe the same physical object.

Award points from each bucket below. Points are never subtracted.`,
	Scoring: `Final score = sum of bucket points (0 to 100).
The justification names the strongest evidence.`,
	Buckets: []Bucket{
		{Key: "identifiers", Name: "Unique identifiers and markings", Points: 30, Guide: "serial numbers, engravings, names, stickers or damage present in both"},
		{Key: "type", Name: "Item type and variant", Points: 20, Guide: "same kind of item and same variant"},
		{Key: "brand", Name: "Brand, make and model", Points: 18, Guide: "same brand and model"},
		{Key: "physical", Name: "Physical attributes", Points: 14, Guide: "color, size, material and condition agree"},
		{Key: "context", Name: "Context clues", Points: 11, Guide: "compatible locations, contents and accessories"},
		{Key: "date", Name: "Date proximity", Points: 7, Guide: "same day 7, 1 to 3 days apart 4, 4 to 7 days apart 2"},
	},
})
