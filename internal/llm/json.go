package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	// ```json\n{...}\n```, ```{...}```, ``` json{...}```
	codeFenceStartRegex = regexp.MustCompile("(?s)^`{3}(?:json|javascript|js)?\\s*\\n?([\\s\\S]*?)\\n?`{3}\\s*$")
	codeFenceAnyRegex   = regexp.MustCompile("(?s)`{3}(?:json|javascript|js)?\\s*\\n?([\\s\\S]*?)\\n?`{3}")

	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	objectRegex        = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// ErrNoJSONObject is returned when no JSON object can be found in a completion.
var ErrNoJSONObject = errors.New("llm: no JSON object in response")

// ExtractObject returns the JSON object embedded in text, tolerating code
// fences, surrounding prose and trailing commas. ok is false when nothing
// that parses as an object was found.
func ExtractObject(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	candidates := []string{trimmed}

	if m := codeFenceStartRegex.FindStringSubmatch(trimmed); len(m) == 2 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	} else if m := codeFenceAnyRegex.FindStringSubmatch(trimmed); len(m) == 2 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := objectRegex.FindString(trimmed); m != "" {
		candidates = append(candidates, m)
	}

	for _, c := range candidates {
		for _, v := range []string{c, trailingCommaRegex.ReplaceAllString(c, "$1")} {
			if isObject(v) {
				return v, true
			}
		}
	}
	return "", false
}

// DecodeObject extracts the JSON object from text and unmarshals it into v.
func DecodeObject(text string, v any) error {
	obj, ok := ExtractObject(text)
	if !ok {
		return ErrNoJSONObject
	}
	return json.Unmarshal([]byte(obj), v)
}

func isObject(s string) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	var m map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &m) == nil
}
