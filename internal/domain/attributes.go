package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Unknown is the placeholder used for attribute values that could not be
// determined.
const Unknown = "unknown"

// AttributeRecord is the canonical structured description of an item.
// Every extractor output is normalized into this shape before storage, so
// the scorer and the UI never see provider-specific field names.
type AttributeRecord struct {
	ItemType          string   `json:"itemType"`
	Color             string   `json:"color,omitempty"`
	BrandModel        string   `json:"brandModel,omitempty"`
	SizeDimensions    string   `json:"sizeDimensions,omitempty"`
	Material          string   `json:"material,omitempty"`
	UniqueIdentifiers []string `json:"uniqueIdentifiers,omitempty"`
	Accessories       []string `json:"accessories,omitempty"`
	Contents          []string `json:"contents,omitempty"`
	Condition         string   `json:"condition,omitempty"`
	AdditionalDetails string   `json:"additionalDetails,omitempty"`
}

// Complete reports whether the record carries the minimum required field.
func (a AttributeRecord) Complete() bool {
	v := strings.TrimSpace(a.ItemType)
	return v != "" && !strings.EqualFold(v, Unknown)
}

// aliases maps lowercased loose field names to canonical keys.
var aliases = map[string]string{
	"itemtype":           "itemType",
	"item_type":          "itemType",
	"type":               "itemType",
	"item type":          "itemType",
	"color":              "color",
	"colour":             "color",
	"brandmodel":         "brandModel",
	"brand/model":        "brandModel",
	"brand_model":        "brandModel",
	"brand model":        "brandModel",
	"sizedimensions":     "sizeDimensions",
	"size/dimensions":    "sizeDimensions",
	"size_dimensions":    "sizeDimensions",
	"size":               "sizeDimensions",
	"dimensions":         "sizeDimensions",
	"material":           "material",
	"uniqueidentifiers":  "uniqueIdentifiers",
	"unique_identifiers": "uniqueIdentifiers",
	"unique identifiers": "uniqueIdentifiers",
	"identifiers":        "uniqueIdentifiers",
	"accessories":        "accessories",
	"contents":           "contents",
	"condition":          "condition",
	"additionaldetails":  "additionalDetails",
	"additional_details": "additionalDetails",
	"additional details": "additionalDetails",
	"details":            "additionalDetails",
}

// NormalizeAttributes folds a loosely keyed attribute object (as returned by
// an extraction model) into an AttributeRecord. Unknown keys are appended to
// AdditionalDetails in key order. Separate "brand" and "model" keys are joined.
// List fields accept either JSON arrays or comma-separated strings.
func NormalizeAttributes(raw map[string]any) AttributeRecord {
	var (
		out          AttributeRecord
		brand, model string
		extra        []string
	)

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := raw[k]
		lk := strings.ToLower(strings.TrimSpace(k))
		switch lk {
		case "brand":
			brand = scalar(v)
			continue
		case "model":
			model = scalar(v)
			continue
		}
		canon, ok := aliases[lk]
		if !ok {
			if s := scalar(v); s != "" {
				extra = append(extra, k+": "+s)
			}
			continue
		}
		switch canon {
		case "itemType":
			out.ItemType = scalar(v)
		case "color":
			out.Color = scalar(v)
		case "brandModel":
			out.BrandModel = scalar(v)
		case "sizeDimensions":
			out.SizeDimensions = scalar(v)
		case "material":
			out.Material = scalar(v)
		case "uniqueIdentifiers":
			out.UniqueIdentifiers = list(v)
		case "accessories":
			out.Accessories = list(v)
		case "contents":
			out.Contents = list(v)
		case "condition":
			out.Condition = scalar(v)
		case "additionalDetails":
			out.AdditionalDetails = scalar(v)
		}
	}

	if out.BrandModel == "" {
		out.BrandModel = strings.TrimSpace(strings.TrimSpace(brand) + " " + strings.TrimSpace(model))
	}
	if len(extra) > 0 {
		joined := strings.Join(extra, "; ")
		if out.AdditionalDetails == "" {
			out.AdditionalDetails = joined
		} else {
			out.AdditionalDetails += "; " + joined
		}
	}
	return out
}

// scalar renders v as a trimmed string. Lists are comma-joined; nil is "".
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		return strings.Join(list(t), ", ")
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// list renders v as a slice of non-empty trimmed strings. Strings are split
// on commas; "none"/"n/a"/"unknown" entries are dropped.
func list(v any) []string {
	var parts []string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []any:
		for _, e := range t {
			parts = append(parts, scalar(e))
		}
	default:
		parts = []string{scalar(t)}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch strings.ToLower(p) {
		case "", "none", "n/a", Unknown:
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
