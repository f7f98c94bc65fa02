// Package extraction turns free-text item reports into structured data: an
// attribute record (what the item is) and a taxonomy placement (where it is
// filed). Both stages ask a language model first and fall back to local
// heuristics, so a report is always storable and matchable.
package extraction

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/tbourn/go-lostfound-backend/internal/search"
)

// Node is a taxonomy entry with optional children.
type Node struct {
	Name     string `json:"name"`
	Children []Node `json:"children,omitempty"`
}

// Assignment is a category placement. SubSubcategory may be empty.
type Assignment struct {
	Category       string `json:"category"`
	Subcategory    string `json:"subcategory"`
	SubSubcategory string `json:"sub_subcategory,omitempty"`
}

// Fallback is the placement used when nothing better is known.
var Fallback = Assignment{Category: "Miscellaneous", Subcategory: "Other", SubSubcategory: "Unknown Items"}

type leafEntry struct {
	name  string
	words []string
}

type subEntry struct {
	name   string
	words  []string
	leaves map[string]leafEntry
	order  []string
}

type catEntry struct {
	name  string
	subs  map[string]*subEntry
	order []string
}

// Taxonomy is an immutable three-level category tree with case-insensitive
// lookup. It is safe for concurrent use.
type Taxonomy struct {
	roots []Node
	cats  map[string]*catEntry
	order []string
}

// NewTaxonomy indexes roots. Later duplicates of a name at the same level
// are merged into the first.
func NewTaxonomy(roots []Node) *Taxonomy {
	t := &Taxonomy{roots: roots, cats: make(map[string]*catEntry)}
	for _, c := range roots {
		ck := fold(c.Name)
		ce, ok := t.cats[ck]
		if !ok {
			ce = &catEntry{name: strings.TrimSpace(c.Name), subs: make(map[string]*subEntry)}
			t.cats[ck] = ce
			t.order = append(t.order, ck)
		}
		for _, s := range c.Children {
			sk := fold(s.Name)
			se, ok := ce.subs[sk]
			if !ok {
				se = &subEntry{name: strings.TrimSpace(s.Name), words: keywords(s.Name), leaves: make(map[string]leafEntry)}
				ce.subs[sk] = se
				ce.order = append(ce.order, sk)
			}
			for _, l := range s.Children {
				lk := fold(l.Name)
				if _, dup := se.leaves[lk]; dup {
					continue
				}
				se.leaves[lk] = leafEntry{name: strings.TrimSpace(l.Name), words: keywords(l.Name)}
				se.order = append(se.order, lk)
			}
		}
	}
	return t
}

// Roots returns the tree as configured.
func (t *Taxonomy) Roots() []Node { return t.roots }

// Categories returns the top-level names in tree order.
func (t *Taxonomy) Categories() []string {
	out := make([]string, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.cats[k].name)
	}
	return out
}

// Resolve maps possibly mis-cased labels to their canonical names. Category
// and subcategory must exist; an unknown sub-subcategory is dropped.
func (t *Taxonomy) Resolve(category, subcategory, subSub string) (Assignment, bool) {
	ce, ok := t.cats[fold(category)]
	if !ok {
		return Assignment{}, false
	}
	se, ok := ce.subs[fold(subcategory)]
	if !ok {
		return Assignment{}, false
	}
	out := Assignment{Category: ce.name, Subcategory: se.name}
	if l, ok := se.leaves[fold(subSub)]; ok {
		out.SubSubcategory = l.name
	}
	return out, true
}

// Guess places text by keyword overlap with subcategory and leaf names.
// A fully matched leaf outranks its subcategory, a partially matched one
// does not. Ties go to the earlier entry in tree order.
func (t *Taxonomy) Guess(text string) (Assignment, bool) {
	have := make(map[string]struct{})
	for _, w := range search.Tokens(text) {
		have[singular(w)] = struct{}{}
	}
	if len(have) == 0 {
		return Assignment{}, false
	}

	var (
		best      Assignment
		bestScore int
	)
	consider := func(a Assignment, words []string, leaf bool) {
		n := matched(words, have)
		if n == 0 {
			return
		}
		s := n * 2
		if leaf {
			if n == len(words) {
				s++
			} else {
				s--
			}
		}
		if s > bestScore {
			best, bestScore = a, s
		}
	}
	for _, ck := range t.order {
		ce := t.cats[ck]
		for _, sk := range ce.order {
			se := ce.subs[sk]
			consider(Assignment{Category: ce.name, Subcategory: se.name}, se.words, false)
			for _, lk := range se.order {
				l := se.leaves[lk]
				consider(Assignment{Category: ce.name, Subcategory: se.name, SubSubcategory: l.name}, l.words, true)
			}
		}
	}
	return best, bestScore > 0
}

// Render formats the tree as an indented bullet list for prompts:
//
//	- Electronics
//	  - Mobile Phones: Android Phones, iPhones
func (t *Taxonomy) Render() string {
	var b strings.Builder
	for _, ck := range t.order {
		ce := t.cats[ck]
		b.WriteString("- ")
		b.WriteString(ce.name)
		b.WriteByte('\n')
		for _, sk := range ce.order {
			se := ce.subs[sk]
			b.WriteString("  - ")
			b.WriteString(se.name)
			if len(se.order) > 0 {
				names := make([]string, 0, len(se.order))
				for _, lk := range se.order {
					names = append(names, se.leaves[lk].name)
				}
				b.WriteString(": ")
				b.WriteString(strings.Join(names, ", "))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

var ignoredWords = map[string]struct{}{"and": {}, "other": {}, "item": {}, "unknown": {}}

func keywords(name string) []string {
	var out []string
	for _, w := range search.Tokens(name) {
		w = singular(w)
		if len(w) < 2 {
			continue
		}
		if _, skip := ignoredWords[w]; skip {
			continue
		}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func matched(words []string, have map[string]struct{}) int {
	n := 0
	for _, w := range words {
		if _, ok := have[w]; ok {
			n++
		}
	}
	return n
}

// singular strips common English plural endings so "wallets" and "wallet"
// compare equal.
func singular(w string) string {
	switch {
	case len(w) > 4 && (strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") ||
		strings.HasSuffix(w, "sses") || strings.HasSuffix(w, "xes")):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}
