package search

import (
	"math"
	"testing"
)

// ---------- Options + defaultConfig ----------
func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.minDocRunes != 0 || def.stopwords != nil || def.maxDocs != 0 {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}

	cfg := def
	WithMinDocRunes(10)(&cfg)
	if cfg.minDocRunes != 10 {
		t.Fatalf("WithMinDocRunes failed: %d", cfg.minDocRunes)
	}
	WithMinDocRunes(-5)(&cfg) // no-op
	if cfg.minDocRunes != 10 {
		t.Fatalf("negative minDocRunes should be ignored")
	}

	WithStopwords([]string{"  The ", "", "An"})(&cfg)
	if _, ok := cfg.stopwords["the"]; !ok {
		t.Fatalf("WithStopwords failed (missing 'the'): %#v", cfg.stopwords)
	}

	cfg2 := def
	WithStopwords(nil)(&cfg2)
	if cfg2.stopwords != nil {
		t.Fatalf("empty stopwords should remain nil")
	}

	WithMaxDocs(2)(&cfg)
	WithMaxDocs(0)(&cfg) // no-op
	if cfg.maxDocs != 2 {
		t.Fatalf("WithMaxDocs failed: %d", cfg.maxDocs)
	}
}

// ---------- NewIndex + TopK ----------
func TestTopK_RanksByJaccard(t *testing.T) {
	idx := NewIndex([]Document{
		{ID: "wallet", Text: "Black leather wallet with ID cards"},
		{ID: "keys", Text: "Silver keys on a red lanyard"},
		{ID: "bag", Text: "Black backpack"},
		{ID: "empty", Text: "   "},
	}, WithStopwords(DefaultStopwords))

	if idx.Len() != 3 {
		t.Fatalf("expected 3 indexed docs, got %d", idx.Len())
	}
	res := idx.TopK("black wallet", 5)
	if len(res) != 2 {
		t.Fatalf("expected 2 hits, got %+v", res)
	}
	if res[0].ID != "wallet" || res[1].ID != "bag" {
		t.Fatalf("unexpected order: %+v", res)
	}
	if res[0].Score <= res[1].Score {
		t.Fatalf("scores not descending: %+v", res)
	}
}

func TestTopK_TiesAreDeterministic(t *testing.T) {
	idx := NewIndex([]Document{
		{ID: "b", Text: "blue umbrella"},
		{ID: "a", Text: "blue umbrella"},
		{ID: "c", Text: "blue umbrella folded"},
	})
	res := idx.TopK("blue umbrella", 0)
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
	if res[0].ID != "a" || res[1].ID != "b" || res[2].ID != "c" {
		t.Fatalf("tie-breaking not by length then id: %+v", res)
	}
}

func TestTopK_EmptyInputs(t *testing.T) {
	if NewIndex(nil).TopK("anything", 3) != nil {
		t.Fatalf("empty index must return nil")
	}
	idx := NewIndex([]Document{{ID: "x", Text: "phone"}})
	if idx.TopK("   ", 3) != nil {
		t.Fatalf("blank query must return nil")
	}
	if idx.TopK("!!!", 3) != nil {
		t.Fatalf("query without tokens must return nil")
	}
	if idx.TopK("laptop", 3) != nil {
		t.Fatalf("no overlap must return nil")
	}
}

func TestNewIndex_MinRunesAndMaxDocs(t *testing.T) {
	docs := []Document{
		{ID: "short", Text: "pen"},
		{ID: "one", Text: "grey wool scarf"},
		{ID: "two", Text: "grey cotton scarf"},
	}
	if n := NewIndex(docs, WithMinDocRunes(5)).Len(); n != 2 {
		t.Fatalf("min runes: expected 2 docs, got %d", n)
	}
	if n := NewIndex(docs, WithMaxDocs(1)).Len(); n != 1 {
		t.Fatalf("max docs: expected 1 doc, got %d", n)
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("iPhone 13, iPhone   case")
	want := []string{"13", "case", "iphone"}
	if len(got) != len(want) {
		t.Fatalf("Tokens = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokens = %v; want %v", got, want)
		}
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := normalizeWhitespace("a \t\n b"); got != "a b" {
		t.Fatalf("normalizeWhitespace = %q", got)
	}
}

// ---------- similarity helpers ----------
func TestJaccard(t *testing.T) {
	if got := Jaccard("black wallet", "black wallet"); got != 1 {
		t.Fatalf("identical = %v", got)
	}
	if got := Jaccard("the black wallet", "a brown wallet"); math.Abs(got-1.0/3.0) > 1e-9 {
		t.Fatalf("partial = %v; want 1/3", got)
	}
	if got := Jaccard("", ""); got != 0 {
		t.Fatalf("empty = %v", got)
	}
}

func TestOverlap(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"Black wallet", "black wallets", 1},
		{"blue umbrella", "red umbrella with handle", 0.25},
		{"", "x", 0},
		{"keys", "phone", 0},
	}
	for _, c := range cases {
		if got := Overlap(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("Overlap(%q,%q) = %v; want %v", c.a, c.b, got, c.want)
		}
	}
}
