package search

import "strings"

// Jaccard returns |A ∩ B| / |A ∪ B| over the word tokens of a and b, with
// DefaultStopwords removed. Two empty inputs score 0.
func Jaccard(a, b string) float64 {
	stop := stopSet(DefaultStopwords)
	ta, tb := tokenize(a, stop), tokenize(b, stop)
	over := overlap(ta, tb)
	union := len(ta) + len(tb) - over
	if union == 0 {
		return 0
	}
	return float64(over) / float64(union)
}

// Overlap is a forgiving word-overlap ratio: the number of whitespace words
// of a that contain, or are contained in, some word of b, divided by the
// longer word count. "wallet" matches "wallets". The result is in [0,1].
func Overlap(a, b string) float64 {
	wa := strings.Fields(strings.ToLower(a))
	wb := strings.Fields(strings.ToLower(b))
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	matches := 0
	for _, x := range wa {
		for _, y := range wb {
			if strings.Contains(x, y) || strings.Contains(y, x) {
				matches++
				break
			}
		}
	}
	denom := len(wa)
	if len(wb) > denom {
		denom = len(wb)
	}
	r := float64(matches) / float64(denom)
	if r > 1 {
		r = 1
	}
	return r
}
