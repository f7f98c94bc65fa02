package matching

import (
	"time"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

// DefaultWindowDays is the largest date difference, in calendar days, at
// which two reports can still be candidates.
const DefaultWindowDays = 30

// Selector narrows a category pool to plausible counterparts of a new report.
type Selector struct {
	// WindowDays bounds |newItem.Date - candidate.Date|. Negative means
	// DefaultWindowDays; zero means same day only.
	WindowDays int
}

// SelectCandidates keeps the pool items that are not newItem itself, are of
// the opposite kind, share category and subcategory, and were reported
// within WindowDays of newItem. The sub-subcategory is not compared. Items
// whose date does not parse are dropped, and a newItem whose own date or
// kind does not parse selects nothing. The result preserves pool order.
func (s Selector) SelectCandidates(newItem domain.ItemReport, pool []domain.ItemReport) []domain.ItemReport {
	window := s.WindowDays
	if window < 0 {
		window = DefaultWindowDays
	}
	kind, ok := newItem.Kind()
	if !ok {
		return nil
	}
	day, err := newItem.Day()
	if err != nil {
		return nil
	}

	var out []domain.ItemReport
	for _, it := range pool {
		if it.ID == newItem.ID {
			continue
		}
		k, ok := it.Kind()
		if !ok || k == kind {
			continue
		}
		if !sameLabel(it.Category, newItem.Category) || !sameLabel(it.Subcategory, newItem.Subcategory) {
			continue
		}
		d, err := it.Day()
		if err != nil {
			continue
		}
		if dayDiff(day, d) > window {
			continue
		}
		out = append(out, it)
	}
	return out
}

// dayDiff returns the absolute number of calendar days between two dates
// parsed with domain.DateLayout.
func dayDiff(a, b time.Time) int {
	d := int(a.Sub(b).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}
