// Package matching pairs new lost/found reports with existing ones. It
// selects candidates, asks a Scorer how alike two reports are, classifies
// the score, records every comparison in a ledger and notifies both owners
// when a pair qualifies.
package matching

import (
	"strings"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

// PairKey returns the order-independent key for two item ids: the ids sorted
// as strings and joined with "_". PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// ResolveRoles decides which of a and b is the lost report and which the
// found one, going by each report's LostOrFound value and never by argument
// position. ok is false unless exactly one of them is lost and the other
// found.
func ResolveRoles(a, b domain.ItemReport) (lost, found domain.ItemReport, ok bool) {
	ka, okA := a.Kind()
	kb, okB := b.Kind()
	if !okA || !okB || ka == kb {
		return domain.ItemReport{}, domain.ItemReport{}, false
	}
	if ka == domain.KindLost {
		return a, b, true
	}
	return b, a, true
}

// sameLabel compares taxonomy labels ignoring case and surrounding space.
func sameLabel(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
