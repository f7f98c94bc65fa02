package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
)

// Ledger is the persistent record of compared pairs, stored in the
// match_attempts table.
type Ledger struct {
	db       *gorm.DB
	attempts int
	log      zerolog.Logger
	now      func() time.Time
}

// NewLedger returns a ledger over db retrying each write up to attempts times.
func NewLedger(db *gorm.DB, attempts int, log zerolog.Logger) *Ledger {
	return &Ledger{
		db:       db,
		attempts: attempts,
		log:      log.With().Str("component", "ledger").Logger(),
		now:      time.Now,
	}
}

// HasBeenCompared reports whether the pair already has a ledger entry, in
// either id order.
func (l *Ledger) HasBeenCompared(ctx context.Context, idA, idB string) (bool, error) {
	return repo.ComparisonExists(ctx, l.db, PairKey(idA, idB))
}

// RecordComparison upserts the outcome of scoring newItem against existing.
// Lost and found ids come from each report's kind. A pair that is not one
// lost and one found report is not recorded; that is logged and nil is
// returned.
func (l *Ledger) RecordComparison(ctx context.Context, newItem, existing domain.ItemReport, score int, matched bool, justification string) error {
	key := PairKey(newItem.ID, existing.ID)
	lost, found, ok := ResolveRoles(newItem, existing)
	if !ok {
		l.log.Warn().
			Str("match_id", key).
			Str("new_kind", newItem.LostOrFound).
			Str("existing_kind", existing.LostOrFound).
			Msg("cannot tell lost from found, comparison not recorded")
		return nil
	}

	rec := &domain.ComparisonRecord{
		MatchID:       key,
		LostID:        lost.ID,
		FoundID:       found.ID,
		Compared:      true,
		MatchScore:    clampScore(score),
		Justification: truncateRunes(justification, MaxJustificationRunes),
		Matched:       matched,
		ComparedAt:    l.now().UTC(),
	}
	err := retryWrite(ctx, l.attempts, func(ctx context.Context) error {
		return repo.UpsertComparison(ctx, l.db, rec)
	})
	if err != nil {
		return fmt.Errorf("record comparison %s: %w", key, err)
	}
	return nil
}
