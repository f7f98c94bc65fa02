package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
)

// Notifier creates a ConfirmedMatch and one notification per owner for a
// qualifying pair.
type Notifier struct {
	db       *gorm.DB
	attempts int
	log      zerolog.Logger
	now      func() time.Time
}

// NewNotifier returns a notifier over db retrying each write up to attempts times.
func NewNotifier(db *gorm.DB, attempts int, log zerolog.Logger) *Notifier {
	return &Notifier{
		db:       db,
		attempts: attempts,
		log:      log.With().Str("component", "notifier").Logger(),
		now:      time.Now,
	}
}

// Notify writes the confirmed match and its two notifications atomically.
// A pair that already has a confirmed match counts as notified. A pair whose
// roles cannot be resolved is logged and skipped without writing.
func (n *Notifier) Notify(ctx context.Context, newItem, existing domain.ItemReport, score int, justification string, confidence domain.Confidence) error {
	key := PairKey(newItem.ID, existing.ID)
	lost, found, ok := ResolveRoles(newItem, existing)
	if !ok {
		notifyOutcomes.WithLabelValues("skipped").Inc()
		n.log.Warn().
			Str("match_id", key).
			Str("new_kind", newItem.LostOrFound).
			Str("existing_kind", existing.LostOrFound).
			Msg("cannot tell lost from found, no notification sent")
		return nil
	}

	score = clampScore(score)
	justification = truncateRunes(justification, MaxJustificationRunes)
	now := n.now().UTC()

	m := &domain.ConfirmedMatch{
		MatchID:       key,
		LostID:        lost.ID,
		FoundID:       found.ID,
		Similarity:    score,
		Confidence:    confidence,
		Justification: justification,
		CreatedAt:     now,
	}
	note := func(receiver, role string) domain.Notification {
		return domain.Notification{
			ReceiverID:    receiver,
			ReceiverRole:  role,
			LostItemID:    lost.ID,
			FoundItemID:   found.ID,
			Similarity:    score,
			Confidence:    confidence,
			Justification: justification,
			CreatedAt:     now,
		}
	}
	notes := []domain.Notification{
		note(lost.UserID, domain.RoleLostOwner),
		note(found.UserID, domain.RoleFoundOwner),
	}

	err := retryWrite(ctx, n.attempts, func(ctx context.Context) error {
		return repo.CreateConfirmedMatch(ctx, n.db, m, notes)
	})
	switch {
	case err == nil:
		notifyOutcomes.WithLabelValues("created").Inc()
		n.log.Info().
			Str("match_id", key).
			Str("lost_id", lost.ID).
			Str("found_id", found.ID).
			Int("score", score).
			Str("confidence", string(confidence)).
			Msg("match confirmed, owners notified")
		return nil
	case errors.Is(err, repo.ErrDuplicate):
		notifyOutcomes.WithLabelValues("duplicate").Inc()
		n.log.Debug().Str("match_id", key).Msg("match already confirmed")
		return nil
	default:
		notifyOutcomes.WithLabelValues("error").Inc()
		return fmt.Errorf("notify %s: %w", key, err)
	}
}
