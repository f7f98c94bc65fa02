// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file persists confirmed matches together with their
// two owner notifications.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

// CreateConfirmedMatch inserts m and its notifications in one transaction.
// Missing IDs are generated and every notification inherits m.MatchID.
// If a confirmed match for the same pair already exists, nothing is written
// and ErrDuplicate is returned.
func CreateConfirmedMatch(ctx context.Context, db *gorm.DB, m *domain.ConfirmedMatch, notes []domain.Notification) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	for i := range notes {
		if notes[i].ID == "" {
			notes[i].ID = uuid.NewString()
		}
		notes[i].MatchID = m.MatchID
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if len(notes) == 0 {
			return nil
		}
		return tx.Create(&notes).Error
	})
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetConfirmedMatchByPair returns the confirmed match for matchID, or ErrNotFound.
func GetConfirmedMatchByPair(ctx context.Context, db *gorm.DB, matchID string) (*domain.ConfirmedMatch, error) {
	var m domain.ConfirmedMatch
	if err := db.WithContext(ctx).Where("match_id = ?", matchID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// userMatchScope restricts confirmed matches to those involving an item
// owned by userID.
func userMatchScope(db *gorm.DB, userID string) *gorm.DB {
	owned := db.Session(&gorm.Session{NewDB: true}).
		Model(&domain.ItemReport{}).
		Select("id").
		Where("user_id = ?", userID)
	return db.Where("lost_id IN (?) OR found_id IN (?)", owned, owned)
}

// CountMatchesForUser returns the number of confirmed matches involving any
// item owned by userID.
func CountMatchesForUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.ConfirmedMatch{})
	err := userMatchScope(q, userID).Count(&total).Error
	return total, err
}

// ListMatchesForUserPage returns a page of confirmed matches involving items
// owned by userID, newest first.
func ListMatchesForUserPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ConfirmedMatch, error) {
	var out []domain.ConfirmedMatch
	err := userMatchScope(db.WithContext(ctx), userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListConfirmedMatchesForItem returns the confirmed matches itemID takes
// part in, best first.
func ListConfirmedMatchesForItem(ctx context.Context, db *gorm.DB, itemID string) ([]domain.ConfirmedMatch, error) {
	var out []domain.ConfirmedMatch
	err := db.WithContext(ctx).
		Where("lost_id = ? OR found_id = ?", itemID, itemID).
		Order("similarity DESC, created_at ASC").
		Find(&out).Error
	return out, err
}
