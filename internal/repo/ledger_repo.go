// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the comparison ledger: one row per
// scored lost/found pair, keyed by the order-independent pair key.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

// GetComparison fetches the ledger entry for matchID, or ErrNotFound.
func GetComparison(ctx context.Context, db *gorm.DB, matchID string) (*domain.ComparisonRecord, error) {
	var rec domain.ComparisonRecord
	if err := db.WithContext(ctx).Where("match_id = ?", matchID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// ComparisonExists reports whether a ledger entry exists for matchID.
func ComparisonExists(ctx context.Context, db *gorm.DB, matchID string) (bool, error) {
	var rec domain.ComparisonRecord
	err := db.WithContext(ctx).
		Select("match_id").
		Where("match_id = ?", matchID).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpsertComparison writes rec, replacing every column of an existing row
// with the same match_id. Repeating the call with the same payload leaves
// exactly one row.
func UpsertComparison(ctx context.Context, db *gorm.DB, rec *domain.ComparisonRecord) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "match_id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
}

// CountComparisons returns the number of ledger rows; used by tests and the
// sweep report.
func CountComparisons(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.ComparisonRecord{}).Count(&n).Error
	return n, err
}

// ListUnconfirmedMatches returns up to limit matched ledger rows that have
// no confirmed match, oldest first.
func ListUnconfirmedMatches(ctx context.Context, db *gorm.DB, limit int) ([]domain.ComparisonRecord, error) {
	confirmed := db.Session(&gorm.Session{NewDB: true}).
		Model(&domain.ConfirmedMatch{}).
		Select("match_id")
	var out []domain.ComparisonRecord
	err := db.WithContext(ctx).
		Where("matched = ?", true).
		Where("match_id NOT IN (?)", confirmed).
		Order("compared_at ASC, match_id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
