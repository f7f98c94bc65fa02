// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

// ItemsStats returns aggregate metadata for the items matching f: the total
// number of rows and the maximum UpdatedAt timestamp among those rows.
//
// When nothing matches, the returned count is 0 and maxUpdatedAt is nil.
func ItemsStats(ctx context.Context, db *gorm.DB, f ItemFilter) (count int64, maxUpdatedAt *time.Time, err error) {
	newQ := func() *gorm.DB { return f.apply(db.WithContext(ctx).Model(&domain.ItemReport{})) }
	return latest(newQ, "updated_at")
}

// NotificationsStats returns the inbox size for receiverID and the newest
// notification's CreatedAt. Read-state changes are folded in through the
// unread count, so marking a notification read changes the ETag too.
func NotificationsStats(ctx context.Context, db *gorm.DB, receiverID string) (count, unread int64, maxCreatedAt *time.Time, err error) {
	newQ := func() *gorm.DB { return inbox(db.WithContext(ctx), receiverID, false) }
	count, maxCreatedAt, err = latest(newQ, "created_at")
	if err != nil || count == 0 {
		return count, 0, maxCreatedAt, err
	}
	unread, err = CountNotifications(ctx, db, receiverID, true)
	if err != nil {
		return 0, 0, nil, err
	}
	return count, unread, maxCreatedAt, nil
}

// latest counts rows of newQ and fetches the greatest value of column.
func latest(newQ func() *gorm.DB, column string) (int64, *time.Time, error) {
	var count int64
	if err := newQ().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest timestamp (avoid MAX() -> TEXT in SQLite)
	var row struct {
		TS time.Time `gorm:"column:ts"`
	}
	if err := newQ().Select(column + " AS ts").Order(column + " DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.TS, nil
}
