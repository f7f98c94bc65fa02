// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the per-user notification inbox.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

func inbox(db *gorm.DB, receiverID string, unreadOnly bool) *gorm.DB {
	q := db.Model(&domain.Notification{}).Where("receiver_id = ?", receiverID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	return q
}

// CountNotifications returns the size of receiverID's inbox (optionally
// only unread entries).
func CountNotifications(ctx context.Context, db *gorm.DB, receiverID string, unreadOnly bool) (int64, error) {
	var total int64
	err := inbox(db.WithContext(ctx), receiverID, unreadOnly).Count(&total).Error
	return total, err
}

// ListNotificationsPage returns a page of receiverID's notifications,
// newest first.
func ListNotificationsPage(ctx context.Context, db *gorm.DB, receiverID string, unreadOnly bool, offset, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := inbox(db.WithContext(ctx), receiverID, unreadOnly).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListNotificationsForMatch returns every notification issued for matchID.
func ListNotificationsForMatch(ctx context.Context, db *gorm.DB, matchID string) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("receiver_role ASC").
		Find(&out).Error
	return out, err
}

// MarkNotificationRead flags a notification as read. Only the receiver can
// do so; otherwise ErrNotFound is returned.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, id, receiverID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND receiver_id = ?", id, receiverID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Notification{}).
			Where("id = ? AND receiver_id = ?", id, receiverID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}
