package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
)

// NotificationService reads and acknowledges a user's match notifications.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// ListPage returns a page of the user's notifications, newest first.
func (s *NotificationService) ListPage(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountNotifications(ctx, s.DB, userID, unreadOnly)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Notification{}, 0, nil
	}
	items, err := repo.ListNotificationsPage(ctx, s.DB, userID, unreadOnly, (page-1)*pageSize, pageSize)
	return items, total, err
}

// UnreadCount returns how many unread notifications the user has.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return repo.CountNotifications(ctx, s.DB, userID, true)
}

// MarkRead marks one of the user's notifications as read. Marking an
// already read notification succeeds.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	err := repo.MarkNotificationRead(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}
