package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
)

// MatchService lists confirmed matches.
type MatchService struct {
	DB *gorm.DB
}

func NewMatchService(db *gorm.DB) *MatchService {
	return &MatchService{DB: db}
}

// ListPage returns confirmed matches involving any item owned by userID,
// newest first.
func (s *MatchService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ConfirmedMatch, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountMatchesForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ConfirmedMatch{}, 0, nil
	}
	items, err := repo.ListMatchesForUserPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}
