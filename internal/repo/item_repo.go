// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ItemReport
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an item is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreateItem(ctx, db, item) -> error
//     Inserts a new ItemReport, assigning a UUID and UTC timestamps when unset.
//
//   - GetItem(ctx, db, id) -> *domain.ItemReport, error
//     Fetches a single item by ID, or ErrNotFound if missing.
//
//   - GetItemsByIDs(ctx, db, ids) -> []domain.ItemReport, error
//     Batch lookup used to expand confirmed matches.
//
//   - ListCandidatePool(ctx, db, category, subcategory) -> []domain.ItemReport, error
//     Returns active items in the given category/subcategory (the matching pool).
//
//   - CountItems / ListItemsPage(ctx, db, filter, ...)
//     Paginated feed with optional kind/category/owner/status filters.
//
//   - ListActiveItemsAfter(ctx, db, afterID, limit) -> []domain.ItemReport, error
//     Keyset iteration over active items, used by the matching sweep.
//
//   - UpdateItemStatus(ctx, db, id, userID, status) -> error
//     Changes the lifecycle status of an item owned by userID.
//
//   - CountByCategory(ctx, db) -> []CategoryCount, error
//     Per-(category, subcategory) counts of active items.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ItemFilter narrows item listings. Empty fields are ignored.
type ItemFilter struct {
	LostOrFound string
	Category    string
	Subcategory string
	UserID      string
	Status      string
}

func (f ItemFilter) apply(q *gorm.DB) *gorm.DB {
	if f.LostOrFound != "" {
		q = q.Where("LOWER(lost_or_found) = ?", strings.ToLower(f.LostOrFound))
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Subcategory != "" {
		q = q.Where("subcategory = ?", f.Subcategory)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// CategoryCount is one row of the per-category aggregate.
type CategoryCount struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Count       int64  `json:"count"`
}

// CreateItem inserts a new item report. ID, Status and timestamps are filled
// in when empty.
func CreateItem(ctx context.Context, db *gorm.DB, it *domain.ItemReport) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Status == "" {
		it.Status = domain.StatusActive
	}
	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = now
	}
	return db.WithContext(ctx).Create(it).Error
}

// GetItem fetches a single item by ID.
func GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.ItemReport, error) {
	var it domain.ItemReport
	if err := db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// ListCandidatePool returns all active items sharing category and
// subcategory, oldest first. Kind, identity and date filtering is left to
// the candidate selector.
func ListCandidatePool(ctx context.Context, db *gorm.DB, category, subcategory string) ([]domain.ItemReport, error) {
	var out []domain.ItemReport
	err := db.WithContext(ctx).
		Where("category = ? AND subcategory = ? AND status = ?", category, subcategory, domain.StatusActive).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// GetItemsByIDs returns the items whose id is in ids, in no particular order.
// Unknown ids are ignored.
func GetItemsByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.ItemReport, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.ItemReport
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// CountItems returns the number of items matching f.
func CountItems(ctx context.Context, db *gorm.DB, f ItemFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.ItemReport{})).Count(&total).Error
	return total, err
}

// ListItemsPage returns a page of items matching f, newest first.
func ListItemsPage(ctx context.Context, db *gorm.DB, f ItemFilter, offset, limit int) ([]domain.ItemReport, error) {
	var out []domain.ItemReport
	err := f.apply(db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListActiveItemsAfter returns up to limit active items with id > afterID,
// ordered by id. Pass "" to start from the beginning.
func ListActiveItemsAfter(ctx context.Context, db *gorm.DB, afterID string, limit int) ([]domain.ItemReport, error) {
	var out []domain.ItemReport
	err := db.WithContext(ctx).
		Where("status = ? AND id > ?", domain.StatusActive, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateItemStatus sets the status of an item owned by userID. It returns
// ErrNotFound when no row matches.
func UpdateItemStatus(ctx context.Context, db *gorm.DB, id, userID, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.ItemReport{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByCategory returns active item counts grouped by category and
// subcategory.
func CountByCategory(ctx context.Context, db *gorm.DB) ([]CategoryCount, error) {
	var out []CategoryCount
	err := db.WithContext(ctx).
		Model(&domain.ItemReport{}).
		Select("category, subcategory, COUNT(*) AS count").
		Where("status = ?", domain.StatusActive).
		Group("category, subcategory").
		Order("category ASC, subcategory ASC").
		Scan(&out).Error
	return out, err
}
