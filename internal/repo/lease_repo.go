// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file implements named job leases: a row per job name
// holding the current owner and an expiry. A lease is acquired by inserting
// the row, or by taking over an expired one with a conditional update, so at
// most one owner holds a live lease across processes sharing the database.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

// AcquireLease tries to take the lease name for owner until now+ttl.
// It returns true when owner holds the lease afterwards. An owner that
// already holds a live lease extends it.
func AcquireLease(ctx context.Context, db *gorm.DB, name, owner string, ttl time.Duration, now time.Time) (bool, error) {
	now = now.UTC()
	lease := &domain.JobLease{
		Name:       name,
		OwnerID:    owner,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	err := db.WithContext(ctx).Create(lease).Error
	if err == nil {
		return true, nil
	}
	if !isUniqueViolation(err) {
		return false, err
	}

	res := db.WithContext(ctx).
		Model(&domain.JobLease{}).
		Where("name = ? AND (expires_at <= ? OR owner_id = ?)", name, now, owner).
		Updates(map[string]any{
			"owner_id":    owner,
			"acquired_at": now,
			"expires_at":  now.Add(ttl),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseLease drops the lease if owner still holds it. Releasing a lease
// held by someone else is a no-op.
func ReleaseLease(ctx context.Context, db *gorm.DB, name, owner string) error {
	return db.WithContext(ctx).
		Where("name = ? AND owner_id = ?", name, owner).
		Delete(&domain.JobLease{}).Error
}
