package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// seedItem inserts an active item with sensible defaults; mutate tweaks it
// before insertion.
func seedItem(t *testing.T, db *gorm.DB, mutate func(*domain.ItemReport)) *domain.ItemReport {
	t.Helper()
	it := &domain.ItemReport{
		ID:          uuid.NewString(),
		LostOrFound: "Lost",
		Title:       "Black leather wallet",
		Description: "Lost near the station",
		Location:    "Central Station",
		Date:        "2025-03-10",
		Category:    "Personal Items",
		Subcategory: "Wallets",
		UserID:      "u1",
		Status:      domain.StatusActive,
	}
	if mutate != nil {
		mutate(it)
	}
	if err := CreateItem(context.Background(), db, it); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return it
}

func TestItemsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := ItemsStats(context.Background(), db, ItemFilter{UserID: "u1"})
	if err == nil {
		t.Fatalf("expected error due to missing items table")
	}
}

func TestItemsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.ItemReport{})
	count, maxAt, err := ItemsStats(context.Background(), db, ItemFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("ItemsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestItemsStats_Success_FilterAndMax(t *testing.T) {
	db := newTestDB(t, &domain.ItemReport{})

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for u1
	t3 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)   // other user

	seedItem(t, db, func(it *domain.ItemReport) { it.CreatedAt, it.UpdatedAt = t1, t1 })
	seedItem(t, db, func(it *domain.ItemReport) { it.CreatedAt, it.UpdatedAt = t2, t2 })
	seedItem(t, db, func(it *domain.ItemReport) { it.UserID = "u2"; it.CreatedAt, it.UpdatedAt = t3, t3 })

	count, maxAt, err := ItemsStats(context.Background(), db, ItemFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("ItemsStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected maxUpdatedAt %v, got %v", t2, maxAt)
	}
}

// Force the second query (SELECT updated_at ...) to fail by renaming the column.
func TestItemsStats_SelectLatest_ErrorPath(t *testing.T) {
	db := newTestDB(t, &domain.ItemReport{})
	seedItem(t, db, nil)

	if err := db.Exec(`ALTER TABLE items RENAME COLUMN updated_at TO updated_at_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}

	_, _, err := ItemsStats(context.Background(), db, ItemFilter{})
	if err == nil {
		t.Fatalf("expected error from latest-updated select after column rename")
	}
}

func TestNotificationsStats_CountsUnread(t *testing.T) {
	db := newTestDB(t, &domain.Notification{})
	ctx := context.Background()

	count, unread, maxAt, err := NotificationsStats(ctx, db, "u1")
	if err != nil || count != 0 || unread != 0 || maxAt != nil {
		t.Fatalf("empty inbox: got (%d,%d,%v,%v)", count, unread, maxAt, err)
	}

	t1 := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC)
	for i, ts := range []time.Time{t1, t2} {
		n := domain.Notification{
			ID: uuid.NewString(), MatchID: fmt.Sprintf("m%d", i), ReceiverID: "u1", ReceiverRole: domain.RoleLostOwner,
			LostItemID: "l", FoundItemID: "f", Similarity: 80, Confidence: domain.ConfidenceHigh, CreatedAt: ts,
		}
		if err := db.Create(&n).Error; err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}
	if err := db.Model(&domain.Notification{}).Where("match_id = ?", "m0").Update("is_read", true).Error; err != nil {
		t.Fatalf("mark read: %v", err)
	}

	count, unread, maxAt, err = NotificationsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("NotificationsStats: %v", err)
	}
	if count != 2 || unread != 1 || maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("got (%d,%d,%v); want (2,1,%v)", count, unread, maxAt, t2)
	}
}
