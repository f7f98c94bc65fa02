package matching

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v5"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
)

func init() {
	newWriteBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:matching_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection: orchestrator workers write concurrently and shared-cache
	// sqlite reports table locks instead of waiting.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// report builds an active item; mutate tweaks it.
func report(id, kind, date string, mutate ...func(*domain.ItemReport)) domain.ItemReport {
	it := domain.ItemReport{
		ID:          id,
		LostOrFound: kind,
		Title:       "Black leather wallet",
		Description: "Black leather wallet with initials JD engraved",
		Location:    "Central Station",
		Date:        date,
		Category:    "Electronics",
		Subcategory: "Mobile Phones",
		UserID:      "user-" + id,
		Status:      domain.StatusActive,
	}
	for _, m := range mutate {
		m(&it)
	}
	return it
}

func seed(t *testing.T, db *gorm.DB, items ...domain.ItemReport) {
	t.Helper()
	for i := range items {
		if err := repo.CreateItem(context.Background(), db, &items[i]); err != nil {
			t.Fatalf("seed %s: %v", items[i].ID, err)
		}
	}
}

// fakeScorer returns scores[existing.ID] (0 when absent) and counts calls
// per pair key.
type fakeScorer struct {
	mu     sync.Mutex
	scores map[string]Score
	calls  map[string]int
	panics map[string]bool
}

func newFakeScorer(scores map[string]Score) *fakeScorer {
	return &fakeScorer{scores: scores, calls: map[string]int{}, panics: map[string]bool{}}
}

func (f *fakeScorer) Score(_ context.Context, newItem, existing domain.ItemReport) Score {
	f.mu.Lock()
	f.calls[PairKey(newItem.ID, existing.ID)]++
	boom := f.panics[existing.ID]
	sc := f.scores[existing.ID]
	f.mu.Unlock()
	if boom {
		panic("scorer exploded")
	}
	return sc
}

func (f *fakeScorer) callsFor(a, b string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[PairKey(a, b)]
}

func (f *fakeScorer) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// staticPool serves a fixed pool or an error.
type staticPool struct {
	items []domain.ItemReport
	err   error
}

func (p staticPool) CandidatePool(context.Context, domain.ItemReport) ([]domain.ItemReport, error) {
	return p.items, p.err
}
