package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/extraction"
	"github.com/tbourn/go-lostfound-backend/internal/llm"
	"github.com/tbourn/go-lostfound-backend/internal/matching"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
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

// fakeMatcher records the items it was asked to match.
type fakeMatcher struct {
	mu     sync.Mutex
	seen   []string
	result []matching.RankedMatch
}

func (m *fakeMatcher) FindPotentialMatches(_ context.Context, it domain.ItemReport, _ int) []matching.RankedMatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, it.ID)
	return m.result
}

func (m *fakeMatcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// offlineItemService wires the real extraction pipeline over the stub
// provider, so attributes and categories come from the heuristics.
func offlineItemService(t *testing.T, db *gorm.DB, m Matcher) *ItemService {
	t.Helper()
	stub := llm.NewStub(nil)
	ex := extraction.NewExtractor(stub, zerolog.Nop())
	cat := extraction.NewCategorizer(stub, extraction.DefaultTaxonomy(), 0, zerolog.Nop())
	return NewItemService(db, ex, cat, m, zerolog.Nop())
}

// realMatcher is the full matching engine over db, scored by the stub.
func realMatcher(db *gorm.DB) *matching.Orchestrator {
	scorer := matching.NewRubricScorer(llm.NewStub(nil), nil, zerolog.Nop())
	return matching.NewOrchestrator(
		matching.DBPool{DB: db},
		matching.NewLedger(db, 1, zerolog.Nop()),
		scorer,
		matching.NewNotifier(db, 1, zerolog.Nop()),
		matching.DefaultOptions(),
		zerolog.Nop(),
	)
}

func walletInput(kind, date string) SubmitInput {
	return SubmitInput{
		LostOrFound: kind,
		Title:       "Black leather wallet",
		Description: "Black leather wallet with engraved initials JD and a library card",
		Location:    "Central Station",
		Date:        date,
	}
}
