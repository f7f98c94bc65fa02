package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

func TestUpsertComparison_IdempotentAndOverwrites(t *testing.T) {
	db := newTestDB(t, &domain.ComparisonRecord{})
	ctx := context.Background()

	rec := &domain.ComparisonRecord{
		MatchID: "a_b", LostID: "a", FoundID: "b", Compared: true,
		MatchScore: 42, Justification: "weak", Matched: false, ComparedAt: time.Now().UTC(),
	}
	for i := 0; i < 3; i++ {
		cp := *rec
		if err := UpsertComparison(ctx, db, &cp); err != nil {
			t.Fatalf("UpsertComparison #%d: %v", i, err)
		}
	}
	n, err := CountComparisons(ctx, db)
	if err != nil || n != 1 {
		t.Fatalf("expected exactly one ledger row, got %d (%v)", n, err)
	}

	upd := *rec
	upd.MatchScore = 91
	upd.Matched = true
	upd.Justification = "serial number matches"
	if err := UpsertComparison(ctx, db, &upd); err != nil {
		t.Fatalf("UpsertComparison overwrite: %v", err)
	}
	got, err := GetComparison(ctx, db, "a_b")
	if err != nil {
		t.Fatalf("GetComparison: %v", err)
	}
	if got.MatchScore != 91 || !got.Matched || got.Justification != "serial number matches" {
		t.Fatalf("row not overwritten: %+v", got)
	}
	if n, _ := CountComparisons(ctx, db); n != 1 {
		t.Fatalf("overwrite must not add rows, got %d", n)
	}
}

func TestComparisonExists(t *testing.T) {
	db := newTestDB(t, &domain.ComparisonRecord{})
	ctx := context.Background()

	ok, err := ComparisonExists(ctx, db, "x_y")
	if err != nil || ok {
		t.Fatalf("expected (false, nil) for empty ledger, got (%v, %v)", ok, err)
	}
	if err := UpsertComparison(ctx, db, &domain.ComparisonRecord{MatchID: "x_y", LostID: "x", FoundID: "y", Compared: true, ComparedAt: time.Now()}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ok, err = ComparisonExists(ctx, db, "x_y")
	if err != nil || !ok {
		t.Fatalf("expected (true, nil), got (%v, %v)", ok, err)
	}

	if _, err := GetComparison(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestComparisonExists_ErrorWithoutTable(t *testing.T) {
	db := newTestDB(t)
	if _, err := ComparisonExists(context.Background(), db, "a_b"); err == nil {
		t.Fatalf("expected error when ledger table is missing")
	}
}

func TestListUnconfirmedMatches(t *testing.T) {
	db := newTestDB(t, &domain.ComparisonRecord{}, &domain.ConfirmedMatch{}, &domain.Notification{})
	ctx := context.Background()
	base := time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC)

	rows := []domain.ComparisonRecord{
		{MatchID: "a_b", LostID: "a", FoundID: "b", Compared: true, MatchScore: 90, Matched: true, ComparedAt: base.Add(time.Minute)},
		{MatchID: "c_d", LostID: "c", FoundID: "d", Compared: true, MatchScore: 70, Matched: true, ComparedAt: base},
		{MatchID: "e_f", LostID: "e", FoundID: "f", Compared: true, MatchScore: 20, Matched: false, ComparedAt: base},
		{MatchID: "g_h", LostID: "g", FoundID: "h", Compared: true, MatchScore: 95, Matched: true, ComparedAt: base},
	}
	for i := range rows {
		if err := UpsertComparison(ctx, db, &rows[i]); err != nil {
			t.Fatalf("seed %s: %v", rows[i].MatchID, err)
		}
	}
	if err := CreateConfirmedMatch(ctx, db, &domain.ConfirmedMatch{MatchID: "g_h", LostID: "g", FoundID: "h", Similarity: 95, Confidence: domain.ConfidenceHigh}, nil); err != nil {
		t.Fatalf("CreateConfirmedMatch: %v", err)
	}

	got, err := ListUnconfirmedMatches(ctx, db, 10)
	if err != nil {
		t.Fatalf("ListUnconfirmedMatches: %v", err)
	}
	if len(got) != 2 || got[0].MatchID != "c_d" || got[1].MatchID != "a_b" {
		t.Fatalf("unconfirmed = %+v", got)
	}
	if got, _ := ListUnconfirmedMatches(ctx, db, 1); len(got) != 1 || got[0].MatchID != "c_d" {
		t.Fatalf("limit not applied: %+v", got)
	}
}
