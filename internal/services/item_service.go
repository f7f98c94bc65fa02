// Package services – ItemService
//
// This file implements ItemService, which owns the lifecycle of lost and
// found reports. Submitting a report validates it, extracts structured
// attributes, places it in the category taxonomy, stores it and runs the
// matching pipeline against existing reports. Submissions carrying an
// idempotency key are recorded so a retried request returns the stored
// report without matching again.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/extraction"
	"github.com/tbourn/go-lostfound-backend/internal/matching"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
	"github.com/tbourn/go-lostfound-backend/internal/search"
)

// IdempotencyScopeItems scopes idempotency keys of item submissions.
const IdempotencyScopeItems = "items"

// AttributeExtractor derives structured attributes from free text.
type AttributeExtractor interface {
	Extract(ctx context.Context, description, title string) domain.AttributeRecord
}

// ItemCategorizer places an item in the taxonomy.
type ItemCategorizer interface {
	Categorize(ctx context.Context, attrs domain.AttributeRecord, title string) extraction.Assignment
	Taxonomy() *extraction.Taxonomy
}

// Matcher runs the matching pipeline for one report.
type Matcher interface {
	FindPotentialMatches(ctx context.Context, newItem domain.ItemReport, topN int) []matching.RankedMatch
}

// SubmitInput is a new report as entered by a user.
type SubmitInput struct {
	LostOrFound string
	Title       string
	Description string
	Location    string
	Date        string // YYYY-MM-DD
	Time        string // optional HH:MM or HH:MM:SS
}

// SubmitResult is the stored report and the matches found for it.
type SubmitResult struct {
	Item    *domain.ItemReport
	Matches []matching.RankedMatch
	// Replayed is true when the result was served from a previous request
	// with the same idempotency key; no matching ran.
	Replayed bool
}

// SearchHit is one lexical search result.
type SearchHit struct {
	Item  domain.ItemReport `json:"item"`
	Score float64           `json:"score"`
}

// CategoryOverview is the taxonomy with active item counts.
type CategoryOverview struct {
	Tree   []extraction.Node    `json:"tree"`
	Counts []repo.CategoryCount `json:"counts"`
}

// ItemService coordinates item persistence, enrichment and matching.
type ItemService struct {
	DB          *gorm.DB
	Extractor   AttributeExtractor
	Categorizer ItemCategorizer
	Matcher     Matcher

	// TopN caps the matches returned on submission.
	TopN int
	// IdempotencyTTL is how long a submission key is remembered.
	IdempotencyTTL time.Duration

	MaxTitleRunes       int
	MaxDescriptionRunes int
	MaxLocationRunes    int

	// SearchMaxDocs bounds how many recent active reports a search scans.
	SearchMaxDocs int

	Log zerolog.Logger
}

// NewItemService constructs an ItemService with default limits.
func NewItemService(db *gorm.DB, ex AttributeExtractor, cat ItemCategorizer, m Matcher, log zerolog.Logger) *ItemService {
	return &ItemService{
		DB:                  db,
		Extractor:           ex,
		Categorizer:         cat,
		Matcher:             m,
		TopN:                matching.DefaultTopN,
		IdempotencyTTL:      24 * time.Hour,
		MaxTitleRunes:       120,
		MaxDescriptionRunes: 2000,
		MaxLocationRunes:    200,
		SearchMaxDocs:       1000,
		Log:                 log.With().Str("component", "items").Logger(),
	}
}

// Submit validates, enriches, stores and matches a new report.
func (s *ItemService) Submit(ctx context.Context, userID string, in SubmitInput, idemKey string) (*SubmitResult, error) {
	tr := otel.Tracer("services/ItemService")
	ctx, span := tr.Start(ctx, "Submit", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	it, err := s.validate(userID, in)
	if err != nil {
		return nil, err
	}

	if idemKey != "" {
		rec, err := repo.GetIdempotency(ctx, s.DB, userID, IdempotencyScopeItems, idemKey, time.Now().UTC())
		if err == nil {
			prev, gerr := repo.GetItem(ctx, s.DB, rec.ResourceID)
			if gerr == nil {
				span.SetAttributes(attribute.Bool("idempotency.replayed", true))
				return &SubmitResult{Item: prev, Matches: []matching.RankedMatch{}, Replayed: true}, nil
			}
		} else if !errors.Is(err, repo.ErrNotFound) {
			s.Log.Warn().Err(err).Msg("idempotency lookup failed")
		}
	}

	attrs := s.Extractor.Extract(ctx, it.Description, it.Title)
	it.SetAttrs(attrs)
	a := s.Categorizer.Categorize(ctx, attrs, it.Title)
	it.Category, it.Subcategory, it.SubSubcategory = a.Category, a.Subcategory, a.SubSubcategory

	if err := repo.CreateItem(ctx, s.DB, it); err != nil {
		return nil, fmt.Errorf("store item: %w", err)
	}
	span.SetAttributes(attribute.String("item.id", it.ID), attribute.String("item.category", it.Category))

	if idemKey != "" {
		if _, err := repo.CreateIdempotency(ctx, s.DB, userID, IdempotencyScopeItems, idemKey, it.ID, http.StatusCreated, s.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			s.Log.Warn().Err(err).Str("item_id", it.ID).Msg("store idempotency key")
		}
	}

	matches := s.Matcher.FindPotentialMatches(ctx, *it, s.TopN)
	s.Log.Info().
		Str("item_id", it.ID).
		Str("kind", it.LostOrFound).
		Str("category", it.Category).
		Str("subcategory", it.Subcategory).
		Int("matches", len(matches)).
		Msg("item submitted")
	return &SubmitResult{Item: it, Matches: matches}, nil
}

func (s *ItemService) validate(userID string, in SubmitInput) (*domain.ItemReport, error) {
	kind, ok := domain.ParseReportKind(in.LostOrFound)
	if !ok {
		return nil, fmt.Errorf("%w: lost_or_found must be Lost or Found", ErrInvalidItem)
	}
	title := collapseSpaces(in.Title)
	desc := strings.TrimSpace(in.Description)
	loc := collapseSpaces(in.Location)
	switch {
	case strings.TrimSpace(userID) == "":
		return nil, fmt.Errorf("%w: user id required", ErrInvalidItem)
	case title == "":
		return nil, fmt.Errorf("%w: title required", ErrInvalidItem)
	case desc == "":
		return nil, fmt.Errorf("%w: description required", ErrInvalidItem)
	case tooLong(title, s.MaxTitleRunes):
		return nil, fmt.Errorf("%w: title longer than %d characters", ErrInvalidItem, s.MaxTitleRunes)
	case tooLong(desc, s.MaxDescriptionRunes):
		return nil, fmt.Errorf("%w: description longer than %d characters", ErrInvalidItem, s.MaxDescriptionRunes)
	case tooLong(loc, s.MaxLocationRunes):
		return nil, fmt.Errorf("%w: location longer than %d characters", ErrInvalidItem, s.MaxLocationRunes)
	}

	date := strings.TrimSpace(in.Date)
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidItem)
	}
	clock := strings.TrimSpace(in.Time)
	if clock != "" && !validClock(clock) {
		return nil, fmt.Errorf("%w: time must be HH:MM or HH:MM:SS", ErrInvalidItem)
	}

	return &domain.ItemReport{
		LostOrFound: string(kind),
		Title:       title,
		Description: desc,
		Location:    loc,
		Date:        date,
		Time:        clock,
		UserID:      userID,
		Status:      domain.StatusActive,
	}, nil
}

// Get returns one item.
func (s *ItemService) Get(ctx context.Context, id string) (*domain.ItemReport, error) {
	it, err := repo.GetItem(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	return it, err
}

// ListPage returns a page of items matching f, newest first.
func (s *ItemService) ListPage(ctx context.Context, f repo.ItemFilter, page, pageSize int) ([]domain.ItemReport, int64, error) {
	tr := otel.Tracer("services/ItemService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountItems(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ItemReport{}, 0, nil
	}
	items, err := repo.ListItemsPage(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	return items, total, err
}

// UpdateStatus changes the lifecycle status of an item owned by userID.
func (s *ItemService) UpdateStatus(ctx context.Context, userID, id, status string) (*domain.ItemReport, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case domain.StatusActive, domain.StatusReturned, domain.StatusClosed:
	default:
		return nil, ErrInvalidStatus
	}
	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.UserID != userID {
		return nil, ErrForbidden
	}
	if err := repo.UpdateItemStatus(ctx, s.DB, id, userID, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Matches runs matching for an active item, picking up reports filed since
// it was submitted, and returns every confirmed match it takes part in,
// best first. Pairs already compared are not scored again.
func (s *ItemService) Matches(ctx context.Context, id string) ([]matching.RankedMatch, error) {
	tr := otel.Tracer("services/ItemService")
	ctx, span := tr.Start(ctx, "Matches", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.Status == domain.StatusActive {
		s.Matcher.FindPotentialMatches(ctx, *it, s.TopN)
	}

	confirmed, err := repo.ListConfirmedMatchesForItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(confirmed))
	for _, m := range confirmed {
		ids = append(ids, counterpart(m, id))
	}
	others, err := repo.GetItemsByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.ItemReport, len(others))
	for _, o := range others {
		byID[o.ID] = o
	}

	out := make([]matching.RankedMatch, 0, len(confirmed))
	for _, m := range confirmed {
		other, ok := byID[counterpart(m, id)]
		if !ok {
			continue
		}
		out = append(out, matching.RankedMatch{
			Item:            other,
			SimilarityScore: m.Similarity,
			Justification:   m.Justification,
			Confidence:      m.Confidence,
		})
	}
	return out, nil
}

func counterpart(m domain.ConfirmedMatch, id string) string {
	if m.LostID == id {
		return m.FoundID
	}
	return m.LostID
}

// Search ranks recent active reports by word overlap with q.
func (s *ItemService) Search(ctx context.Context, q string, limit int) ([]SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 10
	}
	maxDocs := s.SearchMaxDocs
	if maxDocs <= 0 {
		maxDocs = 1000
	}

	items, err := repo.ListItemsPage(ctx, s.DB, repo.ItemFilter{Status: domain.StatusActive}, 0, maxDocs)
	if err != nil {
		return nil, err
	}
	docs := make([]search.Document, 0, len(items))
	byID := make(map[string]domain.ItemReport, len(items))
	for _, it := range items {
		docs = append(docs, search.Document{ID: it.ID, Text: searchText(it)})
		byID[it.ID] = it
	}

	idx := search.NewIndex(docs, search.WithMinDocRunes(1))
	results := idx.TopK(q, limit)
	out := make([]SearchHit, 0, len(results))
	for _, r := range results {
		out = append(out, SearchHit{Item: byID[r.ID], Score: r.Score})
	}
	return out, nil
}

func searchText(it domain.ItemReport) string {
	a := it.Attrs()
	return strings.Join([]string{it.Title, it.Description, it.Location, a.ItemType, a.Color, a.BrandModel}, " ")
}

// Categories returns the taxonomy with per-subcategory active item counts.
func (s *ItemService) Categories(ctx context.Context) (*CategoryOverview, error) {
	counts, err := repo.CountByCategory(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []repo.CategoryCount{}
	}
	return &CategoryOverview{Tree: s.Categorizer.Taxonomy().Roots(), Counts: counts}, nil
}

// ---- helpers ----

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func tooLong(s string, max int) bool {
	return max > 0 && utf8.RuneCountInString(s) > max
}

func validClock(s string) bool {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
