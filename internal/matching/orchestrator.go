package matching

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
	"github.com/tbourn/go-lostfound-backend/internal/repo"
)

// DefaultTopN is the number of matches returned when the caller asks for
// zero or fewer.
const DefaultTopN = 5

// PoolSource fetches the coarse candidate pool for a new report.
type PoolSource interface {
	CandidatePool(ctx context.Context, newItem domain.ItemReport) ([]domain.ItemReport, error)
}

// ComparisonLedger remembers which pairs have been scored.
type ComparisonLedger interface {
	HasBeenCompared(ctx context.Context, idA, idB string) (bool, error)
	RecordComparison(ctx context.Context, newItem, existing domain.ItemReport, score int, matched bool, justification string) error
}

// MatchNotifier tells both owners about a qualifying pair.
type MatchNotifier interface {
	Notify(ctx context.Context, newItem, existing domain.ItemReport, score int, justification string, confidence domain.Confidence) error
}

// RankedMatch is one qualifying counterpart of the report being matched.
type RankedMatch struct {
	Item            domain.ItemReport `json:"item"`
	SimilarityScore int               `json:"similarity_score"`
	Justification   string            `json:"justification"`
	Confidence      domain.Confidence `json:"confidence"`
}

// Options configures an Orchestrator.
type Options struct {
	Workers  int // concurrent pair pipelines, <= 0 means 4
	TopN     int // default result size, <= 0 means DefaultTopN
	Selector Selector
	Policy   Policy // zero value means DefaultPolicy
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		Workers:  4,
		TopN:     DefaultTopN,
		Selector: Selector{WindowDays: DefaultWindowDays},
		Policy:   DefaultPolicy,
	}
}

// Orchestrator runs the matching pipeline for newly submitted reports.
type Orchestrator struct {
	pool     PoolSource
	ledger   ComparisonLedger
	scorer   Scorer
	notifier MatchNotifier
	opts     Options
	locks    *pairLocks
	log      zerolog.Logger
}

func NewOrchestrator(pool PoolSource, ledger ComparisonLedger, scorer Scorer, notifier MatchNotifier, opts Options, log zerolog.Logger) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy
	}
	return &Orchestrator{
		pool:     pool,
		ledger:   ledger,
		scorer:   scorer,
		notifier: notifier,
		opts:     opts,
		locks:    newPairLocks(),
		log:      log.With().Str("component", "matcher").Logger(),
	}
}

// Policy returns the confidence policy in use.
func (o *Orchestrator) Policy() Policy { return o.opts.Policy }

// FindPotentialMatches scores newItem against every selected candidate it
// has not been compared with before and returns the best qualifying
// matches, highest score first, at most topN of them. Every scored pair is
// written to the ledger; qualifying pairs are also notified. It never
// fails: problems are logged and the affected pairs left out.
func (o *Orchestrator) FindPotentialMatches(ctx context.Context, newItem domain.ItemReport, topN int) []RankedMatch {
	if topN <= 0 {
		topN = o.opts.TopN
	}
	start := time.Now()
	defer func() { passDuration.Observe(time.Since(start).Seconds()) }()

	log := o.log.With().Str("item_id", newItem.ID).Logger()

	pool, err := o.pool.CandidatePool(ctx, newItem)
	if err != nil {
		log.Error().Err(err).Msg("fetch candidate pool")
		return []RankedMatch{}
	}
	candidates := o.opts.Selector.SelectCandidates(newItem, pool)
	log.Debug().Int("pool", len(pool)).Int("candidates", len(candidates)).Msg("candidates selected")
	if len(candidates) == 0 {
		return []RankedMatch{}
	}

	var (
		mu      sync.Mutex
		results = []RankedMatch{}
		g       errgroup.Group
	)
	g.SetLimit(o.opts.Workers)
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rm, ok := o.processPair(ctx, newItem, c, log)
			if ok {
				mu.Lock()
				results = append(results, rm)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].SimilarityScore != results[j].SimilarityScore {
			return results[i].SimilarityScore > results[j].SimilarityScore
		}
		return results[i].Item.ID < results[j].Item.ID
	})
	if len(results) > topN {
		results = results[:topN]
	}
	log.Info().Int("candidates", len(candidates)).Int("matches", len(results)).Msg("matching pass done")
	return results
}

// processPair runs check, score, classify, record and notify for one pair
// while holding the pair's lock.
func (o *Orchestrator) processPair(ctx context.Context, newItem, c domain.ItemReport, log zerolog.Logger) (rm RankedMatch, ok bool) {
	key := PairKey(newItem.ID, c.ID)
	log = log.With().Str("match_id", key).Logger()

	unlock := o.locks.lock(key)
	defer unlock()
	defer func() {
		if r := recover(); r != nil {
			pairOutcomes.WithLabelValues("panic").Inc()
			log.Error().Str("panic", fmt.Sprint(r)).Msg("pair processing panicked")
			rm, ok = RankedMatch{}, false
		}
	}()

	if ctx.Err() != nil {
		pairOutcomes.WithLabelValues("cancelled").Inc()
		return RankedMatch{}, false
	}

	done, err := o.ledger.HasBeenCompared(ctx, newItem.ID, c.ID)
	if err != nil {
		pairOutcomes.WithLabelValues("ledger_error").Inc()
		log.Warn().Err(err).Msg("ledger lookup failed, pair skipped")
		return RankedMatch{}, false
	}
	if done {
		pairOutcomes.WithLabelValues("already_compared").Inc()
		return RankedMatch{}, false
	}

	sc := o.scorer.Score(ctx, newItem, c)
	if ctx.Err() != nil {
		// A score cut short by cancellation is not a judgment; leave the
		// pair unrecorded so a later pass scores it properly.
		pairOutcomes.WithLabelValues("cancelled").Inc()
		return RankedMatch{}, false
	}
	value := clampScore(sc.Value)
	justification := truncateRunes(sc.Justification, MaxJustificationRunes)
	confidence := o.opts.Policy.Classify(value)

	// From here on the pair is recorded and notified even if the caller
	// goes away.
	wctx := context.WithoutCancel(ctx)
	if err := o.ledger.RecordComparison(wctx, newItem, c, value, confidence.Qualifies(), justification); err != nil {
		pairOutcomes.WithLabelValues("write_failed").Inc()
		log.Error().Err(err).Msg("ledger write failed, pair skipped")
		return RankedMatch{}, false
	}
	pairOutcomes.WithLabelValues(string(confidence)).Inc()
	if !confidence.Qualifies() {
		return RankedMatch{}, false
	}

	if err := o.notifier.Notify(wctx, newItem, c, value, justification, confidence); err != nil {
		log.Error().Err(err).Msg("notification write failed")
	}
	return RankedMatch{
		Item:            c,
		SimilarityScore: value,
		Justification:   justification,
		Confidence:      confidence,
	}, true
}

// RepairNotifications notifies pairs the ledger marks as matched but that
// have no confirmed match, which happens when Notify failed past its
// retries. Pairs whose items are gone or no longer active, or whose score
// no longer qualifies under the current policy, are left alone. It returns
// the number of pairs notified.
func (o *Orchestrator) RepairNotifications(ctx context.Context, db *gorm.DB, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	recs, err := repo.ListUnconfirmedMatches(ctx, db, limit)
	if err != nil {
		return 0, fmt.Errorf("list unconfirmed matches: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, 2*len(recs))
	for _, r := range recs {
		ids = append(ids, r.LostID, r.FoundID)
	}
	items, err := repo.GetItemsByIDs(ctx, db, ids)
	if err != nil {
		return 0, fmt.Errorf("load items for repair: %w", err)
	}
	byID := make(map[string]domain.ItemReport, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	wctx := context.WithoutCancel(ctx)
	repaired := 0
	for _, rec := range recs {
		if ctx.Err() != nil {
			break
		}
		log := o.log.With().Str("match_id", rec.MatchID).Logger()
		lost, okL := byID[rec.LostID]
		found, okF := byID[rec.FoundID]
		if !okL || !okF || lost.Status != domain.StatusActive || found.Status != domain.StatusActive {
			log.Debug().Msg("matched pair no longer active, not notified")
			continue
		}
		confidence := o.opts.Policy.Classify(rec.MatchScore)
		if !confidence.Qualifies() {
			continue
		}

		unlock := o.locks.lock(rec.MatchID)
		err := o.notifier.Notify(wctx, lost, found, rec.MatchScore, rec.Justification, confidence)
		unlock()
		if err != nil {
			log.Warn().Err(err).Msg("notification repair failed")
			continue
		}
		repaired++
	}
	if repaired > 0 {
		o.log.Info().Int("repaired", repaired).Msg("unconfirmed matches notified")
	}
	return repaired, nil
}

// pairLocks is a set of mutexes keyed by pair key. Entries are dropped when
// no goroutine holds or waits for them.
type pairLocks struct {
	mu sync.Mutex
	m  map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{m: make(map[string]*pairLock)}
}

func (p *pairLocks) lock(key string) (unlock func()) {
	p.mu.Lock()
	l, ok := p.m[key]
	if !ok {
		l = &pairLock{}
		p.m[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.m, key)
		}
		p.mu.Unlock()
	}
}

// DBPool reads candidate pools from the items table.
type DBPool struct {
	DB *gorm.DB
}

// CandidatePool returns active items in newItem's category and subcategory.
// A report without either label has an empty pool.
func (p DBPool) CandidatePool(ctx context.Context, newItem domain.ItemReport) ([]domain.ItemReport, error) {
	if strings.TrimSpace(newItem.Category) == "" || strings.TrimSpace(newItem.Subcategory) == "" {
		return nil, nil
	}
	return repo.ListCandidatePool(ctx, p.DB, newItem.Category, newItem.Subcategory)
}

// DisplayDetails is the subset of a report shown next to a match.
type DisplayDetails struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// DisplayMatch is the client-facing projection of a RankedMatch.
type DisplayMatch struct {
	ID            string            `json:"id"`
	Score         int               `json:"score"`
	Justification string            `json:"justification"`
	Confidence    domain.Confidence `json:"confidence"`
	Details       DisplayDetails    `json:"details"`
}

// FormatForDisplay projects matches for API responses, keeping order.
func FormatForDisplay(matches []RankedMatch) []DisplayMatch {
	out := make([]DisplayMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, DisplayMatch{
			ID:            m.Item.ID,
			Score:         m.SimilarityScore,
			Justification: m.Justification,
			Confidence:    m.Confidence,
			Details: DisplayDetails{
				Title:       m.Item.Title,
				Description: m.Item.Description,
				Location:    m.Item.Location,
				Date:        m.Item.Date,
				Category:    m.Item.Category,
				Subcategory: m.Item.Subcategory,
			},
		})
	}
	return out
}
