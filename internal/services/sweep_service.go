// Package services – SweepService
//
// A sweep re-runs matching for every active report, catching pairs that were
// never compared (for example when scoring was unavailable at submission
// time). Sweeps are guarded by a job lease in the database so that only one
// process sweeps at a time; the lease is renewed after every batch and
// released when the sweep ends. Already compared pairs are skipped by the
// ledger, so repeated sweeps only score what is new. A sweep that ran to the
// end also notifies matched pairs whose notification write had failed.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-lostfound-backend/internal/repo"
)

// SweepLeaseName is the job lease guarding full matching sweeps.
const SweepLeaseName = "matching-sweep"

// SweepReport summarizes one sweep.
type SweepReport struct {
	Owner      string    `json:"owner"`
	Items      int       `json:"items"`
	Matches    int       `json:"matches"`
	Repaired   int       `json:"repaired"`
	Cancelled  bool      `json:"cancelled"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NotificationRepairer notifies matched pairs that never got a confirmed
// match.
type NotificationRepairer interface {
	RepairNotifications(ctx context.Context, db *gorm.DB, limit int) (int, error)
}

// SweepService runs lease-guarded full-batch matching.
type SweepService struct {
	DB      *gorm.DB
	Matcher Matcher

	// OwnerID identifies this process in the lease table.
	OwnerID   string
	LeaseTTL  time.Duration
	BatchSize int
	TopN      int

	Log zerolog.Logger
	now func() time.Time
}

// NewSweepService returns a sweep service with a per-process owner id.
func NewSweepService(db *gorm.DB, m Matcher, leaseTTL time.Duration, batchSize int, log zerolog.Logger) *SweepService {
	host, _ := os.Hostname()
	if host == "" {
		host = "local"
	}
	return &SweepService{
		DB:        db,
		Matcher:   m,
		OwnerID:   fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
		LeaseTTL:  leaseTTL,
		BatchSize: batchSize,
		Log:       log.With().Str("component", "sweep").Logger(),
		now:       time.Now,
	}
}

// Run sweeps every active item. It returns ErrSweepInProgress when another
// owner holds a live lease. A cancelled ctx ends the sweep early with a
// partial report and no error.
func (s *SweepService) Run(ctx context.Context) (*SweepReport, error) {
	ttl := s.LeaseTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = 200
	}

	got, err := repo.AcquireLease(ctx, s.DB, SweepLeaseName, s.OwnerID, ttl, s.clock())
	if err != nil {
		return nil, fmt.Errorf("acquire sweep lease: %w", err)
	}
	if !got {
		return nil, ErrSweepInProgress
	}
	defer func() {
		if err := repo.ReleaseLease(context.WithoutCancel(ctx), s.DB, SweepLeaseName, s.OwnerID); err != nil {
			s.Log.Warn().Err(err).Msg("release sweep lease")
		}
	}()

	rep := &SweepReport{Owner: s.OwnerID, StartedAt: s.clock().UTC()}
	s.Log.Info().Str("owner", s.OwnerID).Msg("matching sweep started")

	after := ""
loop:
	for {
		items, err := repo.ListActiveItemsAfter(ctx, s.DB, after, batch)
		if err != nil {
			if ctx.Err() != nil {
				rep.Cancelled = true
				break
			}
			return nil, fmt.Errorf("list items after %q: %w", after, err)
		}
		for _, it := range items {
			if ctx.Err() != nil {
				rep.Cancelled = true
				break loop
			}
			rep.Items++
			rep.Matches += len(s.Matcher.FindPotentialMatches(ctx, it, s.TopN))
		}
		if len(items) < batch {
			break
		}
		after = items[len(items)-1].ID

		// Renew; losing the lease means another owner took over after expiry.
		held, err := repo.AcquireLease(ctx, s.DB, SweepLeaseName, s.OwnerID, ttl, s.clock())
		if err != nil || !held {
			s.Log.Warn().Err(err).Msg("sweep lease lost, stopping")
			rep.Cancelled = true
			break
		}
	}

	if r, ok := s.Matcher.(NotificationRepairer); ok && !rep.Cancelled {
		n, err := r.RepairNotifications(ctx, s.DB, batch)
		if err != nil {
			s.Log.Warn().Err(err).Msg("notification repair failed")
		}
		rep.Repaired = n
	}

	rep.FinishedAt = s.clock().UTC()
	s.Log.Info().
		Int("items", rep.Items).
		Int("matches", rep.Matches).
		Int("repaired", rep.Repaired).
		Bool("cancelled", rep.Cancelled).
		Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("matching sweep finished")
	return rep, nil
}

// Every runs a sweep each interval until ctx is done. A sweep already held
// elsewhere is skipped silently.
func (s *SweepService) Every(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Run(ctx); err != nil && !errors.Is(err, ErrSweepInProgress) {
				s.Log.Error().Err(err).Msg("periodic sweep failed")
			}
		}
	}
}

func (s *SweepService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
