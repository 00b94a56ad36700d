package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"salescrm/internal/logger"
	"salescrm/internal/metrics"
	"salescrm/internal/models"
	"salescrm/internal/store"
)

type LeadLister interface {
	ListLeads(ctx context.Context, assignedTo *int, limit int) (models.LeadList, error)
}

type SyncOptions struct {
	PageLimit int
	Timeout   time.Duration
	Logger    logger.Logger
	Metrics   *metrics.Metrics
	Rosters   *RosterService
}

// SyncReport describes one refresh. Truncated is set when the listing hit the page limit;
// nothing is removed from the cache then.
type SyncReport struct {
	store.MergeResult
	Fetched   int           `json:"fetched"`
	Skipped   int           `json:"skipped"`
	Truncated bool          `json:"truncated"`
	Duration  time.Duration `json:"duration_ns"`
}

// SyncService refreshes the lead cache from GET /leads, on demand and on a cron schedule.
type SyncService struct {
	leads     LeadLister
	coord     *Coordinator
	rosters   *RosterService
	pageLimit int
	timeout   time.Duration
	log       logger.Logger
	metrics   *metrics.Metrics

	mu   sync.Mutex // one refresh at a time
	cron *cron.Cron
}

func NewSyncService(leads LeadLister, coord *Coordinator, opts SyncOptions) *SyncService {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &SyncService{
		leads:     leads,
		coord:     coord,
		rosters:   opts.Rosters,
		pageLimit: opts.PageLimit,
		timeout:   opts.Timeout,
		log:       opts.Logger.With("component", "sync"),
		metrics:   opts.Metrics,
	}
}

// Refresh replaces the cached working set with the upstream listing. Leads that fail validation
// are skipped; leads with a stage change in flight, or settled while the listing was fetched,
// keep their cached value.
func (s *SyncService) Refresh(ctx context.Context) (SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	epoch := s.coord.Epoch()
	var list models.LeadList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.leads.ListLeads(gctx, nil, s.pageLimit)
		return err
	})
	if s.rosters != nil {
		// team changes upstream show up with the next lead refresh
		g.Go(func() error {
			if err := s.rosters.Invalidate(gctx); err != nil {
				s.log.Warn("roster invalidation failed", "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.SyncRun(false, 0)
		s.log.Error("lead sync failed", "error", err)
		return SyncReport{}, fmt.Errorf("sync leads: %w", err)
	}

	fresh := make([]models.Lead, 0, len(list.Leads))
	skipped := 0
	for _, candidate := range list.Leads {
		lead, err := ValidateLead(candidate)
		if err != nil {
			skipped++
			s.log.Warn("skipping invalid upstream lead", "lead_id", candidate.ID, "error", err)
			continue
		}
		fresh = append(fresh, lead)
	}

	truncated := list.Total > len(list.Leads)
	if truncated {
		s.log.Warn("upstream listing truncated, keeping leads it did not return",
			"returned", len(list.Leads), "total", list.Total)
	}
	res := s.coord.MergeSynced(fresh, epoch, !truncated)
	report := SyncReport{
		MergeResult: res,
		Fetched:     len(list.Leads),
		Skipped:     skipped,
		Truncated:   truncated,
		Duration:    time.Since(start),
	}
	s.metrics.SyncRun(true, s.coord.cache.Len())
	s.log.Info("lead sync finished",
		"fetched", report.Fetched, "skipped", report.Skipped,
		"added", res.Added, "updated", res.Updated, "removed", res.Removed, "kept", res.Kept)
	return report, nil
}

// Start schedules Refresh with a standard 5-field cron spec, or "@every 1m" style descriptors.
func (s *SyncService) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.Refresh(context.Background()); err != nil {
			s.log.Warn("scheduled sync failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}
	s.cron = c
	s.log.Info("starting sync scheduler", "schedule", spec)
	c.Start()
	return nil
}

// Stop halts the scheduler and waits for a running refresh to finish or ctx to end.
func (s *SyncService) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
