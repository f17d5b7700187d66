package watcheval

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/subszero0/mandimonitor/internal/metrics"
	"github.com/subszero0/mandimonitor/internal/repo"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// Scheduler drives the Evaluator on a periodic schedule (spec.md §4.8:
// "typically every 10 minutes for price-critical watches and daily for
// digest watches"). Unlike a multi-instance deployment backed by a
// database lock, this core runs one evaluator per process; a single
// in-memory mutex is enough to prevent overlapping runs of the same job.
type Scheduler struct {
	cron      *cron.Cron
	eval      *Evaluator
	watches   repo.WatchRepo
	log       *slog.Logger
	runningMu sync.Mutex

	priceEntryID  cron.EntryID
	digestEntryID cron.EntryID
}

// NewScheduler registers the price-critical and digest evaluation jobs.
func NewScheduler(eval *Evaluator, watches repo.WatchRepo, priceInterval, digestInterval time.Duration, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{cron: cron.New(), eval: eval, watches: watches, log: log}

	priceID, err := s.cron.AddFunc("@every "+priceInterval.String(), s.runPriceCritical)
	if err != nil {
		return nil, err
	}
	s.priceEntryID = priceID

	if digestInterval > 0 {
		digestID, err := s.cron.AddFunc("@every "+digestInterval.String(), s.runDigest)
		if err != nil {
			return nil, err
		}
		s.digestEntryID = digestID
	}

	return s, nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.log.Info("watch scheduler started")
	s.cron.Start()
}

// Stop stops scheduling new jobs and returns a context that is done once
// in-flight jobs have finished; it does not block.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("watch scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runPriceCritical() {
	s.runCycle(context.Background(), "")
}

func (s *Scheduler) runDigest() {
	s.runCycle(context.Background(), "")
}

// runCycle guards against overlapping runs within this process and
// evaluates every ACTIVE watch, logging but never propagating individual
// failures (spec.md §4.8: "upstream errors during evaluation never
// terminate the loop").
func (s *Scheduler) runCycle(ctx context.Context, userID string) {
	if !s.runningMu.TryLock() {
		s.log.Info("evaluation cycle already running, skipping")
		return
	}
	defer s.runningMu.Unlock()

	watches, err := s.watches.ListActive(ctx, userID)
	if err != nil {
		s.log.Error("listing active watches failed", "error", err)
		return
	}

	var newlyThrottled int
	for i := range watches {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := s.eval.EvaluateWatch(ctx, watches[i].ID); err != nil {
			s.log.Error("watch evaluation failed", "watch_id", watches[i].ID, "error", err)
			continue
		}
		if after, getErr := s.watches.GetByID(ctx, watches[i].ID); getErr == nil && after.State == domain.WatchThrottled {
			newlyThrottled++
		}
	}
	if newlyThrottled > 0 {
		metrics.WatchesThrottled.Add(float64(newlyThrottled))
	}
	s.log.Info("evaluation cycle complete", "watches", len(watches), "newly_throttled", newlyThrottled)
}
