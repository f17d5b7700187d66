package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// InMemoryWatchRepo is a sync.Mutex-guarded WatchRepo fake, for tests and
// the demo host. The core does not implement a driver-backed store
// (spec.md §1, §6).
type InMemoryWatchRepo struct {
	mu      sync.Mutex
	watches map[string]domain.Watch
	alerts  []domain.Alert
}

// NewInMemoryWatchRepo constructs an empty InMemoryWatchRepo.
func NewInMemoryWatchRepo() *InMemoryWatchRepo {
	return &InMemoryWatchRepo{watches: make(map[string]domain.Watch)}
}

// Put inserts or replaces a watch; a test/demo-only helper, not part of
// the WatchRepo interface.
func (r *InMemoryWatchRepo) Put(w domain.Watch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watches[w.ID] = w
}

// ListActive returns all ACTIVE watches, optionally filtered to one user.
func (r *InMemoryWatchRepo) ListActive(_ context.Context, userID string) ([]domain.Watch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Watch
	for _, w := range r.watches {
		if w.State != domain.WatchActive {
			continue
		}
		if userID != "" && w.UserID != userID {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID returns a watch by id.
func (r *InMemoryWatchRepo) GetByID(_ context.Context, id string) (domain.Watch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watches[id]
	if !ok {
		return domain.Watch{}, fmt.Errorf("watch %s: %w", id, ErrNotFound)
	}
	return w, nil
}

// UpdateLastEval updates last_eval_at for a watch.
func (r *InMemoryWatchRepo) UpdateLastEval(_ context.Context, id string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watches[id]
	if !ok {
		return fmt.Errorf("watch %s: %w", id, ErrNotFound)
	}
	w.LastEvalAt = ts
	r.watches[id] = w
	return nil
}

// RecordAlert appends an alert event.
func (r *InMemoryWatchRepo) RecordAlert(_ context.Context, alert domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

// Alerts returns every recorded alert, newest last; a test/demo-only
// helper.
func (r *InMemoryWatchRepo) Alerts() []domain.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// SetState updates a watch's state machine value directly; a test/demo
// helper for driving ACTIVE/THROTTLED/PAUSED/EXPIRED transitions.
func (r *InMemoryWatchRepo) SetState(id string, state domain.WatchState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watches[id]
	if !ok {
		return
	}
	w.State = state
	r.watches[id] = w
}

// UpdateState persists the evaluator's state-machine and failure-counter
// decision for a watch.
func (r *InMemoryWatchRepo) UpdateState(_ context.Context, id string, state domain.WatchState, failureCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watches[id]
	if !ok {
		return fmt.Errorf("watch %s: %w", id, ErrNotFound)
	}
	w.State = state
	w.FailureCount = failureCount
	r.watches[id] = w
	return nil
}

// RecentAlertAtOrAbove reports whether a Deal alert at or above
// discountPercent already fired for watchID since the given time.
func (r *InMemoryWatchRepo) RecentAlertAtOrAbove(_ context.Context, watchID string, discountPercent int, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if a.WatchID != watchID || a.Kind != domain.AlertDeal {
			continue
		}
		if a.EmittedAt.Before(since) {
			continue
		}
		if a.DiscountPercent >= discountPercent {
			return true, nil
		}
	}
	return false, nil
}

// ErrNotFound is returned by in-memory fakes when a record is absent.
var ErrNotFound = fmt.Errorf("not found")

// InMemoryPriceHistoryRepo is a sync.Mutex-guarded PriceHistoryRepo fake.
type InMemoryPriceHistoryRepo struct {
	mu      sync.Mutex
	history map[string][]domain.PricePoint
}

// NewInMemoryPriceHistoryRepo constructs an empty history repo.
func NewInMemoryPriceHistoryRepo() *InMemoryPriceHistoryRepo {
	return &InMemoryPriceHistoryRepo{history: make(map[string][]domain.PricePoint)}
}

// GetRecent returns price points for asin observed within horizon of now.
func (r *InMemoryPriceHistoryRepo) GetRecent(_ context.Context, asin string, horizon time.Duration) ([]domain.PricePoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-horizon)
	var out []domain.PricePoint
	for _, p := range r.history[asin] {
		if p.ObservedAt.After(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Append records a new price observation.
func (r *InMemoryPriceHistoryRepo) Append(_ context.Context, asin string, point domain.PricePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[asin] = append(r.history[asin], point)
	return nil
}
