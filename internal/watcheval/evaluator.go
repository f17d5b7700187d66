// Package watcheval implements WatchEvaluator: the periodic loop that
// re-checks live watches for price drops, deals, and restocks (spec.md
// §4.8).
package watcheval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/subszero0/mandimonitor/internal/metrics"
	"github.com/subszero0/mandimonitor/internal/paapi"
	"github.com/subszero0/mandimonitor/internal/repo"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// ItemSource is the narrow PaapiAdapter view the evaluator depends on.
type ItemSource interface {
	GetItem(ctx context.Context, asin string, resources paapi.ResourceSet) (paapi.Product, error)
}

const (
	defaultPriceDropThreshold = 0.95
	defaultFailThreshold      = 3
	recentAlertWindow         = 24 * time.Hour
	historyHorizon            = 90 * 24 * time.Hour
)

// Evaluator implements EvaluateWatch (spec.md §6: "used by the scheduler;
// no side effects on transports").
type Evaluator struct {
	source  ItemSource
	watches repo.WatchRepo
	history repo.PriceHistoryRepo
	log     *slog.Logger

	priceDropThreshold float64
	failThreshold      int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.log = l }
}

// WithPriceDropThreshold overrides the price-drop ratio (config:
// watch.price_drop_threshold).
func WithPriceDropThreshold(ratio float64) Option {
	return func(e *Evaluator) { e.priceDropThreshold = ratio }
}

// WithFailThreshold overrides the consecutive-failure count that moves a
// watch to THROTTLED (config: watch.fail_threshold).
func WithFailThreshold(n int) Option {
	return func(e *Evaluator) { e.failThreshold = n }
}

// New constructs an Evaluator.
func New(source ItemSource, watches repo.WatchRepo, history repo.PriceHistoryRepo, opts ...Option) *Evaluator {
	e := &Evaluator{
		source:             source,
		watches:            watches,
		history:            history,
		log:                slog.Default(),
		priceDropThreshold: defaultPriceDropThreshold,
		failThreshold:      defaultFailThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateWatch is the core's second downstream call (spec.md §6): fetch
// the watch's current product, decide whether anything changed, and emit
// an Alert if so. Only ACTIVE watches are evaluated; others are skipped
// without error.
func (e *Evaluator) EvaluateWatch(ctx context.Context, watchID string) (priceChanged bool, alert *domain.Alert, err error) {
	start := time.Now()
	defer func() { metrics.WatchEvalDuration.Observe(time.Since(start).Seconds()) }()

	watch, err := e.watches.GetByID(ctx, watchID)
	if err != nil {
		metrics.WatchEvaluationsTotal.WithLabelValues("not_found").Inc()
		return false, nil, fmt.Errorf("evaluating watch %s: %w", watchID, err)
	}

	if watch.State != domain.WatchActive {
		metrics.WatchEvaluationsTotal.WithLabelValues("skipped").Inc()
		return false, nil, nil
	}

	if watch.SelectedASIN == nil {
		metrics.WatchEvaluationsTotal.WithLabelValues("skipped").Inc()
		return false, nil, nil
	}
	asin := *watch.SelectedASIN

	product, err := e.source.GetItem(ctx, asin, paapi.ResourceSetLookup)
	if err != nil {
		e.onFailure(ctx, watch)
		metrics.WatchEvaluationsTotal.WithLabelValues("upstream_failure").Inc()
		return false, nil, nil // upstream errors never terminate the loop
	}

	current := paapi.ToDomainProduct(product, time.Now())
	e.onSuccess(ctx, watch)

	history, err := e.history.GetRecent(ctx, asin, historyHorizon)
	if err != nil {
		e.log.Warn("price history lookup failed", "asin", asin, "error", err)
		history = nil
	}

	priceChanged, alert = e.decide(ctx, watch, current, history)

	if alert != nil {
		if err := e.watches.RecordAlert(ctx, *alert); err != nil {
			e.log.Error("recording alert failed", "watch_id", watch.ID, "error", err)
		} else {
			metrics.WatchAlertsTotal.WithLabelValues(string(alert.Kind)).Inc()
		}
	}

	if current.PriceRupees != nil {
		point := domain.PricePoint{
			ASIN:            asin,
			PriceRupees:     *current.PriceRupees,
			ListPriceRupees: current.ListPriceRupees,
			InStock:         current.InStock(),
			ObservedAt:      current.FetchedAt,
		}
		if err := e.history.Append(ctx, asin, point); err != nil {
			e.log.Warn("appending price history failed", "asin", asin, "error", err)
		}
	}

	if err := e.watches.UpdateLastEval(ctx, watch.ID, time.Now()); err != nil {
		e.log.Error("updating last_eval_at failed", "watch_id", watch.ID, "error", err)
	}

	metrics.WatchEvaluationsTotal.WithLabelValues("ok").Inc()
	return priceChanged, alert, nil
}

// decide implements spec.md §4.8 steps 2-4: discount computation, alert
// kind decision, and quality_score.
func (e *Evaluator) decide(ctx context.Context, watch domain.Watch, current domain.Product, history []domain.PricePoint) (bool, *domain.Alert) {
	var previousPrice int
	wasOutOfStock := false
	if len(history) > 0 {
		last := history[len(history)-1]
		previousPrice = last.PriceRupees
		wasOutOfStock = !last.InStock
	}

	discountPercent := 0
	if d, ok := current.DiscountPercent(); ok {
		discountPercent = d
	}

	priceChanged := previousPrice != 0 && current.PriceRupees != nil && *current.PriceRupees != previousPrice

	kind, ok := e.alertKind(ctx, watch, current, previousPrice, discountPercent, wasOutOfStock)
	if !ok {
		return priceChanged, nil
	}

	quality := qualityScore(current, history, discountPercent)

	currentPrice := 0
	if current.PriceRupees != nil {
		currentPrice = *current.PriceRupees
	}

	alert := &domain.Alert{
		WatchID:         watch.ID,
		ASIN:            current.ASIN,
		Kind:            kind,
		PreviousPrice:   previousPrice,
		CurrentPrice:    currentPrice,
		DiscountPercent: discountPercent,
		QualityScore:    quality,
		EmittedAt:       time.Now(),
	}
	return priceChanged, alert
}

// alertKind implements the price_drop / deal / restock decision (spec.md
// §4.8 step 3). Priority: price_drop, then deal, then restock — a product
// can only carry one alert kind per evaluation.
func (e *Evaluator) alertKind(ctx context.Context, watch domain.Watch, current domain.Product, previousPrice, discountPercent int, wasOutOfStock bool) (domain.AlertKind, bool) {
	if previousPrice > 0 && current.PriceRupees != nil &&
		float64(*current.PriceRupees) < float64(previousPrice)*e.priceDropThreshold {
		return domain.AlertPriceDrop, true
	}

	if watch.MinDiscountPercent != nil && discountPercent >= *watch.MinDiscountPercent && e.isRisingEdge(ctx, watch, discountPercent) {
		return domain.AlertDeal, true
	}

	if wasOutOfStock && current.InStock() {
		return domain.AlertRestock, true
	}

	return "", false
}

// isRisingEdge reports whether this evaluation crosses the watch's
// discount threshold for the first time in the last 24h (spec.md §4.8:
// "not already alerted at or above this level in the last 24h"), backed by
// WatchRepo.RecentAlertAtOrAbove over the recorded alert log. A lookup
// failure defaults to firing rather than silently suppressing a real deal.
func (e *Evaluator) isRisingEdge(ctx context.Context, watch domain.Watch, discountPercent int) bool {
	already, err := e.watches.RecentAlertAtOrAbove(ctx, watch.ID, discountPercent, time.Now().Add(-recentAlertWindow))
	if err != nil {
		e.log.Warn("recent alert lookup failed, defaulting to fire", "watch_id", watch.ID, "error", err)
		return true
	}
	return !already
}

func qualityScore(current domain.Product, history []domain.PricePoint, discountPercent int) int {
	pricePercentile := 0.5
	if current.PriceRupees != nil && len(history) > 0 {
		below := 0
		for _, h := range history {
			if h.PriceRupees >= *current.PriceRupees {
				below++
			}
		}
		pricePercentile = float64(below) / float64(len(history))
	}

	discountMagnitude := float64(discountPercent) / 100
	if discountMagnitude > 1 {
		discountMagnitude = 1
	}

	ratingComponent := current.AverageRating / 5

	stockUrgency := 0.0
	if current.InStock() {
		stockUrgency = 1.0
	}

	score := pricePercentile*40 + discountMagnitude*30 + ratingComponent*20 + stockUrgency*10
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score + 0.5)
}

func (e *Evaluator) onFailure(ctx context.Context, watch domain.Watch) {
	failures := watch.FailureCount + 1
	state := watch.State
	if failures >= e.failThreshold {
		state = domain.WatchThrottled
	}
	if err := e.watches.UpdateState(ctx, watch.ID, state, failures); err != nil {
		e.log.Error("updating watch failure state failed", "watch_id", watch.ID, "error", err)
	}
}

func (e *Evaluator) onSuccess(ctx context.Context, watch domain.Watch) {
	if watch.FailureCount == 0 && watch.State == domain.WatchActive {
		return
	}
	if err := e.watches.UpdateState(ctx, watch.ID, domain.WatchActive, 0); err != nil {
		e.log.Error("resetting watch failure state failed", "watch_id", watch.ID, "error", err)
	}
}
