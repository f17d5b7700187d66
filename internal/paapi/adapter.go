package paapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// batchSize is the maximum ASINs per GetItems call (spec.md §4.7, §6).
const batchSize = 10

// Deadlines, per spec.md §5.
const (
	DefaultSearchTimeout = 5 * time.Second
	DefaultPagedTimeout  = 60 * time.Second
	DefaultBatchTimeout  = 90 * time.Second
)

// Adapter is the PaapiAdapter: the sole point of contact with the
// upstream product-advertising API (spec.md §4.7).
type Adapter struct {
	client      Client
	limiter     *RateLimiter
	breaker     *Breaker
	paginator   *Paginator
	priceSource PriceSource
	log         *slog.Logger

	quotaUsed  int64
	quotaLimit int64
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithPriceSource injects the pluggable fallback price capability used
// when GetItemsBatch is degraded or the breaker is open (spec.md §4.7).
func WithPriceSource(ps PriceSource) Option {
	return func(a *Adapter) { a.priceSource = ps }
}

// WithQuotaLimit sets the daily quota ceiling reported by Quota().
func WithQuotaLimit(limit int64) Option {
	return func(a *Adapter) { a.quotaLimit = limit }
}

// NewAdapter constructs an Adapter over client, rate-limited to
// ratePerSec requests/second with burst 1 (config: paapi.rate_per_second).
func NewAdapter(client Client, ratePerSec float64, opts ...Option) *Adapter {
	a := &Adapter{
		client:     client,
		limiter:    NewRateLimiter(ratePerSec, 1),
		log:        slog.Default(),
		quotaLimit: 8640, // 1 req/s sustainable ceiling over 24h, informational only
	}
	for _, opt := range opts {
		opt(a)
	}
	a.breaker = NewBreaker(a.log)
	a.paginator = NewPaginator(a.client, a.limiter, a.log)
	return a
}

// Search issues one request of up to 10 items (spec.md §4.7).
func (a *Adapter) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if req.ItemCount == 0 || req.ItemCount > batchSize {
		req.ItemCount = batchSize
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultSearchTimeout)
	defer cancel()

	req, workaround := stripPriceRangeWorkaround(req)

	result, err := a.callWithRetry(ctx, func() (any, error) {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return a.client.SearchItems(ctx, req)
	})
	if err != nil {
		return SearchResponse{}, err
	}
	resp := result.(SearchResponse)
	resp.Meta.PriceRangeWorkaround = workaround
	return resp, nil
}

// SearchPaginated issues up to maxPages sequential page requests,
// returning the concatenated unique product set (spec.md §4.7).
func (a *Adapter) SearchPaginated(ctx context.Context, req SearchRequest, maxPages int) (*PaginateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultPagedTimeout)
	defer cancel()

	result, err := a.callWithRetry(ctx, func() (any, error) {
		return a.paginator.Paginate(ctx, req, maxPages)
	})
	if err != nil {
		return nil, err
	}
	return result.(*PaginateResult), nil
}

// GetItem looks up a single ASIN.
func (a *Adapter) GetItem(ctx context.Context, asin string, resources ResourceSet) (Product, error) {
	items, err := a.GetItemsBatch(ctx, []string{asin}, resources)
	if err != nil {
		return Product{}, err
	}
	p, ok := items[asin]
	if !ok {
		return Product{}, fmt.Errorf("item %s: %w", asin, ErrNotFound)
	}
	return p, nil
}

// ErrNotFound is returned when an ASIN lookup finds nothing.
var ErrNotFound = errors.New("item not found")

// GetItemsBatch looks up up to 10 ASINs in one upstream call (spec.md
// §4.7, §6). If the call fails or the breaker is open, it falls back to
// the injected PriceSource to best-effort fill prices.
func (a *Adapter) GetItemsBatch(ctx context.Context, asins []string, resources ResourceSet) (map[string]Product, error) {
	if len(asins) > batchSize {
		asins = asins[:batchSize]
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultBatchTimeout)
	defer cancel()

	result, err := a.callWithRetry(ctx, func() (any, error) {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return a.client.GetItems(ctx, asins, resources)
	})
	if err == nil {
		return result.(map[string]Product), nil
	}

	if a.priceSource == nil {
		return nil, err
	}

	a.log.Warn("batch lookup degraded, falling back to price source", "error", err, "asin_count", len(asins))
	fallback := make(map[string]Product, len(asins))
	for _, asin := range asins {
		price, sErr := a.priceSource.Price(ctx, asin)
		if sErr != nil {
			continue
		}
		var p Product
		p.ASIN = asin
		p.PricePaise = nil
		if price != nil {
			paise := int64(*price) * 100
			p.PricePaise = &paise
		}
		fallback[asin] = p
	}
	return fallback, nil
}

// Quota reports the adapter's own local accounting of upstream usage,
// standing in for PA-API's lack of a quota-introspection endpoint
// (SPEC_FULL.md "Supplemented features").
func (a *Adapter) Quota() (used, limit int64, resetAt time.Time) {
	return a.quotaUsed, a.quotaLimit, time.Now().Add(24 * time.Hour)
}

// callWithRetry drives the circuit breaker + exponential backoff policy:
// throttling (429) and 5xx are retried with full jitter starting at 2s
// doubling to 30s; any other 4xx fails fast (spec.md §4.7).
func (a *Adapter) callWithRetry(ctx context.Context, fn func() (any, error)) (any, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = DefaultBatchTimeout
	bo.RandomizationFactor = 1.0 // full jitter

	boCtx := backoff.WithContext(bo, ctx)

	var out any
	op := func() error {
		res, err := a.breaker.Execute(fn)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				return backoff.Permanent(err)
			}
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = res
		return nil
	}

	a.quotaUsed++
	if err := backoff.Retry(op, boCtx); err != nil {
		return nil, fmt.Errorf("paapi call: %w", unwrapPermanent(err))
	}
	return out, nil
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}

// StatusError is a transport error carrying the upstream HTTP status, used
// by a Client implementation to signal retry eligibility.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string { return fmt.Sprintf("upstream status %d: %v", e.StatusCode, e.Err) }
func (e *StatusError) Unwrap() error { return e.Err }

// isRetryable reports whether err represents a throttling/5xx response
// that should be retried under backoff (spec.md §4.7: "On 4xx other than
// 429, fail fast — no retry").
func isRetryable(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	if statusErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return statusErr.StatusCode >= 500
}
