// Package repo defines the repository interfaces the core consumes
// (spec.md §6) plus in-memory fakes for tests and demos. Persistence
// itself is an external collaborator — the core never assumes a
// particular store.
package repo

import (
	"context"
	"time"

	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// WatchRepo is the injected interface over persisted watches.
type WatchRepo interface {
	ListActive(ctx context.Context, userID string) ([]domain.Watch, error)
	GetByID(ctx context.Context, id string) (domain.Watch, error)
	UpdateLastEval(ctx context.Context, id string, ts time.Time) error
	RecordAlert(ctx context.Context, alert domain.Alert) error

	// UpdateState persists the watch's state-machine value and failure
	// counter (spec.md §4.8's ACTIVE/THROTTLED transitions). A natural
	// extension of the four operations spec.md §6 names explicitly: the
	// evaluator cannot drive the state machine without somewhere to write
	// its result.
	UpdateState(ctx context.Context, id string, state domain.WatchState, failureCount int) error

	// RecentAlertAtOrAbove reports whether a deal alert at or above
	// discountPercent already fired for this watch since the given time,
	// backing the §4.8 deal rising-edge condition ("not already alerted at
	// or above this level in the last 24h").
	RecentAlertAtOrAbove(ctx context.Context, watchID string, discountPercent int, since time.Time) (bool, error)
}

// PriceHistoryRepo is the injected interface over per-ASIN price history.
type PriceHistoryRepo interface {
	GetRecent(ctx context.Context, asin string, horizon time.Duration) ([]domain.PricePoint, error)
	Append(ctx context.Context, asin string, point domain.PricePoint) error
}

// SearchCacheKey identifies one cached search result (spec.md §6).
type SearchCacheKey struct {
	NormalizedKeywords string
	SearchIndex        string
	MinPrice           *int
	MaxPrice           *int
	BrowseNode         string
	ItemCount          int
	ResourceSetID      string
}

// SearchCacheRepo is the optional injected interface over cached search
// results.
type SearchCacheRepo interface {
	Get(ctx context.Context, key SearchCacheKey) (value any, ok bool, err error)
	Put(ctx context.Context, key SearchCacheKey, value any, ttl time.Duration) error
}
