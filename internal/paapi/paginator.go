package paapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultPageItemCount = 10
	upstreamMaxPages     = 10 // upstream SearchItems caps total pages at 10
)

// PaginateResult holds the outcome of a paginated search.
type PaginateResult struct {
	Products             []Product
	PagesUsed            int
	StoppedAt            string // "max_pages", "empty_page", "partial_failure", "requested_pages_done"
	Partial              bool
	PriceRangeWorkaround bool // true when both min and max price were supplied
}

// Paginator drives PaapiAdapter.SearchPaginated: sequential page requests
// respecting rate limits, returning the concatenated unique product set.
// On a later page failure it returns what succeeded plus a partial-result
// marker (spec.md §4.7).
type Paginator struct {
	client  Client
	limiter *RateLimiter
	log     *slog.Logger
}

// NewPaginator constructs a Paginator.
func NewPaginator(client Client, limiter *RateLimiter, log *slog.Logger) *Paginator {
	if log == nil {
		log = slog.Default()
	}
	return &Paginator{client: client, limiter: limiter, log: log}
}

// Paginate issues up to maxPages sequential page requests.
func (p *Paginator) Paginate(ctx context.Context, base SearchRequest, maxPages int) (*PaginateResult, error) {
	if maxPages > upstreamMaxPages {
		maxPages = upstreamMaxPages
	}
	if base.ItemCount == 0 {
		base.ItemCount = defaultPageItemCount
	}
	base, workaround := stripPriceRangeWorkaround(base)

	result := &PaginateResult{PriceRangeWorkaround: workaround}
	seen := make(map[string]bool)

	for page := 1; page <= maxPages; page++ {
		if err := p.limiter.Wait(ctx); err != nil {
			result.StoppedAt = "partial_failure"
			result.Partial = len(result.Products) > 0
			return result, fmt.Errorf("rate limiter wait on page %d: %w", page, err)
		}

		req := base
		req.ItemPage = page

		resp, err := p.client.SearchItems(ctx, req)
		if err != nil {
			if len(result.Products) > 0 {
				result.StoppedAt = "partial_failure"
				result.Partial = true
				p.log.Warn("paginated search: page failed after partial success", "page", page, "error", err)
				return result, nil
			}
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}

		result.PagesUsed++

		if len(resp.Products) == 0 {
			result.StoppedAt = "empty_page"
			return result, nil
		}

		for _, prod := range resp.Products {
			if seen[prod.ASIN] {
				continue
			}
			seen[prod.ASIN] = true
			result.Products = append(result.Products, prod)
		}

		if !resp.Meta.HasMorePages {
			result.StoppedAt = "requested_pages_done"
			return result, nil
		}

		if page < maxPages {
			select {
			case <-ctx.Done():
				result.StoppedAt = "partial_failure"
				result.Partial = true
				return result, fmt.Errorf("context canceled between pages: %w", ctx.Err())
			case <-time.After(PaginationDelay(maxPages)):
			}
		}
	}

	result.StoppedAt = "max_pages"
	return result, nil
}
