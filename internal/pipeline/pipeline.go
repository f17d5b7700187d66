// Package pipeline wires FeatureExtractor, ProductAnalyzer, ScoringEngine,
// ModelSelector, and MultiCardSelector into the Query -> Search -> Enrich
// -> Select orchestrator the rest of the system consumes (spec.md §4.6).
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/subszero0/mandimonitor/internal/analyze"
	"github.com/subszero0/mandimonitor/internal/extract"
	"github.com/subszero0/mandimonitor/internal/metrics"
	"github.com/subszero0/mandimonitor/internal/paapi"
	"github.com/subszero0/mandimonitor/internal/repo"
	"github.com/subszero0/mandimonitor/internal/scoring"
	"github.com/subszero0/mandimonitor/internal/selector"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// ProductSource is the narrow view of PaapiAdapter the pipeline depends
// on, so tests can substitute a fake without constructing a real Adapter.
type ProductSource interface {
	SearchPaginated(ctx context.Context, req paapi.SearchRequest, maxPages int) (*paapi.PaginateResult, error)
	GetItemsBatch(ctx context.Context, asins []string, resources paapi.ResourceSet) (map[string]paapi.Product, error)
}

const (
	defaultDeadline       = 15 * time.Second
	defaultAnalyzerWorker = 8
	defaultSearchIndex    = "Electronics"
	enrichBatchSize       = 10
)

// Pipeline is the RunSelection orchestrator (spec.md §4.6, §6).
type Pipeline struct {
	source    ProductSource
	extractor *extract.Extractor
	analyzer  *analyze.Analyzer
	scorer    *scoring.Engine
	cache     repo.SearchCacheRepo
	log       *slog.Logger

	deadline          time.Duration
	analyzerWorkers   int
	enableEnrichment  bool
	multiCardConfig   selector.MultiCardConfig
	seed              uint64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithSearchCache injects the optional SearchCacheRepo (config:
// pipeline collaborator, spec.md §6).
func WithSearchCache(c repo.SearchCacheRepo) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithDeadline overrides the default end-to-end deadline (config:
// pipeline.deadline_ms).
func WithDeadline(d time.Duration) Option {
	return func(p *Pipeline) { p.deadline = d }
}

// WithAnalyzerWorkers overrides the analysis worker-pool size (config:
// pipeline.analyzer_workers).
func WithAnalyzerWorkers(n int) Option {
	return func(p *Pipeline) { p.analyzerWorkers = n }
}

// WithEnrichment toggles batch price enrichment (config:
// pipeline.enable_enrichment).
func WithEnrichment(enabled bool) Option {
	return func(p *Pipeline) { p.enableEnrichment = enabled }
}

// WithMultiCardConfig overrides the multi-card decision thresholds
// (config: multicard.*).
func WithMultiCardConfig(cfg selector.MultiCardConfig) Option {
	return func(p *Pipeline) { p.multiCardConfig = cfg }
}

// WithSeed fixes the ModelSelector's random-model seed, for reproducible
// tests (spec.md §4.4: "seeded per-request for test reproducibility").
func WithSeed(seed uint64) Option {
	return func(p *Pipeline) { p.seed = seed }
}

// New constructs a Pipeline over the given collaborators.
func New(source ProductSource, extractor *extract.Extractor, analyzer *analyze.Analyzer, scorer *scoring.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:           source,
		extractor:        extractor,
		analyzer:         analyzer,
		scorer:           scorer,
		log:              slog.Default(),
		deadline:         defaultDeadline,
		analyzerWorkers:  defaultAnalyzerWorker,
		enableEnrichment: true,
		multiCardConfig:  selector.DefaultMultiCardConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunSelection is the core's primary downstream call (spec.md §6): a
// free-text query plus optional filters in, a ranked SelectionResult or
// one of the five canonical error kinds out.
func (p *Pipeline) RunSelection(ctx context.Context, query domain.Query, userID string) (domain.SelectionResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	if query.Filters.MinPrice != nil && query.Filters.MaxPrice != nil && *query.Filters.MinPrice > *query.Filters.MaxPrice {
		return domain.SelectionResult{}, NewInvalidInput("min_price exceeds max_price")
	}

	result, err := p.runSelectionLocked(ctx, query, userID, start)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	metrics.SelectionsTotal.WithLabelValues(outcome).Inc()
	metrics.SelectionDuration.Observe(elapsed.Seconds())

	return result, err
}

func (p *Pipeline) runSelectionLocked(ctx context.Context, query domain.Query, userID string, start time.Time) (domain.SelectionResult, error) {
	p.log.Debug("run selection", "user_id", userID, "query", query.Text)

	// Stage 1: extract.
	stageStart := time.Now()
	features := p.extractor.Extract(query.Text, derefHint(query.Filters.CategoryHint))
	p.logStage("extract", stageStart, 0, len(features.Features), "", false)

	category := features.Category
	if category == "" {
		category = "general"
	}

	// Stage 2-3: enhance + depth.
	stageStart = time.Now()
	enhancedKeywords, added := enhanceKeywords(query.Text, query.Filters, category)
	depth := searchDepth(query.Filters, added, defaultSearchIndex, 10)
	p.logStage("enhance", stageStart, 1, 1, "", false)

	// Stage 4: search.
	stageStart = time.Now()
	searchReq := paapi.SearchRequest{
		Keywords:    enhancedKeywords,
		SearchIndex: defaultSearchIndex,
		ItemCount:   10,
		Resources:   paapi.ResourceSetSearch,
	}
	if query.Filters.MaxPrice != nil {
		searchReq.MaxPrice = query.Filters.MaxPrice
	}
	if query.Filters.MinPrice != nil {
		searchReq.MinPrice = query.Filters.MinPrice
	}
	// Both bounds are passed through; the adapter strips MaxPrice itself and
	// reports whether it did, so the pipeline need not duplicate that logic.

	pageResult, err := p.searchCached(ctx, searchReq, depth)
	if err != nil {
		p.logStage("search", stageStart, 0, 0, "", false)
		return domain.SelectionResult{}, classifyUpstreamError("search", err)
	}
	products := paapi.ToDomainProducts(pageResult.Products, time.Now())
	p.logStage("search", stageStart, 0, len(products), "", false)

	priceRangeWorkaround := pageResult.PriceRangeWorkaround
	// Client-side max_price application when both min and max were given.
	if priceRangeWorkaround && query.Filters.MaxPrice != nil {
		products = applyClientMaxPrice(products, *query.Filters.MaxPrice)
	}

	// Stage 5: enrichment of products missing price_rupees.
	stageStart = time.Now()
	enrichmentPerformed := false
	if p.enableEnrichment {
		products, enrichmentPerformed = p.enrichMissingPrices(ctx, products)
	}
	p.logStage("enrich", stageStart, len(products), len(products), "", false)

	// Stage 6: filter chain.
	stageStart = time.Now()
	filtered, failReason := applyFilters(products, query.Filters)
	p.logStage("filter", stageStart, len(products), len(filtered), "", false)
	if failReason != "" {
		return domain.SelectionResult{}, NewNoMatch(failReason)
	}
	if len(filtered) == 0 {
		return domain.SelectionResult{}, NewNoMatch("no_search_results")
	}

	// Stage 7: analyze.
	stageStart = time.Now()
	p.analyzeAll(filtered, category)
	p.logStage("analyze", stageStart, len(filtered), len(filtered), "", false)

	// Stage 8: score.
	stageStart = time.Now()
	candidates := p.scoreAll(filtered, features, query.Filters.MaxPrice)
	p.logStage("score", stageStart, len(filtered), len(candidates), "", false)

	// Stage 9: sort with tie-break.
	sortCandidates(candidates, query.Filters.MaxPrice, features)

	// Stage 10: model selection.
	stageStart = time.Now()
	selResult, err := selector.Select(candidates, features.TechnicalQuery, p.seed)
	if err != nil {
		p.logStage("select", stageStart, len(candidates), 0, "", true)
		return domain.SelectionResult{}, NewNoMatch("model_selector_exhausted")
	}
	metrics.ModelUsedTotal.WithLabelValues(string(selResult.ModelUsed)).Inc()
	if selResult.FallbackReason != "" {
		metrics.FallbackTriggeredTotal.Inc()
	}
	p.logStage("select", stageStart, len(candidates), len(selResult.Candidates), string(selResult.ModelUsed), selResult.FallbackReason != "")

	// Stage 11: multi-card decision.
	stageStart = time.Now()
	budget := 0
	if query.Filters.MaxPrice != nil {
		budget = *query.Filters.MaxPrice
	}
	mode := selector.DecideMode(selResult.Candidates, budget, p.multiCardConfig)
	n := mode.Slice()
	if n > len(selResult.Candidates) {
		n = len(selResult.Candidates)
	}
	top := selResult.Candidates[:n]

	var comparison *domain.ComparisonTable
	if n > 1 {
		table := selector.BuildComparisonTable(top, features, userFeatureOrder(features))
		comparison = &table
	}
	p.logStage("multicard", stageStart, len(selResult.Candidates), n, string(mode), false)

	finalProducts := make([]domain.Product, n)
	finalScores := make([]domain.Score, n)
	for i, c := range top {
		finalProducts[i] = c.Product
		finalScores[i] = c.Score
	}

	for _, s := range finalScores {
		metrics.ScoreDistribution.Observe(s.Final)
	}

	return domain.SelectionResult{
		Mode:                 mode,
		Products:             finalProducts,
		Scores:               finalScores,
		Comparison:           comparison,
		ModelUsed:            selResult.ModelUsed,
		FallbackReason:       selResult.FallbackReason,
		ProcessingMS:         time.Since(start).Milliseconds(),
		EnhancementApplied:   added,
		EnrichmentPerformed:  enrichmentPerformed,
		PriceRangeWorkaround: priceRangeWorkaround,
		PartialResult:        pageResult.Partial,
	}, nil
}

func (p *Pipeline) logStage(stage string, start time.Time, in, out int, model string, fallback bool) {
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	p.log.Info("pipeline stage",
		"stage", stage,
		"elapsed_ms", elapsed.Milliseconds(),
		"candidates_in", in,
		"candidates_out", out,
		"model", model,
		"fallback", fallback,
	)
}

// searchCached consults the SearchCacheRepo before issuing a paginated
// search, and fills it on a miss (spec.md §6: "Cacheable by normalized
// keywords + filters, TTL guidance 10 minutes"). With no cache injected it
// falls through to the source directly.
func (p *Pipeline) searchCached(ctx context.Context, req paapi.SearchRequest, maxPages int) (*paapi.PaginateResult, error) {
	if p.cache == nil {
		return p.source.SearchPaginated(ctx, req, maxPages)
	}

	key := searchCacheKey(req, maxPages)
	if v, ok, _ := p.cache.Get(ctx, key); ok {
		if cached, ok := v.(*paapi.PaginateResult); ok {
			metrics.SearchCacheResultTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
	}

	metrics.SearchCacheResultTotal.WithLabelValues("miss").Inc()
	result, err := p.source.SearchPaginated(ctx, req, maxPages)
	if err != nil {
		return nil, err
	}
	_ = p.cache.Put(ctx, key, result, 0) // ttl 0: cache's own default expiration
	return result, nil
}

// searchCacheKey derives the repo.SearchCacheKey identity for a search
// request. maxPages is deterministic for a given (keywords, filters) pair
// via searchDepth, so it isn't folded into the key separately.
func searchCacheKey(req paapi.SearchRequest, maxPages int) repo.SearchCacheKey {
	return repo.SearchCacheKey{
		NormalizedKeywords: strings.ToLower(strings.TrimSpace(req.Keywords)),
		SearchIndex:        req.SearchIndex,
		MinPrice:           req.MinPrice,
		MaxPrice:           req.MaxPrice,
		BrowseNode:         req.BrowseNode,
		ItemCount:          req.ItemCount,
		ResourceSetID:      string(req.Resources),
	}
}

// enrichMissingPrices batches products with a nil PriceRupees through
// GetItemsBatch, up to 10 ASINs per call (spec.md §4.6 step 5). Products
// that still lack a price after enrichment are kept for non-price
// scoring paths but excluded from price-sensitive ones downstream.
func (p *Pipeline) enrichMissingPrices(ctx context.Context, products []domain.Product) ([]domain.Product, bool) {
	var missing []string
	for _, prod := range products {
		if prod.PriceRupees == nil {
			missing = append(missing, prod.ASIN)
		}
	}
	if len(missing) == 0 {
		return products, false
	}

	performed := false
	for start := 0; start < len(missing); start += enrichBatchSize {
		end := start + enrichBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]
		items, err := p.source.GetItemsBatch(ctx, batch, paapi.ResourceSetLookup)
		if err != nil {
			p.log.Warn("price enrichment batch failed", "error", err, "asin_count", len(batch))
			continue
		}
		performed = true
		for i, prod := range products {
			if prod.PriceRupees != nil {
				continue
			}
			wire, ok := items[prod.ASIN]
			if !ok {
				continue
			}
			enriched := paapi.ToDomainProduct(wire, time.Now())
			products[i].PriceRupees = enriched.PriceRupees
			products[i].ListPriceRupees = enriched.ListPriceRupees
		}
	}
	return products, performed
}

func (p *Pipeline) analyzeAll(products []domain.Product, category string) {
	workers := p.analyzerWorkers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(products) {
		workers = len(products)
	}
	if workers == 0 {
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				analyzed := p.analyzer.Analyze(&products[i], category)
				products[i].Analyzed = &analyzed
			}
		}()
	}
	for i := range products {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

func (p *Pipeline) scoreAll(products []domain.Product, user domain.ExtractedFeatures, budget *int) []selector.Candidate {
	candidates := make([]selector.Candidate, 0, len(products))
	for i := range products {
		if products[i].Analyzed == nil || products[i].Analyzed.Empty() {
			continue
		}
		score := p.scorer.Score(user, *products[i].Analyzed, products[i].PriceRupees, budget)
		candidates = append(candidates, selector.Candidate{Product: products[i], Score: score})
	}
	return candidates
}

// sortCandidates orders by Score.Final descending with the full
// tie-break chain (spec.md §4.6 step 9).
func sortCandidates(candidates []selector.Candidate, budget *int, user domain.ExtractedFeatures) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score.Final != b.Score.Final {
			return a.Score.Final > b.Score.Final
		}
		if len(a.Score.MatchedFeatures) != len(b.Score.MatchedFeatures) {
			return len(a.Score.MatchedFeatures) > len(b.Score.MatchedFeatures)
		}
		aConf, bConf := overallConfidence(a), overallConfidence(b)
		if aConf != bConf {
			return aConf > bConf
		}
		aPop, bPop := popularity(a.Product), popularity(b.Product)
		if aPop != bPop {
			return aPop > bPop
		}
		aTier, bTier := tierPreference(a.Product, budget), tierPreference(b.Product, budget)
		if aTier != bTier {
			return aTier > bTier
		}
		aMissing, bMissing := missingFeatureCount(a, user), missingFeatureCount(b, user)
		if aMissing != bMissing {
			return aMissing < bMissing
		}
		return a.Product.ASIN < b.Product.ASIN
	})
}

func overallConfidence(c selector.Candidate) float64 {
	if c.Product.Analyzed == nil {
		return 0
	}
	return c.Product.Analyzed.OverallConfidence
}

func popularity(p domain.Product) float64 {
	rating := p.AverageRating
	return float64(p.RatingCount)*0.0001 + rating
}

// tierPreference returns mid=2 > premium=1 > budget=0, matching spec.md's
// tie-break ordering ("mid > premium > budget").
func tierPreference(p domain.Product, budget *int) int {
	if p.PriceRupees == nil || budget == nil || *budget <= 0 {
		return 1
	}
	ratio := float64(*p.PriceRupees) / float64(*budget)
	switch {
	case ratio < 0.4:
		return 0 // budget
	case ratio > 0.8:
		return 1 // premium
	default:
		return 2 // mid
	}
}

// missingFeatureCount is how many of the user's expressed features this
// candidate failed to match (Score.MatchedFeatures only counts matches
// scored > 0.7 — spec.md §3 Score definition).
func missingFeatureCount(c selector.Candidate, user domain.ExtractedFeatures) int {
	missing := len(user.Features) - len(c.Score.MatchedFeatures)
	if missing < 0 {
		missing = 0
	}
	return missing
}

func applyClientMaxPrice(products []domain.Product, maxPrice int) []domain.Product {
	out := products[:0]
	for _, p := range products {
		if p.PriceRupees == nil || *p.PriceRupees <= maxPrice {
			out = append(out, p)
		}
	}
	return out
}

func derefHint(hint *string) string {
	if hint == nil {
		return ""
	}
	return *hint
}

// userFeatureOrder approximates "order preserved from query extraction"
// (spec.md §4.5): ExtractedFeatures stores features in a map, so true
// insertion order isn't retained; a stable lexical order stands in so the
// comparison table is at least deterministic across runs.
func userFeatureOrder(f domain.ExtractedFeatures) []string {
	order := make([]string, 0, len(f.Features))
	for name := range f.Features {
		order = append(order, name)
	}
	sort.Strings(order)
	return order
}

func classifyUpstreamError(stage string, err error) error {
	if errors.Is(err, paapi.ErrUnavailable) {
		return NewUnavailable(stage, err)
	}
	return NewTransient(stage, err)
}
