package cmd

import (
	"fmt"
	"log/slog"

	"github.com/subszero0/mandimonitor/internal/analyze"
	"github.com/subszero0/mandimonitor/internal/config"
	"github.com/subszero0/mandimonitor/internal/extract"
	"github.com/subszero0/mandimonitor/internal/paapi"
	"github.com/subszero0/mandimonitor/internal/pipeline"
	"github.com/subszero0/mandimonitor/internal/repo"
	"github.com/subszero0/mandimonitor/internal/scoring"
	"github.com/subszero0/mandimonitor/internal/watcheval"
	"github.com/subszero0/mandimonitor/pkg/logger"
)

// loadConfig reads and validates the config file named by the --config
// flag, shared by every subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.Logging.Level, cfg.Logging.Format)
}

// buildAdapter constructs the PaapiAdapter, the sole point of contact
// with the upstream product-advertising API (spec.md §4.7).
func buildAdapter(cfg *config.Config, log *slog.Logger) *paapi.Adapter {
	signer := paapi.NewSigner(cfg.Paapi.AccessKey, cfg.Paapi.SecretKey, cfg.Paapi.Region)
	client := paapi.NewHTTPClient(signer, cfg.Paapi.PartnerTag)
	return paapi.NewAdapter(client, cfg.Paapi.RatePerSecond,
		paapi.WithLogger(log),
		paapi.WithQuotaLimit(cfg.Paapi.QuotaLimit),
	)
}

// buildPipeline wires FeatureExtractor, ProductAnalyzer, ScoringEngine
// and the PaapiAdapter into the RunSelection orchestrator (spec.md §4.6).
func buildPipeline(cfg *config.Config, adapter *paapi.Adapter, log *slog.Logger) *pipeline.Pipeline {
	cache := repo.NewTTLSearchCacheRepo(cfg.Selection.SearchCacheTTL, cfg.Selection.SearchCacheTTL)
	analyzerCache := repo.NewAnalyzerCache()

	return pipeline.New(
		adapter,
		extract.New(extract.WithLogger(log)),
		analyze.New(analyze.WithLogger(log), analyze.WithCache(analyzerCache)),
		scoring.New(),
		pipeline.WithLogger(log),
		pipeline.WithSearchCache(cache),
		pipeline.WithDeadline(cfg.Selection.Deadline),
		pipeline.WithAnalyzerWorkers(cfg.Selection.AnalyzerWorkers),
		pipeline.WithEnrichment(cfg.Selection.EnableEnrichment),
	)
}

// watchStores bundles the in-memory repositories the demo host keeps for
// watch state and price history; a real deployment swaps these for a
// persistent WatchRepo/PriceHistoryRepo (spec.md §1, §6).
type watchStores struct {
	watches *repo.InMemoryWatchRepo
	history *repo.InMemoryPriceHistoryRepo
}

func buildWatchStores() watchStores {
	return watchStores{
		watches: repo.NewInMemoryWatchRepo(),
		history: repo.NewInMemoryPriceHistoryRepo(),
	}
}

// buildEvaluator wires the PaapiAdapter and watch repositories into the
// WatchEvaluator (spec.md §4.8).
func buildEvaluator(cfg *config.Config, adapter *paapi.Adapter, stores watchStores, log *slog.Logger) *watcheval.Evaluator {
	return watcheval.New(adapter, stores.watches, stores.history,
		watcheval.WithLogger(log),
		watcheval.WithPriceDropThreshold(cfg.Watch.PriceDropThreshold),
		watcheval.WithFailThreshold(cfg.Watch.FailThreshold),
	)
}
