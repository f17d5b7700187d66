package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humaecho "github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/subszero0/mandimonitor/internal/api/handlers"
	apimw "github.com/subszero0/mandimonitor/internal/api/middleware"
	"github.com/subszero0/mandimonitor/internal/watcheval"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the selection API and watch scheduler",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg)

	adapter := buildAdapter(cfg, log)
	pl := buildPipeline(cfg, adapter, log)
	stores := buildWatchStores()
	evaluator := buildEvaluator(cfg, adapter, stores, log)

	scheduler, err := watcheval.NewScheduler(evaluator, stores.watches, cfg.Watch.PriceCriticalEvery, cfg.Watch.DigestEvery, log)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(apimw.Recovery(log))
	e.Use(apimw.RequestLog(log))
	e.Use(apimw.Metrics())

	api := humaecho.New(e, huma.DefaultConfig("paapi-core", Version))

	healthH := handlers.NewHealthHandler()
	handlers.RegisterHealthRoutes(api, healthH)

	selectionH := handlers.NewSelectionHandler(pl)
	handlers.RegisterSelectionRoutes(api, selectionH)

	watchH := handlers.NewWatchHandler(stores.watches)
	handlers.RegisterWatchRoutes(api, watchH)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	scheduler.Start()
	log.Info("watch scheduler started")

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	schedCtx := scheduler.Stop()
	<-schedCtx.Done()
	log.Info("scheduler stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	log.Info("server stopped")
	return nil
}
