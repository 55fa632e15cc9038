package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/buyer-leads/internal/api/router"
	"github.com/wolfman30/buyer-leads/internal/app/bootstrap"
	appconfig "github.com/wolfman30/buyer-leads/internal/config"
	httpmiddleware "github.com/wolfman30/buyer-leads/internal/http/middleware"
	"github.com/wolfman30/buyer-leads/internal/leads"
	"github.com/wolfman30/buyer-leads/internal/observability/metrics"
	"github.com/wolfman30/buyer-leads/pkg/logging"
)

func main() {
	// Local runs read .env; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, logging.WithFormat(cfg.LogFormat))
	logger.Info("starting buyer-leads API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsHandler, leadMetrics := setupMetrics()

	leadService := bootstrap.BuildLeadService(
		leads.NewPostgresRepository(pool),
		bootstrap.BuildListCache(redisClient, cfg),
		leadMetrics,
		cfg,
		logger,
	)

	submitLimiter := httpmiddleware.NewRateLimiter(cfg.LeadSubmitRate, cfg.LeadSubmitBurst)
	defer submitLimiter.Stop()

	readyChecks := map[string]router.Pinger{"postgres": pool}
	if redisClient != nil {
		readyChecks["redis"] = redisPinger{client: redisClient}
	}

	r := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(leadService, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ActorAuthSecret:    cfg.ActorJWTSecret,
		DefaultActor:       bootstrap.DefaultActor(cfg),
		SubmitLimiter:      submitLimiter,
		ReadyChecks:        readyChecks,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// setupMetrics builds a private registry with runtime collectors and the lead metrics.
func setupMetrics() (http.Handler, *metrics.LeadMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	leadMetrics := metrics.NewLeadMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), leadMetrics
}
