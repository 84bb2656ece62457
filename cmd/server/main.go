package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"weaksource/internal/analytics"
	"weaksource/internal/cache"
	"weaksource/internal/config"
	"weaksource/internal/handlers"
	"weaksource/internal/logging"
	"weaksource/internal/metrics"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "HTTP service for weak source detection",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(configPath)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting weak source detection service")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Retention)
	cancel()
	if err != nil {
		return err
	}
	defer redisCache.Close()
	logger.Info("connected to redis", "addr", cfg.Redis.Addr)

	analyzer := analytics.NewAnalyzer(cfg.Detector.BackgroundSamples, cfg.Analyzer.QueueSize)
	analyzer.Start(cfg.Analyzer.Workers)
	logger.Info("analyzer started",
		"workers", cfg.Analyzer.Workers,
		"window_size", cfg.Detector.WindowSize,
		"threshold_factor", cfg.Detector.ThresholdFactor,
	)

	handler := handlers.NewHandler(analyzer, redisCache, handlers.Options{
		Detector:        *cfg.NewDetector(),
		Generator:       cfg.GeneratorParams(),
		GeneratorLength: cfg.Generator.Length,
	}, logger)

	resultsDone := make(chan struct{})
	go func() {
		handler.ProcessResults(analyzer.GetResultsChan())
		close(resultsDone)
	}()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.NewRouter(handler, promhttp.Handler()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	tickerDone := make(chan struct{})
	go updateMetrics(analyzer, tickerDone)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("server failed", "error", err)
	}

	logger.Info("shutting down server")
	close(tickerDone)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	droppedBefore := analyzer.GetStats()["dropped"].(int64)
	analyzer.Stop()
	<-resultsDone
	if n := analyzer.GetStats()["dropped"].(int64) - droppedBefore; n > 0 {
		metrics.ScansDropped.Add(float64(n))
		logger.Warn("queued scans dropped on shutdown", "count", n)
	}
	handler.Wait()

	logger.Info("server stopped gracefully")
	return nil
}

// updateMetrics периодически обновляет размер очереди
func updateMetrics(analyzer *analytics.Analyzer, done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			metrics.QueueSize.Set(float64(analyzer.QueueSize()))
		}
	}
}
