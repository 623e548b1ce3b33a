package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BpsEason/investment-risk-platform/api"
	"github.com/BpsEason/investment-risk-platform/internal/config"
	"github.com/BpsEason/investment-risk-platform/internal/core"
	"github.com/BpsEason/investment-risk-platform/internal/explain"
	"github.com/BpsEason/investment-risk-platform/internal/llm"
	"github.com/BpsEason/investment-risk-platform/internal/observability"
	"github.com/BpsEason/investment-risk-platform/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to an optional configuration file")
	envFile := flag.String("env-file", ".env", "Path to a dotenv file loaded before the configuration")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)
	gin.SetMode(cfg.Server.Mode)

	// Create a context that is cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Metrics registry shared by the services and exposed on /metrics
	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	// 2. Risk service on top of the stateless engine, explanations optional
	riskOpts := []service.Option{
		service.WithMetrics(metrics),
		service.WithLogger(logger),
	}
	if cfg.Explain.Enabled {
		client := llm.NewClient(cfg.OpenAI.APIKey, cfg.Explain.Model)
		explainer := explain.NewExplainer(client, cfg.Explain.Temperature)
		riskOpts = append(riskOpts, service.WithExplainer(explainer, cfg.Explain.Timeout))
		logger.Info("metric explanations enabled", "model", cfg.Explain.Model)
	}
	riskService := service.NewRiskService(core.NewEngine(), riskOpts...)

	// 3. Import service, files are validated and summarised, never stored
	importService := service.NewImportService(service.ImportConfig{
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		PreviewRows:    cfg.Import.PreviewRows,
	}, metrics, logger)

	apiHandler := api.NewAPIHandler(riskService, importService, logger,
		api.WithMetricsHandler(metrics.Handler()),
		api.WithRequestTimeout(cfg.Server.RequestTimeout))
	server := apiHandler.NewServer(cfg.Server.Port)

	fmt.Printf("Risk platform starting on port %d\n", cfg.Server.Port)
	fmt.Printf("Endpoints:\n")
	fmt.Printf("  POST /calculate-risk\n")
	fmt.Printf("  POST /etl/import-data\n")
	fmt.Printf("  GET  /health\n")
	fmt.Printf("  GET  /metrics\n")
	fmt.Printf("Press Ctrl+C to gracefully shutdown\n")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		fmt.Println("\nReceived shutdown signal, stopping services...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
