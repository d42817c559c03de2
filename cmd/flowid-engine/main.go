package main

import (
	"Go2FlowID/internal/api"
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/engine/streamenricher"
	"Go2FlowID/internal/logging"
	"Go2FlowID/internal/metrics"
	"Go2FlowID/internal/model"
	"Go2FlowID/internal/ndjson"
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	archive := flag.String("archive", "", "Also append every enriched record to this NDJSON file.")
	metricsAddr := flag.String("metrics-addr", ":2112", "Address to serve /metrics on; empty disables it.")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.Must(cfg.Logging).Named("flowid-engine")
	defer logger.Sync()
	logger.Info("Configuration loaded successfully.", zap.String("path", *configPath))

	m := metrics.New()

	var extra []model.Sink
	if *archive != "" {
		w, err := ndjson.Create(*archive)
		if err != nil {
			logger.Fatal("Failed to open archive file", zap.Error(err))
		}
		defer w.Close()
		extra = append(extra, w)
	}

	// 2. Initialize a new StreamEnricher
	streamEnricher, err := streamenricher.NewStreamEnricher(cfg, logger, m, extra...)
	if err != nil {
		logger.Fatal("Failed to create stream enricher", zap.Error(err))
	}

	// 3. Start the enricher
	if err := streamEnricher.Start(); err != nil {
		logger.Fatal("Failed to start stream enricher", zap.Error(err))
	}

	var metricsServer *http.Server
	if *metricsAddr != "" {
		metricsServer = &http.Server{Addr: *metricsAddr, Handler: api.MetricsRouter(m)}
		go func() {
			logger.Info("Metrics server starting", zap.String("addr", *metricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	// 4. Wait for a shutdown signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping enricher...")
	streamEnricher.Stop()
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsServer.Shutdown(ctx)
	}
	logger.Info("Shutdown complete.")
}
