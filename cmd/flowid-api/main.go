package main

import (
	"Go2FlowID/internal/api"
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/logging"
	"Go2FlowID/internal/metrics"
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.Must(cfg.Logging).Named("flowid-api")
	defer logger.Sync()

	// Initialize router
	apiHandler := api.NewAPIHandler(cfg, logger, metrics.New())
	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: apiHandler.Router(),
	}

	go func() {
		logger.Info("API server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Could not listen", zap.String("addr", server.Addr), zap.Error(err))
		}
	}()

	// Start gRPC health server
	grpcServer, healthServer := api.NewGRPCServer()
	if cfg.API.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.API.GRPCAddr)
		if err != nil {
			logger.Fatal("Failed to listen for gRPC", zap.String("addr", cfg.API.GRPCAddr), zap.Error(err))
		}
		go func() {
			logger.Info("gRPC server starting", zap.String("addr", cfg.API.GRPCAddr))
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server stopped", zap.Error(err))
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("API server shutting down...")

	healthServer.Shutdown()
	grpcServer.GracefulStop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("API server exited.")
}
