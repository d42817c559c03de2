package main

import (
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/logging"
	"Go2FlowID/internal/model"
	"Go2FlowID/internal/ndjson"
	"Go2FlowID/internal/probe"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	// --- Command-Line Flag Parsing ---
	mode := flag.String("mode", "sub", "Operating mode: 'pub' to publish raw records, 'sub' to subscribe and print enriched records.")
	file := flag.String("file", "-", "NDJSON file to publish in pub mode; '-' reads stdin.")
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.Must(cfg.Logging).Named("flowid-probe")
	defer logger.Sync()

	// --- Mode Dispatch ---
	switch *mode {
	case "pub":
		runPublisher(cfg, *file, logger)
	case "sub":
		runSubscriber(cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

// runPublisher publishes every record of an NDJSON file to the input subject.
func runPublisher(cfg *config.Config, path string, logger *zap.Logger) {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			logger.Fatal("Error opening input file", zap.String("path", path), zap.Error(err))
		}
		defer f.Close()
		in = f
	}

	pub, err := probe.NewPublisher(cfg.NATS, cfg.NATS.InputSubject, logger)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer pub.Close()

	var published int
	err = ndjson.Read(in, func(rec model.Record) error {
		if err := pub.Publish(rec); err != nil {
			return err
		}
		published++
		return nil
	}, func(err error) {
		logger.Warn("Skipping undecodable line", zap.Error(err))
	})
	if err != nil {
		logger.Fatal("Publishing failed", zap.Error(err))
	}
	if err := pub.Flush(); err != nil {
		logger.Error("Error flushing NATS connection", zap.Error(err))
	}
	logger.Info("Records published", zap.Int("count", published), zap.String("subject", cfg.NATS.InputSubject))
}

// runSubscriber prints enriched records from the output subject as NDJSON.
func runSubscriber(cfg *config.Config, logger *zap.Logger) {
	logger.Info("Starting flowid-probe in SUBSCRIBER mode...")

	out := ndjson.NewWriter(os.Stdout)
	sub, err := probe.NewSubscriber(cfg.NATS, cfg.NATS.OutputSubject, logger, nil)
	if err != nil {
		logger.Fatal("Failed to create subscriber", zap.Error(err))
	}
	defer sub.Close()

	err = sub.Start(func(rec model.Record) {
		if err := out.Emit(rec); err != nil {
			logger.Error("Error writing record", zap.Error(err))
			return
		}
		out.Flush()
	})
	if err != nil {
		logger.Fatal("Failed to start subscriber", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Subscriber shutting down.")
}
