package streamenricher

import (
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/engine/manager"
	"Go2FlowID/internal/enricher"
	"Go2FlowID/internal/metrics"
	"Go2FlowID/internal/model"
	"Go2FlowID/internal/probe"
	"sync"

	"go.uber.org/zap"
)

// StreamEnricher consumes records from NATS, runs them through a
// manager.Manager and republishes the enriched records.
type StreamEnricher struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *metrics.Metrics
	subscriber *probe.Subscriber
	publisher  *probe.Publisher
	pipeline   model.Pipeline

	mu      sync.RWMutex
	stopped bool
}

// NewStreamEnricher creates a new real-time stream enricher. Extra sinks
// receive every record alongside the output subject.
func NewStreamEnricher(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics, extra ...model.Sink) (*StreamEnricher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pub, err := probe.NewPublisher(cfg.NATS, cfg.NATS.OutputSubject, logger.Named("publisher"))
	if err != nil {
		return nil, err
	}
	sub, err := probe.NewSubscriber(cfg.NATS, cfg.NATS.InputSubject, logger.Named("subscriber"), m)
	if err != nil {
		pub.Close()
		return nil, err
	}

	e := enricher.New(cfg.CommunityID, logger.Named("enricher"), m)
	sinks := append([]model.Sink{pub}, extra...)
	return &StreamEnricher{
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
		subscriber: sub,
		publisher:  pub,
		pipeline:   manager.NewManager(cfg, e, logger.Named("manager"), m, sinks...),
	}, nil
}

// Start starts the underlying manager and begins consuming the input subject.
func (se *StreamEnricher) Start() error {
	se.logger.Info("StreamEnricher starting",
		zap.String("url", se.cfg.NATS.URL),
		zap.String("input", se.cfg.NATS.InputSubject),
		zap.String("output", se.cfg.NATS.OutputSubject),
		zap.String("codec", se.cfg.NATS.Codec),
	)
	se.pipeline.Start()
	return se.subscriber.Start(se.handleRecord)
}

// Stop gracefully shuts down the enricher.
func (se *StreamEnricher) Stop() {
	se.logger.Info("StreamEnricher stopping...")
	se.subscriber.Close()

	se.mu.Lock()
	se.stopped = true
	se.mu.Unlock()

	// The pipeline drains its queue and takes a final flush before the
	// publisher connection goes away.
	se.pipeline.Stop()
	se.publisher.Close()
	se.logger.Info("StreamEnricher stopped.")
}

// handleRecord passes a decoded record to the manager's channel.
func (se *StreamEnricher) handleRecord(rec model.Record) {
	se.mu.RLock()
	defer se.mu.RUnlock()
	if se.stopped {
		return
	}
	se.pipeline.Input() <- rec
}
