package manager

import (
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/enricher"
	"Go2FlowID/internal/metrics"
	"Go2FlowID/internal/model"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Manager runs records through the enricher on a pool of workers and hands
// the results to its sinks. It implements model.Pipeline.
type Manager struct {
	enricher *enricher.Enricher
	sinks    []model.Sink
	logger   *zap.Logger
	metrics  *metrics.Metrics

	// Worker pool for concurrent record processing
	recordChannel chan model.Record
	numWorkers    int
	workerWg      sync.WaitGroup

	// Periodic sink flushing
	flushInterval time.Duration
	done          chan struct{}
	flusherWg     sync.WaitGroup
	stopOnce      sync.Once

	processed atomic.Uint64
	enriched  atomic.Uint64
}

// NewManager creates a new Manager. logger and m may be nil.
func NewManager(cfg *config.Config, e *enricher.Enricher, logger *zap.Logger, m *metrics.Metrics, sinks ...model.Sink) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	numWorkers := cfg.Engine.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Manager{
		enricher:      e,
		sinks:         sinks,
		logger:        logger,
		metrics:       m,
		recordChannel: make(chan model.Record, cfg.Engine.SizeOfRecordChannel),
		numWorkers:    numWorkers,
		flushInterval: cfg.FlushInterval(),
		done:          make(chan struct{}),
	}
}

// Start begins the manager's record processing workers and the flusher goroutine.
func (m *Manager) Start() {
	m.flusherWg.Add(1)
	go m.runFlusher()
	m.logger.Sugar().Infof("Started sink flusher with interval %s for %d sinks.", m.flushInterval, len(m.sinks))

	m.workerWg.Add(m.numWorkers)
	for i := 0; i < m.numWorkers; i++ {
		go m.worker()
	}
	m.logger.Sugar().Infof("Manager started with %d workers.", m.numWorkers)
}

// runFlusher flushes all sinks on every tick, and once more on shutdown.
func (m *Manager) runFlusher() {
	defer m.flusherWg.Done()
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.flushSinks()
			m.metrics.SetQueueDepth(len(m.recordChannel))
		case <-m.done:
			m.flushSinks()
			return
		}
	}
}

func (m *Manager) flushSinks() {
	for _, sink := range m.sinks {
		if err := sink.Flush(); err != nil {
			m.metrics.SinkError()
			m.logger.Error("Error flushing sink", zap.Error(err))
		}
	}
}

// Stop gracefully shuts down the manager. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.logger.Info("Manager stopping...")
		// 1. Stop accepting new records.
		close(m.recordChannel)

		// 2. Wait for all workers to finish processing buffered records.
		m.logger.Info("Waiting for workers to finish...")
		m.workerWg.Wait()

		// 3. Signal the flusher to take a final flush and exit.
		close(m.done)
		m.flusherWg.Wait()

		m.logger.Info("Manager stopped.",
			zap.Uint64("processed", m.processed.Load()),
			zap.Uint64("enriched", m.enriched.Load()),
		)
	})
}

func (m *Manager) worker() {
	defer m.workerWg.Done()
	for rec := range m.recordChannel {
		if m.enricher.Enrich(rec).OK() {
			m.enriched.Add(1)
		}
		m.processed.Add(1)

		// Fan out the record to all sinks
		for _, sink := range m.sinks {
			if err := sink.Emit(rec); err != nil {
				m.metrics.SinkError()
				m.logger.Error("Error emitting record", zap.Error(err))
			}
		}
	}
}

// Input returns the channel records are submitted on. It is closed by Stop.
func (m *Manager) Input() chan<- model.Record {
	return m.recordChannel
}

// Processed returns how many records have gone through the workers.
func (m *Manager) Processed() uint64 {
	return m.processed.Load()
}

// Enriched returns how many records received a community ID.
func (m *Manager) Enriched() uint64 {
	return m.enriched.Load()
}
