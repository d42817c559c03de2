package probe

import (
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/metrics"
	"Go2FlowID/internal/model"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// RecordHandler is a function that processes a received record.
type RecordHandler func(rec model.Record)

// Subscriber is responsible for subscribing to a NATS subject and decoding records.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	codec   Codec
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewSubscriber connects to NATS and creates a subscriber for subject.
func NewSubscriber(cfg config.NATSConfig, subject string, logger *zap.Logger, m *metrics.Metrics) (*Subscriber, error) {
	codec, err := NewCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := Connect(cfg.URL, logger)
	if err != nil {
		return nil, err
	}
	logger.Sugar().Infof("Connected to NATS server at %s", cfg.URL)
	return &Subscriber{nc: nc, subject: subject, codec: codec, logger: logger, metrics: m}, nil
}

// Start subscribes to the subject and hands each decoded record to handler.
func (s *Subscriber) Start(handler RecordHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		s.handle(msg, handler)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	s.logger.Sugar().Infof("Subscribed to '%s'. Waiting for messages...", s.subject)
	return nil
}

func (s *Subscriber) handle(msg *nats.Msg, handler RecordHandler) {
	rec, err := s.codec.Decode(msg.Data)
	if err != nil {
		s.metrics.DecodeError()
		s.logger.Warn("Error decoding record", zap.String("codec", s.codec.Name()), zap.Error(err))
		return
	}
	handler(rec)
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			s.logger.Warn("Error unsubscribing", zap.Error(err))
		}
	}
	if s.nc != nil {
		s.nc.Close()
		s.logger.Info("NATS connection closed.")
	}
}
