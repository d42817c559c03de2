package probe

import (
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/model"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher is responsible for publishing records to a NATS subject. It
// implements model.Sink so it can sit at the end of a pipeline.
type Publisher struct {
	nc      *nats.Conn
	subject string
	codec   Codec
	logger  *zap.Logger
}

// NewPublisher connects to NATS and creates a publisher for subject.
func NewPublisher(cfg config.NATSConfig, subject string, logger *zap.Logger) (*Publisher, error) {
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
	return &Publisher{nc: nc, subject: subject, codec: codec, logger: logger}, nil
}

// Publish serializes a record with the configured codec and publishes it.
func (p *Publisher) Publish(rec model.Record) error {
	data, err := p.codec.Encode(rec)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish to '%s': %w", p.subject, err)
	}
	return nil
}

// Emit implements model.Sink.
func (p *Publisher) Emit(rec model.Record) error {
	return p.Publish(rec)
}

// Flush waits for the server to acknowledge everything published so far.
func (p *Publisher) Flush() error {
	return p.nc.Flush()
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.logger.Warn("Error draining NATS connection", zap.Error(err))
		}
		p.logger.Info("NATS connection drained and closed.")
	}
}

// Connect opens a NATS connection that reconnects forever and logs
// connection state changes.
func Connect(url string, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("flowid"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}
