package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// FieldSet names the record fields the fingerprint is read from and written to.
// Names are field references, either "[source][ip]" or "source.ip".
type FieldSet struct {
	SourceIP        string `yaml:"source_ip"`
	SourcePort      string `yaml:"source_port"`
	DestinationIP   string `yaml:"destination_ip"`
	DestinationPort string `yaml:"destination_port"`
	Protocol        string `yaml:"protocol"`
	Target          string `yaml:"target"`
}

// Required returns the five input field references in lookup order.
func (f FieldSet) Required() []string {
	return []string{f.SourceIP, f.SourcePort, f.DestinationIP, f.DestinationPort, f.Protocol}
}

// CommunityIDConfig holds the fingerprint namespace and field mapping.
type CommunityIDConfig struct {
	Seed   int      `yaml:"seed"`
	Fields FieldSet `yaml:"fields"`
}

// EngineConfig holds the configuration for the enrichment worker pool.
type EngineConfig struct {
	NumWorkers          int    `yaml:"num_workers"`
	SizeOfRecordChannel int    `yaml:"size_of_record_channel"`
	FlushInterval       string `yaml:"flush_interval"`
}

// NATSConfig holds the stream transport settings.
type NATSConfig struct {
	URL           string `yaml:"url"`
	InputSubject  string `yaml:"input_subject"`
	OutputSubject string `yaml:"output_subject"`
	Codec         string `yaml:"codec"`
}

// APIConfig holds the listen addresses for the HTTP and gRPC servers.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	GRPCAddr   string `yaml:"grpc_addr"`
}

// LoggingConfig selects the logger level and output encoding.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	CommunityID CommunityIDConfig `yaml:"community_id"`
	Engine      EngineConfig      `yaml:"engine"`
	NATS        NATSConfig        `yaml:"nats"`
	API         APIConfig         `yaml:"api"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Default returns the configuration used when no file is given. Field names
// follow the Elastic Common Schema.
func Default() *Config {
	return &Config{
		CommunityID: CommunityIDConfig{
			Seed: 0,
			Fields: FieldSet{
				SourceIP:        "[source][ip]",
				SourcePort:      "[source][port]",
				DestinationIP:   "[destination][ip]",
				DestinationPort: "[destination][port]",
				Protocol:        "[network][iana_number]",
				Target:          "[network][community_id]",
			},
		},
		Engine: EngineConfig{
			NumWorkers:          4,
			SizeOfRecordChannel: 1024,
			FlushInterval:       "1s",
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			InputSubject:  "flowid.records.raw",
			OutputSubject: "flowid.records.enriched",
			Codec:         "json",
		},
		API: APIConfig{
			ListenAddr: ":8080",
			GRPCAddr:   ":9090",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// LoadConfig reads the configuration from a YAML file on top of Default and
// validates the result.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration on top of Default and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Seed returns the validated community ID seed.
func (c *Config) Seed() uint16 {
	return uint16(c.CommunityID.Seed)
}

// FlushInterval returns the parsed sink flush interval.
func (c *Config) FlushInterval() time.Duration {
	d, err := time.ParseDuration(c.Engine.FlushInterval)
	if err != nil {
		return time.Second
	}
	return d
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.CommunityID.Seed < 0 || c.CommunityID.Seed > 0xffff {
		errs = multierror.Append(errs, fmt.Errorf("community_id.seed must be between 0 and 65535, got %d", c.CommunityID.Seed))
	}
	f := c.CommunityID.Fields
	names := []string{"source_ip", "source_port", "destination_ip", "destination_port", "protocol"}
	for i, ref := range f.Required() {
		if ref == "" {
			errs = multierror.Append(errs, fmt.Errorf("community_id.fields.%s must not be empty", names[i]))
		}
	}
	if c.Engine.NumWorkers <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("engine.num_workers must be positive, got %d", c.Engine.NumWorkers))
	}
	if c.Engine.SizeOfRecordChannel < 0 {
		errs = multierror.Append(errs, fmt.Errorf("engine.size_of_record_channel must not be negative, got %d", c.Engine.SizeOfRecordChannel))
	}
	if d, err := time.ParseDuration(c.Engine.FlushInterval); err != nil || d <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("engine.flush_interval must be a positive duration, got '%s'", c.Engine.FlushInterval))
	}
	switch c.NATS.Codec {
	case "json", "protobuf":
	default:
		errs = multierror.Append(errs, fmt.Errorf("nats.codec must be 'json' or 'protobuf', got '%s'", c.NATS.Codec))
	}
	switch c.Logging.Encoding {
	case "console", "json":
	default:
		errs = multierror.Append(errs, fmt.Errorf("logging.encoding must be 'console' or 'json', got '%s'", c.Logging.Encoding))
	}

	return errs.ErrorOrNil()
}
