package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_SampleFile(t *testing.T) {
	cfg, err := LoadConfig("../../configs/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, uint16(0), cfg.Seed())
	assert.Equal(t, "[source][ip]", cfg.CommunityID.Fields.SourceIP)
	assert.Equal(t, "[network][community_id]", cfg.CommunityID.Fields.Target)
	assert.Equal(t, 4, cfg.Engine.NumWorkers)
	assert.Equal(t, time.Second, cfg.FlushInterval())
	assert.Equal(t, "flowid.records.raw", cfg.NATS.InputSubject)
	assert.Equal(t, "json", cfg.Logging.Encoding)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
community_id:
  seed: 123
  fields:
    source_ip: src_ip
    target: ""
engine:
  num_workers: 2
`))
	require.NoError(t, err)

	assert.Equal(t, uint16(123), cfg.Seed())
	assert.Equal(t, "src_ip", cfg.CommunityID.Fields.SourceIP)
	assert.Equal(t, "[source][port]", cfg.CommunityID.Fields.SourcePort, "unset fields keep their default")
	assert.Empty(t, cfg.CommunityID.Fields.Target, "an explicit empty target is preserved")
	assert.Equal(t, 2, cfg.Engine.NumWorkers)
	assert.Equal(t, 1024, cfg.Engine.SizeOfRecordChannel)
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	_, err := Parse([]byte(`
community_id:
  seed: 70000
  fields:
    protocol: ""
engine:
  num_workers: 0
  flush_interval: soon
nats:
  codec: xml
`))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "community_id.seed")
	assert.Contains(t, msg, "community_id.fields.protocol")
	assert.Contains(t, msg, "engine.num_workers")
	assert.Contains(t, msg, "engine.flush_interval")
	assert.Contains(t, msg, "nats.codec")
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [1, 2"), 0644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to unmarshal config YAML")
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
