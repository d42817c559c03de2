package enricher

import (
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/metrics"
	"Go2FlowID/internal/model"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func flatConfig() config.CommunityIDConfig {
	return config.CommunityIDConfig{
		Fields: config.FieldSet{
			SourceIP:        "src_ip",
			SourcePort:      "src_port",
			DestinationIP:   "dst_ip",
			DestinationPort: "dst_port",
			Protocol:        "protocol",
			Target:          "community_id",
		},
	}
}

func TestEnrich_Success(t *testing.T) {
	m := metrics.New()
	e := New(flatConfig(), zaptest.NewLogger(t), m)

	rec := model.Record{"dst_ip": "66.35.250.204", "src_ip": "128.232.110.120", "dst_port": 80, "src_port": 34855, "protocol": 6}
	res := e.Enrich(rec)

	require.True(t, res.OK())
	assert.Equal(t, "1:LQU9qZlK+B5F3KDmev6m5PMibrg=", rec["community_id"])
	assert.Equal(t, res.CommunityID, rec["community_id"])
	assert.Empty(t, rec.Tags())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues(metrics.OutcomeEnriched)))
}

func TestEnrich_ECSDefaults(t *testing.T) {
	e := New(config.Default().CommunityID, nil, nil)

	rec := model.Record{
		"source":      map[string]interface{}{"ip": "192.168.170.56", "port": "80"},
		"destination": map[string]interface{}{"ip": "192.168.170.8", "port": "7"},
		"network":     map[string]interface{}{"iana_number": "132", "transport": "sctp"},
	}
	res := e.Enrich(rec)

	require.True(t, res.OK())
	network := rec["network"].(map[string]interface{})
	assert.Equal(t, "1:jQgCxbku+pNGw8WPbEc/TS/uTpQ=", network["community_id"])
	assert.Equal(t, "sctp", network["transport"])
}

func TestEnrich_MissingFieldTags(t *testing.T) {
	m := metrics.New()
	e := New(flatConfig(), nil, m)

	rec := model.Record{"dst_ip": "8.8.8.8", "source_ip": "192.168.1.52", "dst_port": 53, "src_port": 54585, "protocol": 17}
	res := e.Enrich(rec)

	assert.False(t, res.OK())
	assert.Equal(t, "src_ip_not_found", res.Tag)
	assert.True(t, rec.HasTag("src_ip_not_found"))
	assert.NotContains(t, rec, "community_id")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FailuresTotal.WithLabelValues("missing_field")))
}

func TestEnrich_FailureTags(t *testing.T) {
	tests := []struct {
		name string
		rec  model.Record
		tag  string
	}{
		{
			name: "bad address",
			rec:  model.Record{"src_ip": "nope", "dst_ip": "8.8.8.8", "src_port": 1, "dst_port": 2, "protocol": 6},
			tag:  "src_ip_parse_failure",
		},
		{
			name: "bad port",
			rec:  model.Record{"src_ip": "1.1.1.1", "dst_ip": "8.8.8.8", "src_port": 1, "dst_port": "x", "protocol": 6},
			tag:  "dst_port_parse_failure",
		},
		{
			name: "family mismatch",
			rec:  model.Record{"src_ip": "1.1.1.1", "dst_ip": "::1", "src_port": 1, "dst_port": 2, "protocol": 6},
			tag:  TagFamilyMismatch,
		},
	}

	e := New(flatConfig(), nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Enrich(tt.rec)
			assert.Error(t, res.Err)
			assert.Equal(t, tt.tag, res.Tag)
			assert.Equal(t, []string{tt.tag}, tt.rec.Tags())
			assert.NotContains(t, tt.rec, "community_id")
		})
	}
}

func TestEnrich_TargetNotSet(t *testing.T) {
	cfg := flatConfig()
	cfg.Fields.Target = ""
	e := New(cfg, nil, nil)

	rec := model.Record{"tags": []interface{}{"ingest"}}
	res := e.Enrich(rec)

	assert.Equal(t, TagTargetNotSet, res.Tag)
	assert.Equal(t, []string{"ingest", TagTargetNotSet}, rec.Tags())
}

func TestEnrich_TargetConflict(t *testing.T) {
	cfg := flatConfig()
	cfg.Fields.Target = "[meta][community_id]"
	e := New(cfg, nil, nil)

	rec := model.Record{"src_ip": "1.1.1.1", "dst_ip": "8.8.8.8", "src_port": 1, "dst_port": 2, "protocol": 6, "meta": "flat"}
	res := e.Enrich(rec)

	assert.Equal(t, TagTargetConflict, res.Tag)
	assert.Error(t, res.Err)
}

func TestEnrich_Seed(t *testing.T) {
	cfg := flatConfig()
	cfg.Seed = 1
	seeded := New(cfg, nil, nil)
	plain := New(flatConfig(), nil, nil)

	a := model.Record{"src_ip": "1.1.1.1", "dst_ip": "8.8.8.8", "src_port": 1, "dst_port": 2, "protocol": 6}
	b := model.Record{"src_ip": "1.1.1.1", "dst_ip": "8.8.8.8", "src_port": 1, "dst_port": 2, "protocol": 6}
	seeded.Enrich(a)
	plain.Enrich(b)

	assert.NotEqual(t, a["community_id"], b["community_id"])
	assert.Equal(t, uint16(1), seeded.Hasher().Seed)
}
