package probe

import (
	"Go2FlowID/internal/metrics"
	"Go2FlowID/internal/model"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sampleRecord() model.Record {
	return model.Record{
		"source":  map[string]interface{}{"ip": "10.0.0.1", "port": json.Number("443")},
		"network": map[string]interface{}{"iana_number": 6, "community_id": "1:abc="},
		"tags":    []string{"a", "b"},
		"ok":      true,
	}
}

func TestNewCodec(t *testing.T) {
	c, err := NewCodec("")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Name())

	c, err = NewCodec("protobuf")
	require.NoError(t, err)
	assert.Equal(t, "protobuf", c.Name())

	_, err = NewCodec("avro")
	assert.ErrorContains(t, err, "unknown codec")
}

func TestJSONCodec(t *testing.T) {
	data, err := JSONCodec{}.Encode(sampleRecord())
	require.NoError(t, err)

	rec, err := JSONCodec{}.Decode(data)
	require.NoError(t, err)
	v, ok := rec.Get("[source][port]")
	require.True(t, ok)
	assert.Equal(t, json.Number("443"), v)
	assert.Equal(t, []string{"a", "b"}, rec.Tags())
}

func TestProtobufCodec(t *testing.T) {
	data, err := ProtobufCodec{}.Encode(sampleRecord())
	require.NoError(t, err)

	rec, err := ProtobufCodec{}.Decode(data)
	require.NoError(t, err)

	v, ok := rec.Get("[source][port]")
	require.True(t, ok)
	assert.Equal(t, 443.0, v)
	v, _ = rec.Get("[network][community_id]")
	assert.Equal(t, "1:abc=", v)
	assert.Equal(t, []string{"a", "b"}, rec.Tags())
	assert.Equal(t, true, rec["ok"])

	_, err = ProtobufCodec{}.Decode([]byte{0xff, 0xff})
	assert.Error(t, err)
}

func TestSubscriber_Handle(t *testing.T) {
	m := metrics.New()
	s := &Subscriber{codec: JSONCodec{}, logger: zaptest.NewLogger(t), metrics: m}

	var got []model.Record
	handler := func(rec model.Record) { got = append(got, rec) }

	s.handle(&nats.Msg{Data: []byte(`{"src_ip":"10.0.0.1"}`)}, handler)
	s.handle(&nats.Msg{Data: []byte(`garbage`)}, handler)

	require.Len(t, got, 1)
	assert.Equal(t, "10.0.0.1", got[0]["src_ip"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrors))
}
