package probe

import (
	"Go2FlowID/internal/model"
	"Go2FlowID/internal/ndjson"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Codec converts records to and from NATS message payloads.
type Codec interface {
	Name() string
	Encode(rec model.Record) ([]byte, error)
	Decode(data []byte) (model.Record, error)
}

// NewCodec returns the codec registered under name ("json" or "protobuf").
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "protobuf":
		return ProtobufCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec: '%s'", name)
	}
}

// JSONCodec carries records as JSON objects.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(rec model.Record) ([]byte, error) {
	return json.Marshal(rec)
}

func (JSONCodec) Decode(data []byte) (model.Record, error) {
	return ndjson.Decode(data)
}

// ProtobufCodec carries records as serialized google.protobuf.Struct messages.
// Numbers come back as float64.
type ProtobufCodec struct{}

func (ProtobufCodec) Name() string { return "protobuf" }

func (ProtobufCodec) Encode(rec model.Record) ([]byte, error) {
	pbRecord, err := structpb.NewStruct(normalize(rec).(map[string]interface{}))
	if err != nil {
		return nil, fmt.Errorf("failed to convert record to protobuf: %w", err)
	}
	return proto.Marshal(pbRecord)
}

func (ProtobufCodec) Decode(data []byte) (model.Record, error) {
	var pbRecord structpb.Struct
	if err := proto.Unmarshal(data, &pbRecord); err != nil {
		return nil, fmt.Errorf("failed to unmarshal protobuf record: %w", err)
	}
	return model.Record(pbRecord.AsMap()), nil
}

// normalize rewrites the container types structpb does not accept.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case model.Record:
		return normalize(map[string]interface{}(x))
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []string:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = val
		}
		return out
	default:
		return v
	}
}
