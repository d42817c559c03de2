package protocol

import (
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/model"
	"Go2FlowID/pkg/communityid"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
)

// ParseTuple extracts the 5-tuple named by fields from rec. Every required
// field is checked for presence, in order, before any value is parsed, so a
// record missing several fields reports the first one.
func ParseTuple(rec model.Record, fields config.FieldSet) (communityid.Tuple, error) {
	refs := fields.Required()
	values := make([]interface{}, len(refs))
	for i, ref := range refs {
		v, ok := rec.Get(ref)
		if !ok {
			return communityid.Tuple{}, communityid.MissingField(ref)
		}
		values[i] = v
	}

	var (
		t   communityid.Tuple
		err error
	)
	if t.SrcIP, err = parseIP(fields.SourceIP, values[0]); err != nil {
		return communityid.Tuple{}, err
	}
	if t.SrcPort, err = ParsePort(fields.SourcePort, values[1]); err != nil {
		return communityid.Tuple{}, err
	}
	if t.DstIP, err = parseIP(fields.DestinationIP, values[2]); err != nil {
		return communityid.Tuple{}, err
	}
	if t.DstPort, err = ParsePort(fields.DestinationPort, values[3]); err != nil {
		return communityid.Tuple{}, err
	}
	if t.Proto, err = ParseProtocol(fields.Protocol, values[4]); err != nil {
		return communityid.Tuple{}, err
	}
	return t, nil
}

// ParsePort coerces v to a 16-bit port number.
func ParsePort(field string, v interface{}) (uint16, error) {
	n, err := toUint(field, v, math.MaxUint16)
	return uint16(n), err
}

// ParseProtocol coerces v to an 8-bit IANA protocol number.
func ParseProtocol(field string, v interface{}) (uint8, error) {
	n, err := toUint(field, v, math.MaxUint8)
	return uint8(n), err
}

func parseIP(field string, v interface{}) (netip.Addr, error) {
	s, ok := v.(string)
	if !ok {
		return netip.Addr{}, communityid.NewError(communityid.KindUnparseableAddress, field, fmt.Sprint(v), nil)
	}
	return communityid.ParseAddr(field, strings.TrimSpace(s))
}

// toUint accepts Go integers, integral floats (JSON numbers), json.Number and
// decimal strings, and rejects anything outside [0, max].
func toUint(field string, v interface{}, max uint64) (uint64, error) {
	var (
		n   int64
		raw = fmt.Sprint(v)
	)
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		n = int64(x)
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	case uint64:
		if x > max {
			return 0, outOfRange(field, raw)
		}
		return x, nil
	case float32:
		return floatToUint(field, float64(x), max)
	case float64:
		return floatToUint(field, x, max)
	case json.Number:
		return numberToUint(field, x, max)
	case string:
		return stringToUint(field, x, max)
	default:
		return 0, communityid.NewError(communityid.KindUnparseableNumber, field, raw, fmt.Errorf("unsupported type %T", v))
	}
	if n < 0 || uint64(n) > max {
		return 0, outOfRange(field, raw)
	}
	return uint64(n), nil
}

func floatToUint(field string, f float64, max uint64) (uint64, error) {
	raw := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, communityid.NewError(communityid.KindUnparseableNumber, field, raw, nil)
	}
	if f < 0 || f > float64(max) {
		return 0, outOfRange(field, raw)
	}
	return uint64(f), nil
}

// numberToUint accepts whole numbers written with a fraction or exponent
// ("53.0", "5.3e1") the same way they are accepted as float64.
func numberToUint(field string, x json.Number, max uint64) (uint64, error) {
	if _, err := x.Int64(); err == nil {
		return stringToUint(field, x.String(), max)
	}
	f, err := x.Float64()
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, outOfRange(field, x.String())
		}
		return 0, communityid.NewError(communityid.KindUnparseableNumber, field, x.String(), nil)
	}
	return floatToUint(field, f, max)
}

func stringToUint(field, s string, max uint64) (uint64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, outOfRange(field, s)
		}
		return 0, communityid.NewError(communityid.KindUnparseableNumber, field, s, nil)
	}
	if n < 0 || uint64(n) > max {
		return 0, outOfRange(field, s)
	}
	return uint64(n), nil
}

func outOfRange(field, raw string) error {
	return communityid.NewError(communityid.KindOutOfRange, field, raw, nil)
}
