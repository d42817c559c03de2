package ndjson

import (
	"Go2FlowID/internal/model"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	input := strings.Join([]string{
		`{"src_ip":"10.0.0.1","src_port":443}`,
		``,
		`not json`,
		`[1,2,3]`,
		`null`,
		`{"src_ip":"10.0.0.2","nested":{"a":1}}`,
	}, "\n")

	var (
		records []model.Record
		errs    []error
	)
	err := Read(strings.NewReader(input), func(rec model.Record) error {
		records = append(records, rec)
		return nil
	}, func(err error) {
		errs = append(errs, err)
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, json.Number("443"), records[0]["src_port"])
	assert.Equal(t, "10.0.0.2", records[1]["src_ip"])

	require.Len(t, errs, 3)
	var lineErr *LineError
	require.ErrorAs(t, errs[0], &lineErr)
	assert.Equal(t, 3, lineErr.Line)
}

func TestRead_StopsOnCallbackError(t *testing.T) {
	calls := 0
	err := Read(strings.NewReader("{}\n{}\n{}"), func(model.Record) error {
		calls++
		if calls == 2 {
			return assert.AnError
		}
		return nil
	}, nil)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, calls)
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Emit(model.Record{"community_id": "1:a+b/c=", "port": json.Number("80")}))
	require.NoError(t, w.Emit(model.Record{"tags": []interface{}{"x<y"}}))
	assert.Zero(t, buf.Len(), "output is buffered until flush")
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"community_id":"1:a+b/c=","port":80}`, lines[0])
	assert.Equal(t, `{"tags":["x<y"]}`, lines[1])
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.ndjson")
	w, err := Create(path)
	require.NoError(t, err)

	require.NoError(t, w.Emit(model.Record{"a": 1}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(data))
}

func TestDecode(t *testing.T) {
	rec, err := Decode([]byte("{\"a\":1}  \r"))
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), rec["a"])

	for _, line := range []string{`{"a":1} junk`, `{}{}`, `{"a":1}}`, `{} 5`} {
		_, err := Decode([]byte(line))
		assert.Error(t, err, line)
	}
}

func TestRead_RejectsTrailingData(t *testing.T) {
	var (
		records []model.Record
		errs    []error
	)
	err := Read(strings.NewReader("{\"a\":1} junk\n{\"b\":2}\n"), func(rec model.Record) error {
		records = append(records, rec)
		return nil
	}, func(err error) {
		errs = append(errs, err)
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, json.Number("2"), records[0]["b"])

	require.Len(t, errs, 1)
	var lineErr *LineError
	require.ErrorAs(t, errs[0], &lineErr)
	assert.Equal(t, 1, lineErr.Line)
}
