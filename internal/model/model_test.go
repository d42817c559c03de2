package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldRef(t *testing.T) {
	assert.Equal(t, []string{"source", "ip"}, ParseFieldRef("[source][ip]"))
	assert.Equal(t, []string{"source", "ip"}, ParseFieldRef("source.ip"))
	assert.Equal(t, []string{"src_ip"}, ParseFieldRef("src_ip"))
	assert.Equal(t, []string{"src_ip"}, ParseFieldRef("[src_ip]"))
}

func TestRecord_Get(t *testing.T) {
	rec := Record{
		"source":       map[string]interface{}{"ip": "10.0.0.1", "port": 443.0},
		"network.iana": 6,
		"empty":        nil,
	}

	v, ok := rec.Get("[source][ip]")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.1", v)

	v, ok = rec.Get("source.port")
	assert.True(t, ok)
	assert.Equal(t, 443.0, v)

	v, ok = rec.Get("network.iana")
	assert.True(t, ok, "literal dotted keys are found")
	assert.Equal(t, 6, v)

	_, ok = rec.Get("empty")
	assert.False(t, ok, "null is absent")

	_, ok = rec.Get("[source][ip][deeper]")
	assert.False(t, ok)

	_, ok = rec.Get("[destination][ip]")
	assert.False(t, ok)
}

func TestRecord_Set(t *testing.T) {
	rec := Record{"network": map[string]interface{}{"transport": "tcp"}}

	require.NoError(t, rec.Set("[network][community_id]", "1:abc"))
	require.NoError(t, rec.Set("flow.id", "x"))
	require.NoError(t, rec.Set("top", 1))

	net := rec["network"].(map[string]interface{})
	assert.Equal(t, "1:abc", net["community_id"])
	assert.Equal(t, "tcp", net["transport"])
	assert.Equal(t, "x", rec["flow"].(map[string]interface{})["id"])
	assert.Equal(t, 1, rec["top"])

	err := rec.Set("[top][child]", 2)
	assert.ErrorContains(t, err, "not an object")
}

func TestRecord_Tags(t *testing.T) {
	rec := Record{}
	assert.Empty(t, rec.Tags())

	rec.Tag("a")
	rec.Tag("b")
	rec.Tag("a")
	assert.Equal(t, []string{"a", "b"}, rec.Tags())
	assert.True(t, rec.HasTag("b"))
	assert.False(t, rec.HasTag("c"))

	decoded := Record{"tags": []interface{}{"existing", 5}}
	decoded.Tag("new")
	assert.Equal(t, []string{"existing", "new"}, decoded.Tags())
	assert.Equal(t, []interface{}{"existing", 5, "new"}, decoded["tags"])

	typed := Record{"tags": []string{"x"}}
	typed.Tag("y")
	assert.Equal(t, []interface{}{"x", "y"}, typed["tags"])

	scalar := Record{"tags": 7}
	scalar.Tag("z")
	assert.Equal(t, []interface{}{7, "z"}, scalar["tags"])

	single := Record{"tags": "only"}
	single.Tag("more")
	assert.Equal(t, []string{"only", "more"}, single.Tags())
}
