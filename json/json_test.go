package json_test

import (
	"bytes"
	"testing"

	"github.com/apiprobe/apiprobe/json"
	"github.com/apiprobe/apiprobe/sequencedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNodeToAny_Success(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		yaml     string
		expected string
	}{
		{
			name:     "scalar types",
			yaml:     `{str: hello, int: 3, float: 1.5, bool: true, "null": null}`,
			expected: `{"str":"hello","int":3,"float":1.5,"bool":true,"null":null}`,
		},
		{
			name:     "nested structures preserve key order",
			yaml:     "z:\n  b: 1\n  a: 2\ny: [1, two, false]\n",
			expected: `{"z":{"b":1,"a":2},"y":[1,"two",false]}`,
		},
		{
			name:     "anchors and aliases",
			yaml:     "base: &b {id: 1}\ncopy: *b\n",
			expected: `{"base":{"id":1},"copy":{"id":1}}`,
		},
		{
			name:     "empty document",
			yaml:     "",
			expected: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var node yaml.Node
			require.NoError(t, yaml.Unmarshal([]byte(tt.yaml), &node))

			v, err := json.NodeToAny(&node)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, json.EncodeAny(v, 0, &buf))
			assert.Equal(t, tt.expected+"\n", buf.String())
		})
	}
}

func TestDecodeAny_JSONInput_Success(t *testing.T) {
	t.Parallel()

	v, err := json.DecodeAny([]byte(`{"id": "u1", "count": 2}`))
	require.NoError(t, err)

	m, ok := v.(*sequencedmap.Map[string, any])
	require.True(t, ok)
	assert.Equal(t, "u1", m.GetOrZero("id"))
	assert.Equal(t, 2, m.GetOrZero("count"))
}

func TestCloneAny_Success(t *testing.T) {
	t.Parallel()

	src := sequencedmap.New[string, any]()
	src.Set("list", []any{1, "two"})
	inner := sequencedmap.New[string, any]()
	inner.Set("k", "v")
	src.Set("obj", inner)

	clone := json.CloneAny(src).(*sequencedmap.Map[string, any])

	// Mutating the clone must not touch the source.
	clone.GetOrZero("obj").(*sequencedmap.Map[string, any]).Set("k", "changed")
	clone.GetOrZero("list").([]any)[0] = 99

	assert.Equal(t, "v", inner.GetOrZero("k"))
	assert.Equal(t, 1, src.GetOrZero("list").([]any)[0])
}

func TestCloneAny_NilValues_Success(t *testing.T) {
	t.Parallel()

	assert.Nil(t, json.CloneAny(nil))

	var m *sequencedmap.Map[string, any]
	assert.Equal(t, m, json.CloneAny(m))
}
