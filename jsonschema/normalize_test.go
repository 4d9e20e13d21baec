package jsonschema_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apiprobe/apiprobe/json"
	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, doc string) any {
	t.Helper()

	v, err := json.DecodeAny([]byte(doc))
	require.NoError(t, err)
	return v
}

func encode(t *testing.T, v any) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.EncodeAny(v, 0, &buf))
	return strings.TrimSpace(buf.String())
}

func TestNormalize_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "nullable true becomes type union",
			in:   `{"type": "string", "nullable": true}`,
			want: `{"type":["string","null"]}`,
		},
		{
			name: "x-nullable true becomes type union",
			in:   `{"type": "integer", "x-nullable": true}`,
			want: `{"type":["integer","null"]}`,
		},
		{
			name: "nullable false is dropped",
			in:   `{"type": "string", "nullable": false}`,
			want: `{"type":"string"}`,
		},
		{
			name: "nullable with type list appends null once",
			in:   `{"type": ["string", "null"], "nullable": true}`,
			want: `{"type":["string","null"]}`,
		},
		{
			name: "file type becomes binary string",
			in:   `{"type": "file"}`,
			want: `{"type":"string","format":"binary"}`,
		},
		{
			name: "boolean exclusiveMinimum becomes numeric bound",
			in:   `{"type": "number", "minimum": 5, "exclusiveMinimum": true}`,
			want: `{"type":"number","exclusiveMinimum":5}`,
		},
		{
			name: "boolean exclusiveMaximum false is dropped",
			in:   `{"type": "number", "maximum": 10, "exclusiveMaximum": false}`,
			want: `{"type":"number","maximum":10}`,
		},
		{
			name: "numeric exclusive bounds pass through",
			in:   `{"type": "number", "exclusiveMinimum": 3}`,
			want: `{"type":"number","exclusiveMinimum":3}`,
		},
		{
			name: "applied bottom-up through properties and items",
			in:   `{"type": "object", "properties": {"tag": {"type": "array", "items": {"type": "string", "nullable": true}}}}`,
			want: `{"type":"object","properties":{"tag":{"type":"array","items":{"type":["string","null"]}}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := jsonschema.Normalize(decode(t, tt.in))
			require.Equal(t, tt.want, encode(t, got))
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := decode(t, `{"type": "string", "nullable": true}`)
	before := encode(t, in)

	_ = jsonschema.Normalize(in)

	require.Equal(t, before, encode(t, in))
}
