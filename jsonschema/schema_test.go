package jsonschema_test

import (
	"testing"

	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/stretchr/testify/assert"
)

func TestSchema_Types(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want []jsonschema.SchemaType
	}{
		{name: "single type", in: decode(t, `{"type": "string"}`), want: []jsonschema.SchemaType{jsonschema.SchemaTypeString}},
		{name: "type list", in: decode(t, `{"type": ["string", "null"]}`), want: []jsonschema.SchemaType{jsonschema.SchemaTypeString, jsonschema.SchemaTypeNull}},
		{name: "no type", in: decode(t, `{"minLength": 1}`), want: nil},
		{name: "boolean schema", in: true, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, jsonschema.New(tt.in).Types())
		})
	}
}

func TestSchema_AllowsType(t *testing.T) {
	t.Parallel()

	noType := jsonschema.New(decode(t, `{"minLength": 1}`))
	assert.True(t, noType.AllowsType(jsonschema.SchemaTypeObject))

	number := jsonschema.New(decode(t, `{"type": "number"}`))
	assert.True(t, number.AllowsType(jsonschema.SchemaTypeInteger))
	assert.False(t, number.AllowsType(jsonschema.SchemaTypeString))
}

func TestSchema_SetOnBooleanSchema(t *testing.T) {
	t.Parallel()

	s := jsonschema.NewBool(false)
	s.Set("type", "string")

	assert.Equal(t, `{"not":{},"type":"string"}`, encode(t, s.Node()))

	u := jsonschema.NewBool(true)
	u.Set("minLength", 3)
	assert.Equal(t, `{"minLength":3}`, encode(t, u.Node()))
}

func TestSchema_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	original := jsonschema.New(decode(t, `{"type": "object", "required": ["id"]}`))
	clone := original.Clone()
	clone.Set("type", "array")
	clone.Delete("required")

	assert.Equal(t, `{"type":"object","required":["id"]}`, encode(t, original.Node()))
	assert.Equal(t, `{"type":"array"}`, encode(t, clone.Node()))
}
