package jsonschema_test

import (
	"testing"

	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate_Success(t *testing.T) {
	t.Parallel()

	v, err := jsonschema.Compile(jsonschema.New(decode(t, `{"type": "object", "properties": {"id": {"type": "integer"}}, "required": ["id"]}`)))
	require.NoError(t, err)

	assert.NoError(t, v.Validate(map[string]any{"id": 1}))
	assert.True(t, v.IsValid(map[string]any{"id": 42}))
}

func TestValidator_Validate_Failure(t *testing.T) {
	t.Parallel()

	v, err := jsonschema.Compile(jsonschema.New(decode(t, `{"type": "object", "properties": {"id": {"type": "integer"}}, "required": ["id"]}`)))
	require.NoError(t, err)

	err = v.Validate(map[string]any{"id": "abc"})
	require.Error(t, err)
	assert.ErrorIs(t, err, jsonschema.ErrNotValid)

	assert.False(t, v.IsValid(map[string]any{}))
}

func TestValidator_Validate_GenericTreeInstance(t *testing.T) {
	t.Parallel()

	v, err := jsonschema.Compile(jsonschema.New(decode(t, `{"type": "object", "required": ["name"]}`)))
	require.NoError(t, err)

	// Instances decoded from response bodies arrive as sequenced-map trees.
	assert.True(t, v.IsValid(decode(t, `{"name": "drew"}`)))
	assert.False(t, v.IsValid(decode(t, `{"other": 1}`)))
}

func TestMustCompile(t *testing.T) {
	t.Parallel()

	v := jsonschema.MustCompile(jsonschema.New(decode(t, `{"type": "string"}`)))
	assert.True(t, v.IsValid("ok"))

	assert.Panics(t, func() {
		jsonschema.MustCompile(jsonschema.New(decode(t, `{"type": "no-such-type"}`)))
	})
}

func TestCompile_BooleanSchemas(t *testing.T) {
	t.Parallel()

	vTrue, err := jsonschema.Compile(jsonschema.NewBool(true))
	require.NoError(t, err)
	assert.True(t, vTrue.IsValid("anything"))

	vFalse, err := jsonschema.Compile(jsonschema.NewBool(false))
	require.NoError(t, err)
	assert.False(t, vFalse.IsValid("anything"))
}
