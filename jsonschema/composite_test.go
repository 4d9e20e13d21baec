package jsonschema_test

import (
	"testing"

	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposite_Schema_Success(t *testing.T) {
	t.Parallel()

	c := jsonschema.NewComposite()
	c.AddProperty("id", decode(t, `{"type": "integer"}`), true)
	c.AddProperty("name", decode(t, `{"type": "string"}`), false)

	s := c.Schema()

	assert.Equal(t, `{"type":"object","properties":{"id":{"type":"integer"},"name":{"type":"string"}},"required":["id"],"additionalProperties":false}`, encode(t, s.Node()))
}

func TestComposite_RequiredOnlyNamesProperties(t *testing.T) {
	t.Parallel()

	c := jsonschema.NewComposite()
	c.AddProperty("a", decode(t, `{"type": "string"}`), true)
	c.AddProperty("a", decode(t, `{"type": "integer"}`), false)

	s := c.Schema()
	props := s.Properties()

	for _, name := range s.Required() {
		assert.True(t, props.Has(name))
	}
	assert.Equal(t, []string{"a"}, s.Required())
	assert.Equal(t, `{"type":"integer"}`, encode(t, props.GetOrZero("a")))
}

func TestComposite_Empty_OmitsRequired(t *testing.T) {
	t.Parallel()

	s := jsonschema.NewComposite().Schema()

	require.False(t, s.Has("required"))
	assert.Equal(t, `{"type":"object","properties":{},"additionalProperties":false}`, encode(t, s.Node()))
}
