package jsonschema

import (
	"slices"

	"github.com/apiprobe/apiprobe/sequencedmap"
)

// Composite accumulates same-location parameters into the single object
// schema generation actually runs against. By construction the required list
// only ever names keys present in properties.
type Composite struct {
	properties *sequencedmap.Map[string, any]
	required   []string
}

// NewComposite creates an empty composite schema builder.
func NewComposite() *Composite {
	return &Composite{
		properties: sequencedmap.New[string, any](),
	}
}

// AddProperty adds a named subschema to the composite. Re-adding a name
// replaces its subschema and keeps the stronger required flag.
func (c *Composite) AddProperty(name string, schema any, required bool) {
	c.properties.Set(name, schema)

	if required && !slices.Contains(c.required, name) {
		c.required = append(c.required, name)
	}
}

// Len returns the number of properties added so far.
func (c *Composite) Len() int {
	return c.properties.Len()
}

// Required returns the names marked required so far.
func (c *Composite) Required() []string {
	return slices.Clone(c.required)
}

// Schema builds the composite object schema:
// {type: object, properties, required, additionalProperties: false}.
func (c *Composite) Schema() Schema {
	m := sequencedmap.New[string, any]()
	m.Set("type", "object")
	m.Set("properties", c.properties)

	if len(c.required) > 0 {
		required := make([]any, len(c.required))
		for i, name := range c.required {
			required[i] = name
		}
		m.Set("required", required)
	}

	m.Set("additionalProperties", false)

	return NewMap(m)
}
