package openapi

import (
	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

// Location identifies where a generated value is placed in a request.
type Location string

const (
	// LocationPath places values into path templates.
	LocationPath Location = "path"
	// LocationQuery places values into the query string.
	LocationQuery Location = "query"
	// LocationHeader places values into request headers.
	LocationHeader Location = "header"
	// LocationCookie places values into the cookie header.
	LocationCookie Location = "cookie"
	// LocationBody places values into the request body.
	LocationBody Location = "body"
)

// ParameterLocations returns the non-body locations in a stable order.
func ParameterLocations() []Location {
	return []Location{LocationPath, LocationQuery, LocationHeader, LocationCookie}
}

// Parameter is one declared parameter: its normalized constraint subtree plus
// the descriptor a collaborator needs to serialize its value onto the wire.
type Parameter struct {
	Name     string
	Location Location
	Required bool
	Schema   any
	Style    StyleDescriptor
}

// ParameterSet groups the parameters declared for one location.
type ParameterSet struct {
	Location   Location
	Parameters []*Parameter
}

// Composite aggregates the set into the single object schema generation runs
// against: the union of parameter names mapped to their constraints, with
// required containing exactly the names marked required.
func (ps *ParameterSet) Composite() jsonschema.Schema {
	c := jsonschema.NewComposite()
	for _, p := range ps.Parameters {
		c.AddProperty(p.Name, p.Schema, p.Required)
	}
	return c.Schema()
}

// Find returns the named parameter, or nil.
func (ps *ParameterSet) Find(name string) *Parameter {
	if ps == nil {
		return nil
	}
	for _, p := range ps.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// BodyVariant is one declared request body alternative. Each media type is an
// independent generation target; one is chosen at case-build time.
type BodyVariant struct {
	MediaType string
	Required  bool
	Schema    any
}

// buildParameter converts a resolved, raw parameter mapping into a Parameter.
// Returns nil for mappings that do not declare a usable name/location pair.
func (d *Document) buildParameter(raw *sequencedmap.Map[string, any]) *Parameter {
	name, _ := raw.GetOrZero("name").(string)
	in, _ := raw.GetOrZero("in").(string)
	if name == "" || in == "" || in == "body" || in == "formData" {
		return nil
	}

	location := Location(in)
	required, _ := raw.GetOrZero("required").(bool)
	if location == LocationPath {
		// Path parameters are always required regardless of declaration.
		required = true
	}

	var schema any
	if s, ok := raw.Get("schema"); ok {
		schema = jsonschema.Normalize(s)
	} else {
		// Swagger 2 declares non-body constraints directly on the parameter
		// object.
		schema = jsonschema.Normalize(swaggerParameterSchema(raw))
	}

	return &Parameter{
		Name:     name,
		Location: location,
		Required: required,
		Schema:   schema,
		Style:    d.styleFor(raw, location, schema),
	}
}

// swaggerParameterKeywords are the schema keywords Swagger 2 places directly
// on the parameter object.
var swaggerParameterKeywords = []string{
	"type", "format", "items", "maximum", "exclusiveMaximum", "minimum",
	"exclusiveMinimum", "maxLength", "minLength", "pattern", "maxItems",
	"minItems", "uniqueItems", "enum", "multipleOf", "default",
}

func swaggerParameterSchema(raw *sequencedmap.Map[string, any]) *sequencedmap.Map[string, any] {
	schema := sequencedmap.New[string, any]()
	for _, keyword := range swaggerParameterKeywords {
		if v, ok := raw.Get(keyword); ok {
			schema.Set(keyword, v)
		}
	}
	return schema
}

func (d *Document) styleFor(raw *sequencedmap.Map[string, any], location Location, schema any) StyleDescriptor {
	style, explode := defaultStyle(location)

	if d.version == VersionSwagger2 {
		if format, ok := raw.GetOrZero("collectionFormat").(string); ok {
			style, explode = styleFromCollectionFormat(format, location)
		}
	} else {
		if s, ok := raw.GetOrZero("style").(string); ok {
			style = SerializationStyle(s)
			// Explode defaults to true exactly for form style.
			explode = style == SerializationStyleForm
		}
		if e, ok := raw.GetOrZero("explode").(bool); ok {
			explode = e
		}
	}

	return StyleDescriptor{
		Style:     style,
		Explode:   explode,
		Container: containerKindOf(schema),
	}
}

func containerKindOf(schema any) ContainerKind {
	types := jsonschema.New(schema).Types()
	for _, t := range types {
		switch t {
		case jsonschema.SchemaTypeArray:
			return ContainerKindArray
		case jsonschema.SchemaTypeObject:
			return ContainerKindObject
		}
	}
	return ContainerKindPrimitive
}
