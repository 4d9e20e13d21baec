// Package jsonschema provides the portable constraint model the engine
// generates against: a thin wrapper over generic document trees with the
// keyword accessors, normalization and canonical checks the case builders and
// the mutation engine need.
package jsonschema

import (
	"iter"

	"github.com/apiprobe/apiprobe/json"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

// Schema wraps a JSON Schema fragment: either a boolean schema or a mapping
// tree (*sequencedmap.Map[string, any]). A nil node is equivalent to the true
// schema. The zero value is usable.
type Schema struct {
	node any
}

// New wraps the provided generic tree node as a schema.
func New(node any) Schema {
	return Schema{node: node}
}

// NewBool returns a boolean schema.
func NewBool(b bool) Schema {
	return Schema{node: b}
}

// NewMap returns a schema backed by the provided mapping.
func NewMap(m *sequencedmap.Map[string, any]) Schema {
	return Schema{node: m}
}

// Node returns the underlying generic tree node.
func (s Schema) Node() any {
	return s.node
}

// Bool returns the boolean value of the schema and whether it is a boolean schema.
func (s Schema) Bool() (bool, bool) {
	b, ok := s.node.(bool)
	return b, ok
}

// Map returns the underlying mapping, or nil for boolean and nil schemas.
func (s Schema) Map() *sequencedmap.Map[string, any] {
	m, _ := s.node.(*sequencedmap.Map[string, any])
	return m
}

// IsMap reports whether the schema is backed by a mapping.
func (s Schema) IsMap() bool {
	_, ok := s.node.(*sequencedmap.Map[string, any])
	return ok
}

// Clone deep copies the schema so the copy can be mutated independently.
func (s Schema) Clone() Schema {
	return Schema{node: json.CloneAny(s.node)}
}

// Get returns the value of a keyword. Always misses on non-mapping schemas.
func (s Schema) Get(keyword string) (any, bool) {
	return s.Map().Get(keyword)
}

// GetOrZero returns the value of a keyword or nil when absent.
func (s Schema) GetOrZero(keyword string) any {
	v, _ := s.Get(keyword)
	return v
}

// Has reports whether the schema declares the keyword.
func (s Schema) Has(keyword string) bool {
	return s.Map().Has(keyword)
}

// Len returns the number of keywords declared by the schema.
func (s Schema) Len() int {
	return s.Map().Len()
}

// Keywords iterates the schema's keywords in declaration order.
func (s Schema) Keywords() iter.Seq2[string, any] {
	return s.Map().All()
}

// Set sets a keyword, converting nil and boolean schemas to their mapping
// equivalent first ({} for true, {not: {}} for false).
func (s *Schema) Set(keyword string, value any) {
	m := s.Map()
	if m == nil {
		m = sequencedmap.New[string, any]()
		if b, ok := s.node.(bool); ok && !b {
			m.Set("not", sequencedmap.New[string, any]())
		}
		s.node = m
	}
	m.Set(keyword, value)
}

// Delete removes a keyword. No-op on non-mapping schemas.
func (s *Schema) Delete(keyword string) {
	s.Map().Delete(keyword)
}

// Types returns the types declared by the type keyword. Empty when the
// keyword is absent or malformed.
func (s Schema) Types() []SchemaType {
	v, ok := s.Get("type")
	if !ok {
		return nil
	}

	switch t := v.(type) {
	case string:
		return []SchemaType{SchemaType(t)}
	case []any:
		types := make([]SchemaType, 0, len(t))
		for _, e := range t {
			if ts, ok := e.(string); ok {
				types = append(types, SchemaType(ts))
			}
		}
		return types
	default:
		return nil
	}
}

// AllowsType reports whether instances of the given type can satisfy the
// schema's type keyword. A schema without a type keyword allows every type,
// and number allows integer instances.
func (s Schema) AllowsType(t SchemaType) bool {
	declared := s.Types()
	if len(declared) == 0 {
		return true
	}

	for _, d := range declared {
		if d == t || (d == SchemaTypeNumber && t == SchemaTypeInteger) {
			return true
		}
	}

	return false
}

// Properties returns the properties keyword as a mapping of property name to
// subschema node, or nil when absent.
func (s Schema) Properties() *sequencedmap.Map[string, any] {
	v, _ := s.Get("properties")
	m, _ := v.(*sequencedmap.Map[string, any])
	return m
}

// Required returns the names listed in the required keyword.
func (s Schema) Required() []string {
	v, ok := s.Get("required")
	if !ok {
		return nil
	}

	items, ok := v.([]any)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if name, ok := item.(string); ok {
			names = append(names, name)
		}
	}

	return names
}
