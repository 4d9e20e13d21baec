package jsonschema

import (
	"github.com/apiprobe/apiprobe/json"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

// Normalize rewrites spec specific keywords in a fully resolved schema tree
// into portable JSON Schema form, bottom-up:
//
//   - nullable/x-nullable: true becomes a type union with "null"
//   - the legacy "file" type becomes a string with format binary
//   - draft-4 boolean exclusiveMinimum/exclusiveMaximum become the numeric
//     bound form
//
// The input tree is never mutated; the result is an independent copy.
func Normalize(v any) any {
	return normalizeNode(json.CloneAny(v))
}

// NormalizeSchema is Normalize over a wrapped schema.
func NormalizeSchema(s Schema) Schema {
	return New(Normalize(s.Node()))
}

func normalizeNode(v any) any {
	switch t := v.(type) {
	case *sequencedmap.Map[string, any]:
		for key, val := range t.All() {
			t.Set(key, normalizeNode(val))
		}
		normalizeMapping(t)
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeNode(val)
		}
		return t
	default:
		return v
	}
}

func normalizeMapping(m *sequencedmap.Map[string, any]) {
	normalizeNullable(m, "nullable")
	normalizeNullable(m, "x-nullable")
	normalizeFileType(m)
	normalizeExclusiveBound(m, "exclusiveMinimum", "minimum")
	normalizeExclusiveBound(m, "exclusiveMaximum", "maximum")
}

func normalizeNullable(m *sequencedmap.Map[string, any], marker string) {
	v, ok := m.Get(marker)
	if !ok {
		return
	}

	nullable, ok := v.(bool)
	if !ok {
		return
	}
	m.Delete(marker)

	if !nullable {
		return
	}

	switch t := m.GetOrZero("type").(type) {
	case string:
		m.Set("type", []any{t, "null"})
	case []any:
		for _, e := range t {
			if e == "null" {
				return
			}
		}
		m.Set("type", append(t, "null"))
	}
}

func normalizeFileType(m *sequencedmap.Map[string, any]) {
	if t, ok := m.GetOrZero("type").(string); !ok || t != "file" {
		return
	}

	m.Set("type", "string")
	m.Set("format", "binary")
}

// normalizeExclusiveBound rewrites the draft-4 boolean form, where the
// exclusive keyword qualifies the numeric bound keyword next to it.
func normalizeExclusiveBound(m *sequencedmap.Map[string, any], exclusive, bound string) {
	v, ok := m.Get(exclusive)
	if !ok {
		return
	}

	flag, ok := v.(bool)
	if !ok {
		// Already the numeric form.
		return
	}

	if !flag {
		m.Delete(exclusive)
		return
	}

	boundValue, ok := m.Get(bound)
	if !ok {
		m.Delete(exclusive)
		return
	}

	m.Set(exclusive, boundValue)
	m.Delete(bound)
}
