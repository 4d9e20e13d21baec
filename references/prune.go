package references

import (
	"slices"

	"github.com/apiprobe/apiprobe/sequencedmap"
)

// pruneOptionalRefs removes the optional reference-bearing parts of a schema
// subtree so the recursion-depth fallback terminates while the remainder
// stays generable:
//
//   - object properties not listed in required are dropped when their
//     subtree still carries a $ref
//   - items is dropped (and maxItems capped at 0) when minItems permits an
//     empty array and the items subtree carries a $ref
//   - a reference-bearing additionalProperties is narrowed to false
//   - single-branch allOf/anyOf/oneOf collapse into their only branch
//
// The heuristic set is best-effort completeness, not a strict contract.
func pruneOptionalRefs(v any) any {
	m, ok := v.(*sequencedmap.Map[string, any])
	if !ok {
		if s, ok := v.([]any); ok {
			for i, item := range s {
				s[i] = pruneOptionalRefs(item)
			}
		}
		return v
	}

	pruneProperties(m)
	pruneItems(m)

	if ap, ok := m.Get("additionalProperties"); ok && containsRef(ap) {
		m.Set("additionalProperties", false)
	}

	for key, value := range m.All() {
		m.Set(key, pruneOptionalRefs(value))
	}

	for _, combinator := range []string{"allOf", "anyOf", "oneOf"} {
		if branches, ok := m.GetOrZero(combinator).([]any); ok && len(branches) == 1 && m.Len() == 1 {
			return branches[0]
		}
	}

	return m
}

func pruneProperties(m *sequencedmap.Map[string, any]) {
	properties, ok := m.GetOrZero("properties").(*sequencedmap.Map[string, any])
	if !ok {
		return
	}

	required := []string{}
	if names, ok := m.GetOrZero("required").([]any); ok {
		for _, name := range names {
			if s, ok := name.(string); ok {
				required = append(required, s)
			}
		}
	}

	for name, schema := range properties.All() {
		if !slices.Contains(required, name) && containsRef(schema) {
			properties.Delete(name)
		}
	}
}

func pruneItems(m *sequencedmap.Map[string, any]) {
	items, ok := m.Get("items")
	if !ok || !containsRef(items) {
		return
	}

	minItems, _ := m.GetOrZero("minItems").(int)
	if minItems > 0 {
		return
	}

	m.Delete("items")
	m.Set("maxItems", 0)
}

// stripRemainingRefs collapses any $ref still present after pruning, i.e.
// required self-references, into the unconstrained schema.
func stripRemainingRefs(v any) any {
	switch t := v.(type) {
	case *sequencedmap.Map[string, any]:
		if t.Has("$ref") {
			return sequencedmap.New[string, any]()
		}

		for key, value := range t.All() {
			t.Set(key, stripRemainingRefs(value))
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = stripRemainingRefs(item)
		}
		return t
	default:
		return v
	}
}

func containsRef(v any) bool {
	switch t := v.(type) {
	case *sequencedmap.Map[string, any]:
		if t.Has("$ref") {
			return true
		}
		for value := range t.Values() {
			if containsRef(value) {
				return true
			}
		}
		return false
	case []any:
		for _, item := range t {
			if containsRef(item) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
