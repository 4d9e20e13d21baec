package jsonschema

import "strings"

// annotationKeywords carry no validation semantics and are ignored when
// deciding whether a schema actually constrains instances.
var annotationKeywords = map[string]struct{}{
	"title":         {},
	"description":   {},
	"default":       {},
	"example":       {},
	"examples":      {},
	"$comment":      {},
	"$schema":       {},
	"$id":           {},
	"deprecated":    {},
	"readOnly":      {},
	"writeOnly":     {},
	"externalDocs":  {},
	"xml":           {},
	"discriminator": {},
	"definitions":   {},
	"$defs":         {},
}

// IsAnnotationKeyword reports whether the keyword carries no validation
// semantics. Vendor extensions (x-*) are annotations.
func IsAnnotationKeyword(keyword string) bool {
	if _, ok := annotationKeywords[keyword]; ok {
		return true
	}
	return strings.HasPrefix(keyword, "x-")
}

// IsUnconstrained reports whether the schema is canonically equivalent to the
// true schema, accepting every instance.
func (s Schema) IsUnconstrained() bool {
	if s.node == nil {
		return true
	}

	if b, ok := s.Bool(); ok {
		return b
	}

	m := s.Map()
	if m == nil {
		return false
	}

	for keyword := range m.Keys() {
		if IsAnnotationKeyword(keyword) {
			continue
		}

		// A type keyword covering every JSON type constrains nothing.
		if keyword == "type" && len(ComplementTypes(s.Types())) == 0 {
			continue
		}

		return false
	}

	return true
}

// IsEmptyEquivalent reports whether the schema is canonically equivalent to
// the false schema, accepting no instance at all.
func (s Schema) IsEmptyEquivalent() bool {
	if b, ok := s.Bool(); ok {
		return !b
	}

	m := s.Map()
	if m == nil {
		return false
	}

	if v, ok := m.Get("enum"); ok {
		if items, ok := v.([]any); ok && len(items) == 0 {
			return true
		}
	}

	if v, ok := m.Get("not"); ok {
		return New(v).IsUnconstrained()
	}

	return false
}

// ConstraintKeywords returns the keywords that carry validation semantics, in
// declaration order.
func (s Schema) ConstraintKeywords() []string {
	var keywords []string
	for keyword := range s.Map().Keys() {
		if !IsAnnotationKeyword(keyword) {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}
