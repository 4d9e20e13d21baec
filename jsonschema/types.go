package jsonschema

// SchemaType represents a JSON type name usable in the type keyword.
type SchemaType string

const (
	// SchemaTypeString represents the string type.
	SchemaTypeString SchemaType = "string"
	// SchemaTypeNumber represents the number type.
	SchemaTypeNumber SchemaType = "number"
	// SchemaTypeInteger represents the integer type.
	SchemaTypeInteger SchemaType = "integer"
	// SchemaTypeBoolean represents the boolean type.
	SchemaTypeBoolean SchemaType = "boolean"
	// SchemaTypeObject represents the object type.
	SchemaTypeObject SchemaType = "object"
	// SchemaTypeArray represents the array type.
	SchemaTypeArray SchemaType = "array"
	// SchemaTypeNull represents the null type.
	SchemaTypeNull SchemaType = "null"
)

// AllTypes returns every JSON type name, in a stable order.
func AllTypes() []SchemaType {
	return []SchemaType{
		SchemaTypeString,
		SchemaTypeNumber,
		SchemaTypeInteger,
		SchemaTypeBoolean,
		SchemaTypeObject,
		SchemaTypeArray,
		SchemaTypeNull,
	}
}

// ComplementTypes returns the JSON types an instance may take without ever
// satisfying a schema declaring the provided types. Integer is a subset of
// number, so declaring either excludes both from the complement: a generated
// 2 or 2.0 can silently satisfy the other.
func ComplementTypes(declared []SchemaType) []SchemaType {
	excluded := make(map[SchemaType]bool, len(declared)+2)
	for _, t := range declared {
		excluded[t] = true
		if t == SchemaTypeNumber || t == SchemaTypeInteger {
			excluded[SchemaTypeNumber] = true
			excluded[SchemaTypeInteger] = true
		}
	}

	complement := []SchemaType{}
	for _, t := range AllTypes() {
		if !excluded[t] {
			complement = append(complement, t)
		}
	}

	return complement
}
