// Package mutation implements the negative-testing core: structural schema
// mutations selected so instances generated from the mutated schema are
// expected to violate the original, while as much of the original structure
// as possible stays intact.
package mutation

import (
	"math/rand/v2"

	"github.com/apiprobe/apiprobe/jsonschema"
)

// Mutation identifies one entry of the closed mutation catalog.
type Mutation string

const (
	// MutationChangeProperties recursively mutates one property's subschema,
	// optionally perturbing siblings too.
	MutationChangeProperties Mutation = "change_properties"
	// MutationNegateConstraints moves every keyword except type under a not,
	// forcing disagreement while preserving the declared type.
	MutationNegateConstraints Mutation = "negate_constraints"
	// MutationRemoveRequiredProperty drops one name from required and from
	// properties, so it can legally be absent or differently shaped.
	MutationRemoveRequiredProperty Mutation = "remove_required_property"
	// MutationChangeSchemaType replaces type with one drawn from the
	// complement of the currently allowed types.
	MutationChangeSchemaType Mutation = "change_schema_type"
	// MutationNegateSchema wraps the whole schema in not. Weakest and most
	// disruptive, tried last.
	MutationNegateSchema Mutation = "negate_schema"
)

// Catalog returns the mutation catalog for the schema's shape, in priority
// order.
func Catalog(s jsonschema.Schema) []Mutation {
	if isObjectSchema(s) {
		return []Mutation{
			MutationChangeProperties,
			MutationNegateConstraints,
			MutationRemoveRequiredProperty,
			MutationChangeSchemaType,
			MutationNegateSchema,
		}
	}

	return []Mutation{
		MutationNegateConstraints,
		MutationChangeSchemaType,
		MutationNegateSchema,
	}
}

func isObjectSchema(s jsonschema.Schema) bool {
	for _, t := range s.Types() {
		if t == jsonschema.SchemaTypeObject {
			return true
		}
	}

	return len(s.Types()) == 0 && (s.Has("properties") || s.Has("required"))
}

// Apply tries the catalog in order against the context's owned schema copy,
// applies the first mutation that succeeds and reports which. ok is false
// when the schema is not mutable at all, i.e. it is canonically equivalent to
// accept-anything or no catalog entry applies.
func Apply(c *Context) (Mutation, bool) {
	return mutate(c.rng, &c.Schema)
}

func mutate(rng *rand.Rand, s *jsonschema.Schema) (Mutation, bool) {
	if s.IsUnconstrained() {
		return "", false
	}

	for _, m := range Catalog(*s) {
		if applyMutation(m, rng, s) {
			return m, true
		}
	}

	return "", false
}

// applyMutation dispatches the closed catalog through a single switch,
// preserving the fixed ordering semantics of Catalog.
func applyMutation(m Mutation, rng *rand.Rand, s *jsonschema.Schema) bool {
	switch m {
	case MutationChangeProperties:
		return changeProperties(rng, s)
	case MutationNegateConstraints:
		return negateConstraints(s)
	case MutationRemoveRequiredProperty:
		return removeRequiredProperty(rng, s)
	case MutationChangeSchemaType:
		return changeSchemaType(rng, s)
	case MutationNegateSchema:
		return negateSchema(s)
	default:
		return false
	}
}
