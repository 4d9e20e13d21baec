package mutation

import (
	"math/rand/v2"
	"slices"

	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

// changeProperties mutates exactly one property's subschema through the same
// catalog, then perturbs a random subset of sibling properties so mutation
// intensity varies across samples. The mutated property is promoted to
// required so generated instances actually carry the violating value.
func changeProperties(rng *rand.Rand, s *jsonschema.Schema) bool {
	properties := s.Properties()
	if properties.Len() == 0 {
		return false
	}

	names := slices.Collect(properties.Keys())
	rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})

	mutated := ""
	for _, name := range names {
		if mutateProperty(rng, properties, name) {
			mutated = name
			break
		}
	}

	if mutated == "" {
		return false
	}

	for _, name := range names {
		if name != mutated && rng.IntN(2) == 0 {
			mutateProperty(rng, properties, name)
		}
	}

	requireProperty(s, mutated)

	return true
}

func mutateProperty(rng *rand.Rand, properties *sequencedmap.Map[string, any], name string) bool {
	property := jsonschema.New(properties.GetOrZero(name))
	if _, ok := mutate(rng, &property); !ok {
		return false
	}

	properties.Set(name, property.Node())
	return true
}

func requireProperty(s *jsonschema.Schema, name string) {
	required := s.Required()
	if slices.Contains(required, name) {
		return
	}

	values := make([]any, 0, len(required)+1)
	for _, r := range required {
		values = append(values, r)
	}
	s.Set("required", append(values, name))
}

// negateConstraints moves every constraint keyword except type under a not.
// Fails when type is the only constraint present.
func negateConstraints(s *jsonschema.Schema) bool {
	var negatable []string
	for _, keyword := range s.ConstraintKeywords() {
		if keyword != "type" {
			negatable = append(negatable, keyword)
		}
	}

	if len(negatable) == 0 {
		return false
	}

	negated := sequencedmap.NewWithCapacity[string, any](len(negatable))
	for _, keyword := range negatable {
		negated.Set(keyword, s.GetOrZero(keyword))
		s.Delete(keyword)
	}

	s.Set("not", negated)

	return true
}

// removeRequiredProperty drops one name from required and removes it from
// properties, so the instance can legally omit it or reshape it.
func removeRequiredProperty(rng *rand.Rand, s *jsonschema.Schema) bool {
	required := s.Required()
	if len(required) == 0 {
		return false
	}

	victim := required[rng.IntN(len(required))]

	remaining := make([]any, 0, len(required)-1)
	for _, name := range required {
		if name != victim {
			remaining = append(remaining, name)
		}
	}

	if len(remaining) == 0 {
		s.Delete("required")
	} else {
		s.Set("required", remaining)
	}

	s.Properties().Delete(victim)

	return true
}

// changeSchemaType replaces type with one the original never allows. Fails
// when the schema declares no type, or already accepts every JSON type.
func changeSchemaType(rng *rand.Rand, s *jsonschema.Schema) bool {
	declared := s.Types()
	if len(declared) == 0 {
		return false
	}

	complement := jsonschema.ComplementTypes(declared)
	if len(complement) == 0 {
		return false
	}

	s.Set("type", string(complement[rng.IntN(len(complement))]))

	return true
}

// negateSchema wraps the entire schema in not. Fails only when the schema is
// canonically empty-equivalent, whose negation accepts everything and so
// could never produce a guaranteed-invalid instance in context.
func negateSchema(s *jsonschema.Schema) bool {
	if s.IsEmptyEquivalent() {
		return false
	}

	keywords := s.ConstraintKeywords()
	if len(keywords) == 0 {
		return false
	}

	negated := sequencedmap.NewWithCapacity[string, any](len(keywords))
	for _, keyword := range keywords {
		negated.Set(keyword, s.GetOrZero(keyword))
		s.Delete(keyword)
	}

	s.Set("not", negated)

	return true
}
