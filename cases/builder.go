package cases

import (
	"context"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/hashing"
	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/mutation"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

const (
	// ErrGeneration is returned when the generation capability could not
	// produce a value for a location.
	ErrGeneration = errors.Error("failed to generate a value for the case")
)

const defaultNegativeAttempts = 10

// Builder generates request cases for operations. Safe for concurrent use
// given distinct rng instances per call.
type Builder struct {
	generator        jsonschema.Generator
	negativeAttempts int
	validators       *ValidatorCache
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithNegativeAttempts overrides how many instances are drawn from a mutated
// schema before the location falls back to positive generation.
func WithNegativeAttempts(n int) BuilderOption {
	return func(b *Builder) {
		b.negativeAttempts = n
	}
}

// NewBuilder creates a builder around the given generation capability.
func NewBuilder(generator jsonschema.Generator, opts ...BuilderOption) *Builder {
	b := &Builder{
		generator:        generator,
		negativeAttempts: defaultNegativeAttempts,
		validators:       NewValidatorCache(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Validators exposes the builder's compiled-validator cache.
func (b *Builder) Validators() *ValidatorCache {
	return b.validators
}

// Positive builds a case whose every value satisfies the operation's schemas.
func (b *Builder) Positive(ctx context.Context, op *openapi.Operation, rng *rand.Rand) Outcome {
	c := newCase(op, ModePositive)

	for _, location := range openapi.ParameterLocations() {
		ps := op.ParameterSetFor(location)
		if ps == nil || len(ps.Parameters) == 0 {
			continue
		}

		values, err := b.generateLocation(ctx, ps, ps.Composite(), location, rng)
		if err != nil {
			return ErrorOutcome(ErrGeneration.Wrap(err))
		}
		c.Values.Set(location, values)
	}

	variant := pickBody(op, rng)
	if variant != nil {
		c.MediaType = variant.MediaType
		if variant.Schema != nil {
			body, err := b.generator.GenerateExample(ctx, jsonschema.New(variant.Schema), rng)
			if err != nil {
				return ErrorOutcome(ErrGeneration.Wrap(err))
			}
			c.Body = body
		}
	}

	return CaseOutcome(c)
}

// Negative builds a case with at least one value violating the original
// schema. Locations that cannot be negated fall back to positive generation;
// when nothing at all was negated the attempt is skipped.
func (b *Builder) Negative(ctx context.Context, op *openapi.Operation, rng *rand.Rand) Outcome {
	c := newCase(op, ModeNegative)

	for _, location := range openapi.ParameterLocations() {
		ps := op.ParameterSetFor(location)
		if ps == nil || len(ps.Parameters) == 0 {
			continue
		}

		values, negated, err := b.negativeLocation(ctx, op, ps, location, rng)
		if err != nil {
			return ErrorOutcome(ErrGeneration.Wrap(err))
		}
		c.Values.Set(location, values)
		if negated {
			c.NegatedLocations = append(c.NegatedLocations, location)
		}
	}

	variant := pickBody(op, rng)
	if variant != nil {
		c.MediaType = variant.MediaType
		if variant.Schema != nil {
			body, negated, err := b.negativeBody(ctx, op, variant, rng)
			if err != nil {
				return ErrorOutcome(ErrGeneration.Wrap(err))
			}
			c.Body = body
			if negated {
				c.NegatedLocations = append(c.NegatedLocations, openapi.LocationBody)
			}
		}
	}

	if len(c.NegatedLocations) == 0 {
		return SkipOutcome("no location could be negated")
	}

	return CaseOutcome(c)
}

func (b *Builder) generateLocation(ctx context.Context, ps *openapi.ParameterSet, composite jsonschema.Schema, location openapi.Location, rng *rand.Rand) (*sequencedmap.Map[string, any], error) {
	generated, err := b.generator.GenerateExample(ctx, composite, rng)
	if err != nil {
		return nil, err
	}

	members, ok := generated.(map[string]any)
	if !ok {
		return nil, errors.New("location composite generated a non-object value")
	}

	return orderedValues(ps, sanitizeMembers(location, members)), nil
}

// negativeLocation mutates the location's composite schema, then filters
// generated instances through the original schema's validator: instances that
// still validate are discarded and regeneration is retried. When mutation or
// filtering fails the location degrades to a positive value.
func (b *Builder) negativeLocation(ctx context.Context, op *openapi.Operation, ps *openapi.ParameterSet, location openapi.Location, rng *rand.Rand) (*sequencedmap.Map[string, any], bool, error) {
	composite := ps.Composite()

	mc := mutation.NewContext(composite, location, "", rng)
	if _, ok := mutation.Apply(mc); ok {
		validator, err := b.validators.For(op, location, "", composite)
		if err == nil {
			for attempt := 0; attempt < b.negativeAttempts; attempt++ {
				generated, genErr := b.generator.GenerateExample(ctx, mc.Schema, rng)
				if genErr != nil {
					break
				}

				members, ok := generated.(map[string]any)
				if !ok {
					continue
				}

				members = sanitizeMembers(location, members)
				if !validator.IsValid(members) {
					return orderedValues(ps, members), true, nil
				}
			}
		}
	}

	values, err := b.generateLocation(ctx, ps, composite, location, rng)
	return values, false, err
}

func (b *Builder) negativeBody(ctx context.Context, op *openapi.Operation, variant *openapi.BodyVariant, rng *rand.Rand) (any, bool, error) {
	original := jsonschema.New(variant.Schema)

	mc := mutation.NewContext(original, openapi.LocationBody, variant.MediaType, rng)
	if _, ok := mutation.Apply(mc); ok {
		validator, err := b.validators.For(op, openapi.LocationBody, variant.MediaType, original)
		if err == nil {
			for attempt := 0; attempt < b.negativeAttempts; attempt++ {
				generated, genErr := b.generator.GenerateExample(ctx, mc.Schema, rng)
				if genErr != nil {
					break
				}

				if !validator.IsValid(generated) {
					return generated, true, nil
				}
			}
		}
	}

	body, err := b.generator.GenerateExample(ctx, original, rng)
	return body, false, err
}

func pickBody(op *openapi.Operation, rng *rand.Rand) *openapi.BodyVariant {
	if len(op.Bodies) == 0 {
		return nil
	}
	return op.Bodies[rng.IntN(len(op.Bodies))]
}

// orderedValues lays generated members out in parameter declaration order,
// with any extra members appended in name order for determinism.
func orderedValues(ps *openapi.ParameterSet, members map[string]any) *sequencedmap.Map[string, any] {
	values := sequencedmap.NewWithCapacity[string, any](len(members))

	for _, p := range ps.Parameters {
		if v, ok := members[p.Name]; ok {
			values.Set(p.Name, v)
		}
	}

	extras := make([]string, 0, len(members))
	for name := range members {
		if !values.Has(name) {
			extras = append(extras, name)
		}
	}
	slices.Sort(extras)
	for _, name := range extras {
		values.Set(name, members[name])
	}

	return values
}

// SeedOffset derives a stable rng stream offset from identifying parts, so
// runs are reproducible from a single base seed.
func SeedOffset(parts ...string) uint64 {
	offset, err := strconv.ParseUint(hashing.Hash(parts), 16, 64)
	if err != nil {
		return 0
	}
	return offset
}

// NewRand creates a deterministic rng for one generation attempt from a base
// seed plus identifying parts such as operation id and case index.
func NewRand(seed uint64, parts ...string) *rand.Rand {
	return rand.New(rand.NewPCG(seed, SeedOffset(parts...)))
}
