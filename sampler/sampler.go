// Package sampler is the in-repo default of the constrained-random
// generation capability: a bounded sampler that draws candidate values from a
// schema's structure and rejection-filters them through a compiled validator.
// Callers may substitute any other JSON Schema aware generator.
package sampler

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/hashing"
	"github.com/apiprobe/apiprobe/jsonschema"
)

const (
	// ErrCannotGenerate is returned when no candidate satisfying the schema
	// was found within the attempt budget.
	ErrCannotGenerate = errors.Error("unable to generate a value satisfying the schema")
)

const (
	defaultMaxAttempts = 100
	maxSampleDepth     = 8
)

// Sampler generates values satisfying portable JSON Schema constraints.
// Safe for concurrent use given distinct rng instances per call.
type Sampler struct {
	maxAttempts int

	mu         sync.Mutex
	validators map[string]*jsonschema.Validator
}

var _ jsonschema.Generator = (*Sampler)(nil)

// Option configures a Sampler.
type Option func(*Sampler)

// WithMaxAttempts overrides the rejection sampling attempt budget.
func WithMaxAttempts(n int) Option {
	return func(s *Sampler) {
		s.maxAttempts = n
	}
}

// New creates a sampler.
func New(opts ...Option) *Sampler {
	s := &Sampler{
		maxAttempts: defaultMaxAttempts,
		validators:  map[string]*jsonschema.Validator{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GenerateExample produces one value satisfying the schema, or
// ErrCannotGenerate when the attempt budget runs out.
func (s *Sampler) GenerateExample(ctx context.Context, schema jsonschema.Schema, rng *rand.Rand) (any, error) {
	validator, err := s.validatorFor(schema)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate := sample(schema, rng, 0)
		if validator.IsValid(candidate) {
			return candidate, nil
		}
	}

	return nil, ErrCannotGenerate
}

// validatorFor compiles and memoizes a validator per structurally distinct
// schema. Duplicate concurrent compilation is tolerated; the first entry wins.
func (s *Sampler) validatorFor(schema jsonschema.Schema) (*jsonschema.Validator, error) {
	key := hashing.Hash(schema.Node())

	s.mu.Lock()
	v, ok := s.validators[key]
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	compiled, err := jsonschema.Compile(schema)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.validators[key]; ok {
		compiled = existing
	} else {
		s.validators[key] = compiled
	}
	s.mu.Unlock()

	return compiled, nil
}
