package jsonschema

import (
	"context"
	"math/rand/v2"
)

// Generator is the constrained-random generation capability the engine
// delegates to: produce one value satisfying the provided schema. Any JSON
// Schema aware generator qualifies; the sampler package carries the in-repo
// default. Implementations must be safe for concurrent use given distinct
// rng instances.
type Generator interface {
	GenerateExample(ctx context.Context, schema Schema, rng *rand.Rand) (any, error)
}
