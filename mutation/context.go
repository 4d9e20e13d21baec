package mutation

import (
	"math/rand/v2"

	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/openapi"
)

// Context carries the state of one mutation attempt: an owned copy of the
// schema being mutated plus where the result will be placed. Single use,
// never shared across goroutines, discarded after one generation attempt.
type Context struct {
	// Schema is the owned copy the catalog mutates in place.
	Schema jsonschema.Schema
	// Location is the request location the mutated schema targets.
	Location openapi.Location
	// MediaType is set when the location is the request body.
	MediaType string

	rng *rand.Rand
}

// NewContext clones the original schema into a fresh mutation context.
func NewContext(original jsonschema.Schema, location openapi.Location, mediaType string, rng *rand.Rand) *Context {
	return &Context{
		Schema:    original.Clone(),
		Location:  location,
		MediaType: mediaType,
		rng:       rng,
	}
}
