package cases

import (
	"sync"

	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/openapi"
)

type validatorKey struct {
	operation string
	location  openapi.Location
	mediaType string
}

// ValidatorCache memoizes compiled validators per operation/location pair,
// since the same schema recurs across many generation attempts and validator
// construction is not free. Duplicate concurrent compilation is tolerated;
// the first stored entry wins.
type ValidatorCache struct {
	mu         sync.Mutex
	validators map[validatorKey]*jsonschema.Validator
}

// NewValidatorCache creates an empty cache.
func NewValidatorCache() *ValidatorCache {
	return &ValidatorCache{validators: map[validatorKey]*jsonschema.Validator{}}
}

// For returns the validator for the operation/location pair, compiling the
// schema on first use.
func (vc *ValidatorCache) For(op *openapi.Operation, location openapi.Location, mediaType string, schema jsonschema.Schema) (*jsonschema.Validator, error) {
	key := validatorKey{operation: op.ID(), location: location, mediaType: mediaType}

	vc.mu.Lock()
	v, ok := vc.validators[key]
	vc.mu.Unlock()
	if ok {
		return v, nil
	}

	compiled, err := jsonschema.Compile(schema)
	if err != nil {
		return nil, err
	}

	vc.mu.Lock()
	if existing, ok := vc.validators[key]; ok {
		compiled = existing
	} else {
		vc.validators[key] = compiled
	}
	vc.mu.Unlock()

	return compiled, nil
}

// Len returns the number of cached validators.
func (vc *ValidatorCache) Len() int {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return len(vc.validators)
}
